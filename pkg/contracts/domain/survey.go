package domain

import (
	"fmt"
	"time"
)

// Canonical column names every ingested spreadsheet is homologated to.
const (
	ColumnCustomerID       = "Customer id"
	ColumnWantsCancelation = "Quiere baja"
	ColumnAcceptedDiscount = "Acepto descuento"
	ColumnResponseDate     = "Fecha respuesta"
)

// Canonical answer values after normalization.
const (
	AnswerYes = "Si"
	AnswerNo  = "No"
)

// DateLayout is the plain calendar-date format used in reports.
const DateLayout = "2006-01-02"

// Record is one survey response in canonical form.
type Record struct {
	CustomerID        string     `json:"customer_id,omitempty"`
	HasCustomerID     bool       `json:"-"`
	WantsCancellation bool       `json:"wants_cancellation"`
	AcceptedDiscount  bool       `json:"accepted_discount"`
	ResponseDate      *time.Time `json:"response_date,omitempty"`
	CutoffDate        *time.Time `json:"cutoff_date,omitempty"`
	SourceFile        string     `json:"source_file"`
}

// Retained reports whether the customer wanted to cancel and accepted the discount.
func (r Record) Retained() bool {
	return r.WantsCancellation && r.AcceptedDiscount
}

// CutoffKey returns the cutoff date as YYYY-MM-DD, or "" when unknown.
func (r Record) CutoffKey() string {
	if r.CutoffDate == nil {
		return ""
	}
	return r.CutoffDate.Format(DateLayout)
}

// ColumnSet records which optional canonical columns were present in any source file.
type ColumnSet struct {
	CustomerID   bool `json:"customer_id"`
	ResponseDate bool `json:"response_date"`
}

// Dataset is the merged, normalized result of one load cycle. It is not
// mutated after construction; a reload produces a new Dataset.
type Dataset struct {
	Records  []Record  `json:"records"`
	Columns  ColumnSet `json:"columns"`
	Files    []string  `json:"files"`
	Warnings []string  `json:"warnings,omitempty"`
	Source   string    `json:"source"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Len returns the number of records, treating a nil dataset as empty.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// DateBounds returns the earliest and latest known cutoff dates.
func (d *Dataset) DateBounds() (min, max time.Time, ok bool) {
	if d == nil {
		return
	}
	for _, r := range d.Records {
		if r.CutoffDate == nil {
			continue
		}
		if !ok || r.CutoffDate.Before(min) {
			min = *r.CutoffDate
		}
		if !ok || r.CutoffDate.After(max) {
			max = *r.CutoffDate
		}
		ok = true
	}
	return
}

// DuplicateGroup describes a customer id that occurs more than once.
type DuplicateGroup struct {
	CustomerID  string   `json:"customer_id"`
	Count       int      `json:"count"`
	Files       []string `json:"files"`
	CutoffDates []string `json:"cutoff_dates"`
}

// DuplicateReport lists customer ids seen more than once. Applicable is
// false when no source file carried a customer id column.
type DuplicateReport struct {
	Applicable bool             `json:"applicable"`
	Groups     []DuplicateGroup `json:"groups"`
}

// HasDuplicates reports whether any duplicate customer id was found.
func (r DuplicateReport) HasDuplicates() bool {
	return r.Applicable && len(r.Groups) > 0
}

// TotalRecords is the number of records involved in duplicate groups.
func (r DuplicateReport) TotalRecords() int {
	n := 0
	for _, g := range r.Groups {
		n += g.Count
	}
	return n
}

// DateBucketSummary aggregates acceptance for one cutoff date. Cumulative
// fields are only filled by the cumulative view.
type DateBucketSummary struct {
	CutoffDate         time.Time `json:"cutoff_date"`
	Total              int       `json:"total"`
	Accepted           int       `json:"accepted"`
	NotAccepted        int       `json:"not_accepted"`
	AcceptedPct        float64   `json:"accepted_pct"`
	NotAcceptedPct     float64   `json:"not_accepted_pct"`
	CumulativeTotal    int       `json:"cumulative_total,omitempty"`
	CumulativeAccepted int       `json:"cumulative_accepted,omitempty"`
	CumulativePct      float64   `json:"cumulative_pct,omitempty"`
}

// Distribution counts Si/No answers for one canonical field.
type Distribution struct {
	Field  string  `json:"field"`
	Yes    int     `json:"yes"`
	No     int     `json:"no"`
	YesPct float64 `json:"yes_pct"`
	NoPct  float64 `json:"no_pct"`
}

// ContextSummary is the compact statistic set handed to the assistant.
type ContextSummary struct {
	Total            int     `json:"total"`
	Cancellations    int     `json:"cancellations"`
	CancellationsPct float64 `json:"cancellations_pct"`
	Discounts        int     `json:"discounts"`
	DiscountsPct     float64 `json:"discounts_pct"`
	Retained         int     `json:"retained"`
	RetentionRate    float64 `json:"retention_rate"`
}

// String renders the snippet sent as assistant context.
func (s ContextSummary) String() string {
	return fmt.Sprintf("Total:%d|Bajas:%d(%.1f%%)|Desc:%d(%.1f%%)|Ret:%d|Tasa:%.1f%%",
		s.Total, s.Cancellations, s.CancellationsPct,
		s.Discounts, s.DiscountsPct, s.Retained, s.RetentionRate)
}
