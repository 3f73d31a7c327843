package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"retentionpulse/pkg/contracts/domain"
)

// Column headers of the bucket and duplicate exports
var (
	BucketHeader = []string{
		"Fecha corte", "Total", "Acepto", "No acepto", "% Acepto", "% No acepto",
		"Total acumulado", "Acepto acumulado", "% Acumulado",
	}
	RecordHeader = []string{
		domain.ColumnCustomerID, domain.ColumnWantsCancelation, domain.ColumnAcceptedDiscount,
		domain.ColumnResponseDate, "Fecha corte", "Archivo",
	}
	DuplicateHeader = []string{domain.ColumnCustomerID, "Apariciones", "Archivos", "Fechas corte"}
)

// BucketRow renders one bucket. Cumulative columns are empty unless the
// bucket came from the cumulative view.
func BucketRow(b domain.DateBucketSummary) []string {
	row := []string{
		b.CutoffDate.Format(domain.DateLayout),
		strconv.Itoa(b.Total),
		strconv.Itoa(b.Accepted),
		strconv.Itoa(b.NotAccepted),
		formatPct(b.AcceptedPct),
		formatPct(b.NotAcceptedPct),
		"", "", "",
	}
	if b.CumulativeTotal > 0 {
		row[6] = strconv.Itoa(b.CumulativeTotal)
		row[7] = strconv.Itoa(b.CumulativeAccepted)
		row[8] = formatPct(b.CumulativePct)
	}
	return row
}

// RecordRow renders one record with Si/No answers
func RecordRow(r domain.Record) []string {
	return []string{
		r.CustomerID,
		answer(r.WantsCancellation),
		answer(r.AcceptedDiscount),
		formatDate(r.ResponseDate),
		formatDate(r.CutoffDate),
		r.SourceFile,
	}
}

// DuplicateRow renders one duplicate group
func DuplicateRow(g domain.DuplicateGroup) []string {
	return []string{
		g.CustomerID,
		strconv.Itoa(g.Count),
		strings.Join(g.Files, "; "),
		strings.Join(g.CutoffDates, "; "),
	}
}

// WriteBucketsCSV writes buckets, typically the cumulative view, as CSV
func WriteBucketsCSV(w io.Writer, buckets []domain.DateBucketSummary) error {
	rows := make([][]string, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, BucketRow(b))
	}
	return writeCSV(w, BucketHeader, rows)
}

// WriteRecordsCSV writes the records in canonical column order
func WriteRecordsCSV(w io.Writer, records []domain.Record) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, RecordRow(r))
	}
	return writeCSV(w, RecordHeader, rows)
}

// WriteDuplicatesCSV writes one row per duplicated customer id
func WriteDuplicatesCSV(w io.Writer, report domain.DuplicateReport) error {
	rows := make([][]string, 0, len(report.Groups))
	for _, g := range report.Groups {
		rows = append(rows, DuplicateRow(g))
	}
	return writeCSV(w, DuplicateHeader, rows)
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("writing csv rows: %w", err)
	}
	return nil
}
