package dataprocessing

import (
	"sort"
	"time"

	"retentionpulse/pkg/contracts/domain"
)

// FilterByDateRange keeps records whose cutoff date lies in [from, to],
// compared as calendar dates. Records with an unknown cutoff date are
// excluded. A zero bound leaves that side open.
func FilterByDateRange(records []domain.Record, from, to time.Time) []domain.Record {
	if !from.IsZero() {
		from = TruncateDate(from)
	}
	if !to.IsZero() {
		to = TruncateDate(to)
	}
	out := make([]domain.Record, 0, len(records))
	for _, r := range records {
		if r.CutoffDate == nil {
			continue
		}
		d := TruncateDate(*r.CutoffDate)
		if !from.IsZero() && d.Before(from) {
			continue
		}
		if !to.IsZero() && d.After(to) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// AggregateByDate counts discount acceptance per cutoff date, ordered by
// date ascending. Records with an unknown cutoff date are not bucketed.
func AggregateByDate(records []domain.Record) []domain.DateBucketSummary {
	byDate := make(map[time.Time]*domain.DateBucketSummary)
	for _, r := range records {
		if r.CutoffDate == nil {
			continue
		}
		key := TruncateDate(*r.CutoffDate)
		b, ok := byDate[key]
		if !ok {
			b = &domain.DateBucketSummary{CutoffDate: key}
			byDate[key] = b
		}
		b.Total++
		if r.AcceptedDiscount {
			b.Accepted++
		} else {
			b.NotAccepted++
		}
	}

	buckets := make([]domain.DateBucketSummary, 0, len(byDate))
	for _, b := range byDate {
		b.AcceptedPct = percent(b.Accepted, b.Total)
		b.NotAcceptedPct = percent(b.NotAccepted, b.Total)
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].CutoffDate.Before(buckets[j].CutoffDate)
	})
	return buckets
}

// Cumulative adds running totals to buckets. The input is copied and sorted
// by date first; the cumulative percentage is cumulative accepted over
// cumulative total, not an average of daily percentages.
func Cumulative(buckets []domain.DateBucketSummary) []domain.DateBucketSummary {
	out := make([]domain.DateBucketSummary, len(buckets))
	copy(out, buckets)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CutoffDate.Before(out[j].CutoffDate)
	})

	var total, accepted int
	for i := range out {
		total += out[i].Total
		accepted += out[i].Accepted
		out[i].CumulativeTotal = total
		out[i].CumulativeAccepted = accepted
		out[i].CumulativePct = percent(accepted, total)
	}
	return out
}

// Distributions returns the Si/No split of both answer columns.
func Distributions(records []domain.Record) []domain.Distribution {
	cancel := domain.Distribution{Field: domain.ColumnWantsCancelation}
	discount := domain.Distribution{Field: domain.ColumnAcceptedDiscount}
	for _, r := range records {
		if r.WantsCancellation {
			cancel.Yes++
		} else {
			cancel.No++
		}
		if r.AcceptedDiscount {
			discount.Yes++
		} else {
			discount.No++
		}
	}
	for _, d := range []*domain.Distribution{&cancel, &discount} {
		total := d.Yes + d.No
		d.YesPct = percent(d.Yes, total)
		d.NoPct = percent(d.No, total)
	}
	return []domain.Distribution{cancel, discount}
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) * 100 / float64(total)
}
