package dataprocessing

import "retentionpulse/pkg/contracts/domain"

// Summarize reduces the dataset to the statistics the assistant sees.
// Retention rate is retained over cancellation intents, 0 when there are none.
func Summarize(ds *domain.Dataset) domain.ContextSummary {
	var s domain.ContextSummary
	if ds == nil {
		return s
	}
	s.Total = len(ds.Records)
	for _, r := range ds.Records {
		if r.WantsCancellation {
			s.Cancellations++
		}
		if r.AcceptedDiscount {
			s.Discounts++
		}
		if r.Retained() {
			s.Retained++
		}
	}
	s.CancellationsPct = percent(s.Cancellations, s.Total)
	s.DiscountsPct = percent(s.Discounts, s.Total)
	s.RetentionRate = percent(s.Retained, s.Cancellations)
	return s
}
