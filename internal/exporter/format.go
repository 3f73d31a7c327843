package exporter

import (
	"strconv"
	"time"

	"retentionpulse/pkg/contracts/domain"
)

// answer renders a normalized boolean answer as Si/No
func answer(v bool) string {
	if v {
		return domain.AnswerYes
	}
	return domain.AnswerNo
}

// formatDate formats an optional date as YYYY-MM-DD, empty when unknown
func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(domain.DateLayout)
}

// formatPct formats a percentage with one decimal, as the dashboard shows it
func formatPct(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
