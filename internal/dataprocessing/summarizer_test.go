package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"retentionpulse/pkg/contracts/domain"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name    string
		records []domain.Record
		want    domain.ContextSummary
		snippet string
	}{
		{
			name: "retention over cancellation intents",
			records: func() []domain.Record {
				var rs []domain.Record
				rs = append(rs, repeat(10, record("", true, true, nil, "a"))...)
				rs = append(rs, repeat(30, record("", true, false, nil, "a"))...)
				rs = append(rs, repeat(5, record("", false, true, nil, "a"))...)
				rs = append(rs, repeat(55, record("", false, false, nil, "a"))...)
				return rs
			}(),
			want: domain.ContextSummary{
				Total: 100, Cancellations: 40, CancellationsPct: 40,
				Discounts: 15, DiscountsPct: 15, Retained: 10, RetentionRate: 25,
			},
			snippet: "Total:100|Bajas:40(40.0%)|Desc:15(15.0%)|Ret:10|Tasa:25.0%",
		},
		{
			name:    "no cancellation intents",
			records: repeat(3, record("", false, true, nil, "a")),
			want: domain.ContextSummary{
				Total: 3, Discounts: 3, DiscountsPct: 100,
			},
			snippet: "Total:3|Bajas:0(0.0%)|Desc:3(100.0%)|Ret:0|Tasa:0.0%",
		},
		{
			name:    "empty dataset",
			records: nil,
			want:    domain.ContextSummary{},
			snippet: "Total:0|Bajas:0(0.0%)|Desc:0(0.0%)|Ret:0|Tasa:0.0%",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(&domain.Dataset{Records: tt.records})
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.snippet, got.String())
		})
	}
}

func TestSummarize_CountsUnknownCutoffDates(t *testing.T) {
	ds := &domain.Dataset{Records: []domain.Record{
		record("", true, true, nil, "nodate.xlsx"),
		record("", true, false, date(2025, 11, 24), "a.xlsx"),
	}}
	s := Summarize(ds)
	assert.Equal(t, 2, s.Total)
	assert.InDelta(t, 50.0, s.RetentionRate, 1e-9)
}

func TestSummarize_Nil(t *testing.T) {
	assert.Equal(t, domain.ContextSummary{}, Summarize(nil))
}
