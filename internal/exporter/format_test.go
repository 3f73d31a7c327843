package exporter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatPct(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{"zero", 0, "0.0"},
		{"whole", 50, "50.0"},
		{"rounded down", 33.333, "33.3"},
		{"rounded up", 66.666, "66.7"},
		{"hundred", 100, "100.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatPct(tt.input))
		})
	}
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2024, time.November, 3, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, "2024-11-03", formatDate(&d))
	assert.Equal(t, "", formatDate(nil))
}

func TestAnswer(t *testing.T) {
	assert.Equal(t, "Si", answer(true))
	assert.Equal(t, "No", answer(false))
}
