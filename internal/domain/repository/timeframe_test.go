package repository

import (
	"testing"

	"PivotScreener/internal/domain/models"
)

func TestNormalizeTimeframe(t *testing.T) {
	tests := []struct {
		in   string
		want models.Timeframe
	}{
		{"", models.TF1d},
		{"1h", models.TF1h},
		{"1w", models.TF1w},
		{"1m", models.TF1m},
		{"5m", models.TF1d},
		{"1M", models.TF1d},
	}
	for _, tt := range tests {
		if got := NormalizeTimeframe(tt.in); got != tt.want {
			t.Errorf("NormalizeTimeframe(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
