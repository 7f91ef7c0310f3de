package indicators

import "PivotScreener/internal/domain/models"

// PivotsFor computes the classic floor-trader levels from one bar's high, low and close.
func PivotsFor(high, low, close float64) models.PivotLevels {
	p := (high + low + close) / 3
	return models.PivotLevels{
		Pivot: p,
		R1:    2*p - low,
		S1:    2*p - high,
		R2:    p + (high - low),
		S2:    p - (high - low),
		R3:    high + 2*(p-low),
		S3:    low - 2*(high-p),
	}
}

// ComputePivots returns one PivotLevels per bar, index-aligned with series.Bars.
// There is no lookback; the input is not modified.
func ComputePivots(series models.BarSeries) []models.PivotLevels {
	out := make([]models.PivotLevels, len(series.Bars))
	for i, b := range series.Bars {
		out[i] = PivotsFor(b.High, b.Low, b.Close)
	}
	return out
}

// PivotValues extracts the pivot column.
func PivotValues(levels []models.PivotLevels) []float64 {
	out := make([]float64, len(levels))
	for i, l := range levels {
		out[i] = l.Pivot
	}
	return out
}
