package indicators

import (
	"math"

	"PivotScreener/internal/domain/models"
)

const (
	// MidTermWindow is the trailing window (bars, inclusive) behind the "weekly" signal.
	MidTermWindow = 7
	// LongTermWindow is the trailing window (bars, inclusive) behind the "monthly" signal.
	LongTermWindow = 30
)

// RollingMean returns the simple trailing mean over window values, inclusive of
// the current index. Positions with fewer than window values of history are NaN.
func RollingMean(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	if window <= 0 {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		sum := 0.0
		for _, v := range values[i-window+1 : i+1] {
			sum += v
		}
		out[i] = sum / float64(window)
	}
	return out
}

// ComputeSentiment derives the three horizons for every bar.
//
// The mid and long horizons compare the close against the rolling mean of the
// per-bar pivot value, not against a pivot recomputed from weekly or monthly
// aggregated bars. A horizon is undefined until its window is full.
func ComputeSentiment(series models.BarSeries, levels []models.PivotLevels) []models.SentimentSignals {
	pivots := PivotValues(levels)
	mid := RollingMean(pivots, MidTermWindow)
	long := RollingMean(pivots, LongTermWindow)

	out := make([]models.SentimentSignals, len(series.Bars))
	for i, b := range series.Bars {
		if i >= len(pivots) {
			break
		}
		out[i].ShortTerm = models.SignalOf(b.Close > pivots[i])
		if i >= MidTermWindow-1 {
			out[i].MidTerm = models.SignalOf(b.Close > mid[i])
		}
		if i >= LongTermWindow-1 {
			out[i].LongTerm = models.SignalOf(b.Close > long[i])
		}
	}
	return out
}
