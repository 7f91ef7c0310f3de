package indicators

import (
	"math"
	"time"

	"PivotScreener/internal/domain/models"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

// seriesFromHLC builds a daily series; open and volume are filler.
func seriesFromHLC(hlc ...[3]float64) models.BarSeries {
	bars := make([]models.Bar, len(hlc))
	for i, v := range hlc {
		bars[i] = models.Bar{
			Timestamp: t0.Add(time.Duration(i) * 24 * time.Hour),
			Open:      v[2],
			High:      v[0],
			Low:       v[1],
			Close:     v[2],
			Volume:    1,
		}
	}
	return models.BarSeries{Symbol: "TEST/USDT", Timeframe: models.TF1d, Bars: bars}
}

// trendSeries returns n bars drifting by step per bar, closing at the low when
// step is negative and at the high when step is positive.
func trendSeries(n int, start, step float64) models.BarSeries {
	hlc := make([][3]float64, n)
	for i := range hlc {
		mid := start + float64(i)*step
		h, l := mid+1, mid-1
		c := l
		if step > 0 {
			c = h
		}
		hlc[i] = [3]float64{h, l, c}
	}
	return seriesFromHLC(hlc...)
}
