package models

import (
	"math"
	"time"
)

// Bar is one OHLCV record.
type Bar struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// BarSeries is an ascending, timestamp-ordered run of bars for one instrument.
// Index 0 is the oldest bar.
type BarSeries struct {
	Symbol    string
	Timeframe Timeframe
	Bars      []Bar
}

// Len returns the number of bars.
func (s BarSeries) Len() int { return len(s.Bars) }

// Validate rejects bars the pipeline cannot reason about: non-finite or negative
// prices/volume and timestamps that do not strictly increase. OHLC ordering
// (high >= low etc.) is deliberately not checked.
func (s BarSeries) Validate() error {
	var prev time.Time
	for i, b := range s.Bars {
		for _, f := range []struct {
			name string
			v    float64
		}{
			{"open", b.Open},
			{"high", b.High},
			{"low", b.Low},
			{"close", b.Close},
			{"volume", b.Volume},
		} {
			if math.IsNaN(f.v) || math.IsInf(f.v, 0) || f.v < 0 {
				return &MalformedBarError{Symbol: s.Symbol, Index: i, Field: f.name, Value: f.v}
			}
		}
		if i > 0 && !b.Timestamp.After(prev) {
			return &MalformedBarError{Symbol: s.Symbol, Index: i, Field: "timestamp", Value: float64(b.Timestamp.UnixMilli())}
		}
		prev = b.Timestamp
	}
	return nil
}
