package indicators

import (
	"math"
	"testing"

	"PivotScreener/internal/domain/models"
)

func TestRollingMean(t *testing.T) {
	got := RollingMean([]float64{1, 2, 3, 4, 5}, 3)
	want := []float64{math.NaN(), math.NaN(), 2, 3, 4}
	for i := range want {
		if math.IsNaN(want[i]) {
			if !math.IsNaN(got[i]) {
				t.Errorf("index %d: expected NaN, got %v", i, got[i])
			}
			continue
		}
		if !almostEqual(got[i], want[i]) {
			t.Errorf("index %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRollingMean_WindowLongerThanInput(t *testing.T) {
	for i, v := range RollingMean([]float64{1, 2}, 7) {
		if !math.IsNaN(v) {
			t.Errorf("index %d: expected NaN, got %v", i, v)
		}
	}
}

func TestComputeSentiment_DefinedIndices(t *testing.T) {
	s := trendSeries(40, 100, -0.5)
	sig := ComputeSentiment(s, ComputePivots(s))
	for i, v := range sig {
		if !v.ShortTerm.Defined() {
			t.Errorf("index %d: short term should always be defined", i)
		}
		if got, want := v.MidTerm.Defined(), i >= 6; got != want {
			t.Errorf("index %d: mid term defined = %v, want %v", i, got, want)
		}
		if got, want := v.LongTerm.Defined(), i >= 29; got != want {
			t.Errorf("index %d: long term defined = %v, want %v", i, got, want)
		}
	}
}

func TestComputeSentiment_FiveBars(t *testing.T) {
	s := trendSeries(5, 100, 1)
	sig := ComputeSentiment(s, ComputePivots(s))
	last := sig[len(sig)-1]
	if last.ShortTerm != models.SignalBullish {
		t.Errorf("short term = %v, want bullish", last.ShortTerm)
	}
	if last.MidTerm.Defined() || last.LongTerm.Defined() {
		t.Errorf("expected undefined mid/long, got %v/%v", last.MidTerm, last.LongTerm)
	}
	if _, err := last.MidTerm.Bool(); err != models.ErrInsufficientData {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestComputeSentiment_UsesMeanOfDailyPivots(t *testing.T) {
	// Six flat bars with pivot 10, then a bar whose own pivot is 20 and close 15.
	// Mean of the 7 pivots is (6*10+20)/7 ~ 11.43, so mid term is bullish while
	// short term (15 < 20) is bearish.
	hlc := make([][3]float64, 0, 7)
	for i := 0; i < 6; i++ {
		hlc = append(hlc, [3]float64{10, 10, 10})
	}
	hlc = append(hlc, [3]float64{30, 15, 15})
	s := seriesFromHLC(hlc...)
	lv := ComputePivots(s)
	if !almostEqual(lv[6].Pivot, 20) {
		t.Fatalf("pivot = %v, want 20", lv[6].Pivot)
	}
	sig := ComputeSentiment(s, lv)[6]
	if sig.ShortTerm != models.SignalBearish {
		t.Errorf("short term = %v, want bearish", sig.ShortTerm)
	}
	if sig.MidTerm != models.SignalBullish {
		t.Errorf("mid term = %v, want bullish", sig.MidTerm)
	}
}

func TestComputeSentiment_TrendDirections(t *testing.T) {
	tests := []struct {
		name string
		step float64
		want models.Signal
	}{
		{"downtrend closing at lows", -0.5, models.SignalBearish},
		{"uptrend closing at highs", 0.5, models.SignalBullish},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := trendSeries(40, 100, tt.step)
			last := ComputeSentiment(s, ComputePivots(s))[39]
			if last.ShortTerm != tt.want || last.MidTerm != tt.want || last.LongTerm != tt.want {
				t.Fatalf("got %+v, want all %v", last, tt.want)
			}
		})
	}
}
