package indicators

import (
	"math/rand"
	"reflect"
	"testing"
)

func TestPivotsFor_ReferenceBar(t *testing.T) {
	got := PivotsFor(10, 4, 7)
	want := map[string][2]float64{
		"pivot": {got.Pivot, 7},
		"r1":    {got.R1, 10},
		"s1":    {got.S1, 4},
		"r2":    {got.R2, 13},
		"s2":    {got.S2, 1},
		"r3":    {got.R3, 16},
		"s3":    {got.S3, -2},
	}
	for name, v := range want {
		if !almostEqual(v[0], v[1]) {
			t.Errorf("%s = %v, want %v", name, v[0], v[1])
		}
	}
}

func TestComputePivots_PureAndIdempotent(t *testing.T) {
	s := seriesFromHLC([3]float64{10, 4, 7}, [3]float64{12, 9, 11}, [3]float64{11, 8, 8.5})
	before := append(s.Bars[:0:0], s.Bars...)

	first := ComputePivots(s)
	second := ComputePivots(s)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("pivots differ between calls: %v vs %v", first, second)
	}
	if !reflect.DeepEqual(before, s.Bars) {
		t.Fatal("input bars were modified")
	}
	if len(first) != len(s.Bars) {
		t.Fatalf("expected %d levels, got %d", len(s.Bars), len(first))
	}
}

func TestPivotsFor_OrderingOnWellFormedBars(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		low := rng.Float64() * 100
		high := low + 0.01 + rng.Float64()*10
		close := low + rng.Float64()*(high-low)
		lv := PivotsFor(high, low, close)
		if !(lv.R1 > lv.Pivot && lv.Pivot > lv.S1) {
			t.Fatalf("H=%v L=%v C=%v: expected r1 > pivot > s1, got %+v", high, low, close, lv)
		}
	}
}

func TestPivotsFor_DegenerateBar(t *testing.T) {
	lv := PivotsFor(5, 5, 5)
	if lv.R1 != lv.Pivot || lv.Pivot != lv.S1 {
		t.Fatalf("expected r1 = pivot = s1 for a flat bar, got %+v", lv)
	}
}

func TestComputePivots_EmptySeries(t *testing.T) {
	if got := ComputePivots(seriesFromHLC()); len(got) != 0 {
		t.Fatalf("expected no levels, got %d", len(got))
	}
}
