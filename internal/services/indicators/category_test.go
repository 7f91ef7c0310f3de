package indicators

import (
	"errors"
	"testing"

	"PivotScreener/internal/domain/models"
)

func TestCategorize_ExhaustivePartition(t *testing.T) {
	counts := map[models.Category]int{}
	for mask := 0; mask < 8; mask++ {
		s := models.SentimentSignals{
			ShortTerm: models.SignalOf(mask&1 != 0),
			MidTerm:   models.SignalOf(mask&2 != 0),
			LongTerm:  models.SignalOf(mask&4 != 0),
		}
		c, err := Categorize(s)
		if err != nil {
			t.Fatalf("mask %03b: unexpected error %v", mask, err)
		}
		counts[c]++
		switch mask {
		case 0:
			if c != models.CategoryCompletelyBearish {
				t.Errorf("all bearish -> %v", c)
			}
		case 7:
			if c != models.CategoryCompletelyBullish {
				t.Errorf("all bullish -> %v", c)
			}
		default:
			if c != models.CategoryGraduallyBullish {
				t.Errorf("mask %03b -> %v, want GraduallyBullish", mask, c)
			}
		}
	}
	if counts[models.CategoryCompletelyBearish] != 1 || counts[models.CategoryCompletelyBullish] != 1 || counts[models.CategoryGraduallyBullish] != 6 {
		t.Fatalf("unexpected partition %v", counts)
	}
}

func TestCategorize_UndefinedIsError(t *testing.T) {
	tests := []models.SentimentSignals{
		{ShortTerm: models.SignalBullish, MidTerm: models.SignalBullish},
		{ShortTerm: models.SignalBearish, LongTerm: models.SignalBearish},
		{},
	}
	for _, s := range tests {
		c, err := Categorize(s)
		if !errors.Is(err, models.ErrInsufficientData) {
			t.Errorf("%+v: expected ErrInsufficientData, got %v", s, err)
		}
		if c != models.CategoryUndetermined {
			t.Errorf("%+v: expected undetermined category, got %v", s, c)
		}
	}
}

func TestSummarize(t *testing.T) {
	sum, err := Summarize(Analyze(trendSeries(40, 100, -0.5)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sum.Category != models.CategoryCompletelyBearish {
		t.Errorf("category = %v, want CompletelyBearish", sum.Category)
	}
	if sum.Bars != 40 || sum.Symbol != "TEST/USDT" {
		t.Errorf("unexpected summary %+v", sum)
	}

	short, err := Summarize(Analyze(trendSeries(10, 100, 1)))
	if !errors.Is(err, models.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	if short.MidTerm != models.SignalBullish || short.LongTerm.Defined() {
		t.Errorf("unexpected signals %+v", short)
	}
}
