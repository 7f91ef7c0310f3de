package presenter

import (
	"math"

	"PivotScreener/internal/domain/models"

	"github.com/shopspring/decimal"
)

// Display hints are CSS color names understood by any HTML front end.
const (
	HintBullish   = "lightgreen"
	HintBearish   = "lightcoral"
	HintUndefined = "lightgray"
	HintGradual   = "khaki"
)

const insufficientData = "Insufficient data"

func SignalLabel(s models.Signal) string {
	switch s {
	case models.SignalBullish:
		return "Bullish"
	case models.SignalBearish:
		return "Bearish"
	default:
		return insufficientData
	}
}

func SignalHint(s models.Signal) string {
	switch s {
	case models.SignalBullish:
		return HintBullish
	case models.SignalBearish:
		return HintBearish
	default:
		return HintUndefined
	}
}

func CategoryLabel(c models.Category) string {
	switch c {
	case models.CategoryCompletelyBullish:
		return "Completely Bullish"
	case models.CategoryCompletelyBearish:
		return "Completely Bearish"
	case models.CategoryGraduallyBullish:
		return "Gradually Bullish"
	default:
		return insufficientData
	}
}

func CategoryHint(c models.Category) string {
	switch c {
	case models.CategoryCompletelyBullish:
		return HintBullish
	case models.CategoryCompletelyBearish:
		return HintBearish
	case models.CategoryGraduallyBullish:
		return HintGradual
	default:
		return HintUndefined
	}
}

// PricePlaces picks how many decimals a price needs to stay readable:
// sub-unit coins get more precision than large caps.
func PricePlaces(v float64) int32 {
	a := math.Abs(v)
	switch {
	case a == 0 || a >= 1000:
		return 2
	case a >= 1:
		return 4
	default:
		return 8
	}
}

// FormatPrice renders v with a fixed number of decimals. Undefined values
// (NaN, Inf) render as "-".
func FormatPrice(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return decimal.NewFromFloat(v).StringFixed(PricePlaces(v))
}
