package models

// PivotLevels are the classic floor-trader levels derived from a single bar.
type PivotLevels struct {
	Pivot float64
	R1    float64
	S1    float64
	R2    float64
	S2    float64
	R3    float64
	S3    float64
}

// Signal is a bullish/bearish flag that may be undefined when the trailing
// window does not have enough history yet. The zero value is undefined.
type Signal uint8

const (
	SignalUndefined Signal = iota
	SignalBearish
	SignalBullish
)

// SignalOf converts a comparison result into a defined signal.
func SignalOf(bullish bool) Signal {
	if bullish {
		return SignalBullish
	}
	return SignalBearish
}

// Defined reports whether the signal carries a value.
func (s Signal) Defined() bool { return s == SignalBullish || s == SignalBearish }

// Bool returns the bullish flag, or ErrInsufficientData when undefined.
func (s Signal) Bool() (bool, error) {
	switch s {
	case SignalBullish:
		return true, nil
	case SignalBearish:
		return false, nil
	default:
		return false, ErrInsufficientData
	}
}

func (s Signal) String() string {
	switch s {
	case SignalBullish:
		return "bullish"
	case SignalBearish:
		return "bearish"
	default:
		return "undefined"
	}
}

// SentimentSignals holds the three horizons for one bar.
type SentimentSignals struct {
	ShortTerm Signal
	MidTerm   Signal
	LongTerm  Signal
}

// Complete reports whether all three horizons are defined.
func (s SentimentSignals) Complete() bool {
	return s.ShortTerm.Defined() && s.MidTerm.Defined() && s.LongTerm.Defined()
}

// Category groups an instrument by its terminal signals.
// CategoryUndetermined is the zero value and is used only when the signals are incomplete.
type Category uint8

const (
	CategoryUndetermined Category = iota
	CategoryCompletelyBearish
	CategoryCompletelyBullish
	CategoryGraduallyBullish
)

func (c Category) String() string {
	switch c {
	case CategoryCompletelyBearish:
		return "CompletelyBearish"
	case CategoryCompletelyBullish:
		return "CompletelyBullish"
	case CategoryGraduallyBullish:
		return "GraduallyBullish"
	default:
		return "Undetermined"
	}
}

// AnalyzedBar is one row of the augmented series: the raw bar, its levels,
// the trailing pivot means (NaN while undefined) and the sentiment signals.
type AnalyzedBar struct {
	Bar
	Levels       PivotLevels
	MidTermMean  float64
	LongTermMean float64
	Signals      SentimentSignals
}

// Analysis is the pivot and sentiment augmented view of a BarSeries.
type Analysis struct {
	Symbol    string
	Timeframe Timeframe
	Rows      []AnalyzedBar
}

// Terminal returns the signals of the most recent bar.
func (a *Analysis) Terminal() (SentimentSignals, bool) {
	if a == nil || len(a.Rows) == 0 {
		return SentimentSignals{}, false
	}
	return a.Rows[len(a.Rows)-1].Signals, true
}
