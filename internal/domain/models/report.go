package models

import "time"

// InstrumentSummary is the screener row for one symbol, taken from its most recent bar.
type InstrumentSummary struct {
	Symbol    string
	ShortTerm Signal
	MidTerm   Signal
	LongTerm  Signal
	Category  Category
	LastClose float64
	LastBarAt time.Time
	Bars      int
	Analysis  *Analysis
}

// DiagnosticKind classifies why a symbol was left out of a report.
type DiagnosticKind string

const (
	DiagnosticFetch     DiagnosticKind = "fetch"
	DiagnosticEmpty     DiagnosticKind = "empty"
	DiagnosticMalformed DiagnosticKind = "malformed"
)

// Diagnostic records a recoverable per-symbol failure.
type Diagnostic struct {
	Symbol  string
	Kind    DiagnosticKind
	Message string
}

// ScreenerReport is the aggregate of one screening run. Summaries and
// Diagnostics each preserve the order of the input symbols.
type ScreenerReport struct {
	ID          string
	Timeframe   Timeframe
	Limit       int
	GeneratedAt time.Time
	Summaries   []InstrumentSummary
	Diagnostics []Diagnostic
}

// Summary looks up a summary by symbol.
func (r *ScreenerReport) Summary(symbol string) (InstrumentSummary, bool) {
	if r == nil {
		return InstrumentSummary{}, false
	}
	for _, s := range r.Summaries {
		if s.Symbol == symbol {
			return s, true
		}
	}
	return InstrumentSummary{}, false
}

// CategoryCounts tallies summaries per category.
func (r *ScreenerReport) CategoryCounts() map[Category]int {
	out := make(map[Category]int, 4)
	if r == nil {
		return out
	}
	for _, s := range r.Summaries {
		out[s.Category]++
	}
	return out
}
