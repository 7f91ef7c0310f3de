package indicators

import "PivotScreener/internal/domain/models"

// Analyze runs pivots and sentiment over a series and returns the augmented rows.
func Analyze(series models.BarSeries) *models.Analysis {
	levels := ComputePivots(series)
	signals := ComputeSentiment(series, levels)
	pivots := PivotValues(levels)
	mid := RollingMean(pivots, MidTermWindow)
	long := RollingMean(pivots, LongTermWindow)

	rows := make([]models.AnalyzedBar, len(series.Bars))
	for i, b := range series.Bars {
		rows[i] = models.AnalyzedBar{
			Bar:          b,
			Levels:       levels[i],
			MidTermMean:  mid[i],
			LongTermMean: long[i],
			Signals:      signals[i],
		}
	}
	return &models.Analysis{Symbol: series.Symbol, Timeframe: series.Timeframe, Rows: rows}
}

// Summarize builds the screener row from the terminal bar of an analysis.
// The error is non-nil (wrapping ErrInsufficientData) when the category cannot
// be determined; the summary is still populated with whatever is defined.
func Summarize(a *models.Analysis) (models.InstrumentSummary, error) {
	sum := models.InstrumentSummary{Analysis: a}
	if a == nil {
		return sum, models.ErrEmptySeries
	}
	sum.Symbol = a.Symbol
	sum.Bars = len(a.Rows)
	sig, ok := a.Terminal()
	if !ok {
		return sum, models.ErrEmptySeries
	}
	last := a.Rows[len(a.Rows)-1]
	sum.LastClose = last.Close
	sum.LastBarAt = last.Timestamp
	sum.ShortTerm, sum.MidTerm, sum.LongTerm = sig.ShortTerm, sig.MidTerm, sig.LongTerm

	cat, err := Categorize(sig)
	sum.Category = cat
	return sum, err
}
