package presenter

import (
	"fmt"
	"io"
	"text/tabwriter"

	"PivotScreener/internal/domain/models"
)

const tsLayout = "2006-01-02 15:04"

// WriteSummaryTable prints one row per summary followed by the diagnostics.
func WriteSummaryTable(w io.Writer, r *models.ScreenerReport) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Sentiment Summary (%s, %d bars)\n", r.Timeframe, r.Limit)
	fmt.Fprintln(tw, "SYMBOL\tSHORT TERM\tMID TERM\tLONG TERM\tCATEGORY\tLAST CLOSE\tLAST BAR")
	for _, s := range r.Summaries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			s.Symbol,
			SignalLabel(s.ShortTerm),
			SignalLabel(s.MidTerm),
			SignalLabel(s.LongTerm),
			CategoryLabel(s.Category),
			FormatPrice(s.LastClose),
			s.LastBarAt.UTC().Format(tsLayout),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, d := range r.Diagnostics {
		if _, err := fmt.Fprintln(w, d.Message); err != nil {
			return err
		}
	}
	return nil
}

// WriteDetailTable prints every bar of a with its levels and signals, then
// the terminal sentiment for the symbol.
func WriteDetailTable(w io.Writer, a *models.Analysis) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Pivot Points for %s (%s)\n", a.Symbol, a.Timeframe)
	fmt.Fprintln(tw, "TIMESTAMP\tOPEN\tHIGH\tLOW\tCLOSE\tVOLUME\tPIVOT\tR1\tS1\tR2\tS2\tR3\tS3\tSHORT\tMID\tLONG\t")
	for _, r := range a.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.2f\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			r.Timestamp.UTC().Format(tsLayout),
			FormatPrice(r.Open), FormatPrice(r.High), FormatPrice(r.Low), FormatPrice(r.Close),
			r.Volume,
			FormatPrice(r.Levels.Pivot),
			FormatPrice(r.Levels.R1), FormatPrice(r.Levels.S1),
			FormatPrice(r.Levels.R2), FormatPrice(r.Levels.S2),
			FormatPrice(r.Levels.R3), FormatPrice(r.Levels.S3),
			SignalLabel(r.Signals.ShortTerm), SignalLabel(r.Signals.MidTerm), SignalLabel(r.Signals.LongTerm),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	sig, _ := a.Terminal()
	_, err := fmt.Fprintf(w, "\nSentiment Summary for %s\nShort Term: %s\nMid Term: %s\nLong Term: %s\n",
		a.Symbol, SignalLabel(sig.ShortTerm), SignalLabel(sig.MidTerm), SignalLabel(sig.LongTerm))
	return err
}
