package presenter

import (
	"math"
	"time"

	"PivotScreener/internal/domain/models"
	"PivotScreener/internal/services/indicators"
)

type SummaryDTO struct {
	Symbol        string    `json:"symbol"`
	ShortTerm     string    `json:"short_term"`
	MidTerm       string    `json:"mid_term"`
	LongTerm      string    `json:"long_term"`
	ShortTermHint string    `json:"short_term_hint"`
	MidTermHint   string    `json:"mid_term_hint"`
	LongTermHint  string    `json:"long_term_hint"`
	Category      string    `json:"category"`
	CategoryHint  string    `json:"category_hint"`
	LastClose     string    `json:"last_close"`
	LastBarAt     time.Time `json:"last_bar_at"`
	Bars          int       `json:"bars"`
}

type DiagnosticDTO struct {
	Symbol  string `json:"symbol"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type ReportDTO struct {
	ID          string          `json:"id"`
	Timeframe   string          `json:"timeframe"`
	Limit       int             `json:"limit"`
	GeneratedAt time.Time       `json:"generated_at"`
	Summaries   []SummaryDTO    `json:"summaries"`
	Diagnostics []DiagnosticDTO `json:"diagnostics"`
	Categories  map[string]int  `json:"categories"`
}

// DetailRowDTO is one bar of the detail view. Trailing means are null until
// their window has filled.
type DetailRowDTO struct {
	Timestamp    time.Time `json:"timestamp"`
	Open         string    `json:"open"`
	High         string    `json:"high"`
	Low          string    `json:"low"`
	Close        string    `json:"close"`
	Volume       float64   `json:"volume"`
	Pivot        string    `json:"pivot"`
	R1           string    `json:"r1"`
	S1           string    `json:"s1"`
	R2           string    `json:"r2"`
	S2           string    `json:"s2"`
	R3           string    `json:"r3"`
	S3           string    `json:"s3"`
	MidTermMean  *string   `json:"mid_term_mean"`
	LongTermMean *string   `json:"long_term_mean"`
	ShortTerm    string    `json:"short_term"`
	MidTerm      string    `json:"mid_term"`
	LongTerm     string    `json:"long_term"`
}

type DetailDTO struct {
	Symbol    string         `json:"symbol"`
	Timeframe string         `json:"timeframe"`
	ShortTerm string         `json:"short_term"`
	MidTerm   string         `json:"mid_term"`
	LongTerm  string         `json:"long_term"`
	Category  string         `json:"category"`
	Rows      []DetailRowDTO `json:"rows"`
}

func Summary(s models.InstrumentSummary) SummaryDTO {
	return SummaryDTO{
		Symbol:        s.Symbol,
		ShortTerm:     SignalLabel(s.ShortTerm),
		MidTerm:       SignalLabel(s.MidTerm),
		LongTerm:      SignalLabel(s.LongTerm),
		ShortTermHint: SignalHint(s.ShortTerm),
		MidTermHint:   SignalHint(s.MidTerm),
		LongTermHint:  SignalHint(s.LongTerm),
		Category:      CategoryLabel(s.Category),
		CategoryHint:  CategoryHint(s.Category),
		LastClose:     FormatPrice(s.LastClose),
		LastBarAt:     s.LastBarAt,
		Bars:          s.Bars,
	}
}

func Report(r *models.ScreenerReport) ReportDTO {
	out := ReportDTO{
		ID:          r.ID,
		Timeframe:   string(r.Timeframe),
		Limit:       r.Limit,
		GeneratedAt: r.GeneratedAt,
		Summaries:   make([]SummaryDTO, 0, len(r.Summaries)),
		Diagnostics: make([]DiagnosticDTO, 0, len(r.Diagnostics)),
		Categories:  map[string]int{},
	}
	for _, s := range r.Summaries {
		out.Summaries = append(out.Summaries, Summary(s))
	}
	for _, d := range r.Diagnostics {
		out.Diagnostics = append(out.Diagnostics, DiagnosticDTO{Symbol: d.Symbol, Kind: string(d.Kind), Message: d.Message})
	}
	for c, n := range r.CategoryCounts() {
		out.Categories[c.String()] = n
	}
	return out
}

func Detail(a *models.Analysis) DetailDTO {
	out := DetailDTO{
		Symbol:    a.Symbol,
		Timeframe: string(a.Timeframe),
		Rows:      make([]DetailRowDTO, 0, len(a.Rows)),
	}
	sig, _ := a.Terminal()
	out.ShortTerm = SignalLabel(sig.ShortTerm)
	out.MidTerm = SignalLabel(sig.MidTerm)
	out.LongTerm = SignalLabel(sig.LongTerm)
	cat, _ := indicators.Categorize(sig)
	out.Category = CategoryLabel(cat)

	for _, r := range a.Rows {
		out.Rows = append(out.Rows, DetailRowDTO{
			Timestamp:    r.Timestamp,
			Open:         FormatPrice(r.Open),
			High:         FormatPrice(r.High),
			Low:          FormatPrice(r.Low),
			Close:        FormatPrice(r.Close),
			Volume:       r.Volume,
			Pivot:        FormatPrice(r.Levels.Pivot),
			R1:           FormatPrice(r.Levels.R1),
			S1:           FormatPrice(r.Levels.S1),
			R2:           FormatPrice(r.Levels.R2),
			S2:           FormatPrice(r.Levels.S2),
			R3:           FormatPrice(r.Levels.R3),
			S3:           FormatPrice(r.Levels.S3),
			MidTermMean:  optionalPrice(r.MidTermMean),
			LongTermMean: optionalPrice(r.LongTermMean),
			ShortTerm:    SignalLabel(r.Signals.ShortTerm),
			MidTerm:      SignalLabel(r.Signals.MidTerm),
			LongTerm:     SignalLabel(r.Signals.LongTerm),
		})
	}
	return out
}

func optionalPrice(v float64) *string {
	if math.IsNaN(v) {
		return nil
	}
	s := FormatPrice(v)
	return &s
}
