package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"PivotScreener/internal/domain/models"
	domrepo "PivotScreener/internal/domain/repository"
	"PivotScreener/internal/services/indicators"
	applogger "PivotScreener/pkg/logger"
	"PivotScreener/pkg/util"

	"github.com/google/uuid"
)

// Screener runs the pivot and sentiment pipeline over market data.
type Screener struct {
	source  domrepo.MarketData
	metrics domrepo.Metrics
	workers int
	timeout time.Duration
	log     *applogger.Logger
	now     func() time.Time
	newID   func() string
}

// ScreenerOption configures Screener.
type ScreenerOption func(*Screener)

// WithWorkers bounds how many symbols are fetched and analyzed concurrently.
func WithWorkers(n int) ScreenerOption {
	return func(s *Screener) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithSymbolTimeout caps the fetch of a single symbol. Zero disables it.
func WithSymbolTimeout(d time.Duration) ScreenerOption {
	return func(s *Screener) { s.timeout = d }
}

func WithScreenerMetrics(m domrepo.Metrics) ScreenerOption {
	return func(s *Screener) {
		if m != nil {
			s.metrics = m
		}
	}
}

func WithScreenerLogger(l *applogger.Logger) ScreenerOption {
	return func(s *Screener) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock overrides the report timestamp source.
func WithClock(now func() time.Time) ScreenerOption {
	return func(s *Screener) { s.now = now }
}

func NewScreener(source domrepo.MarketData, opts ...ScreenerOption) *Screener {
	s := &Screener{
		source:  source,
		metrics: noopMetrics{},
		workers: 4,
		log:     applogger.Nop(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type slot struct {
	summary *models.InstrumentSummary
	diag    *models.Diagnostic
}

// BuildReport screens symbols and never fails as a whole: each symbol either
// contributes a summary or a diagnostic. Summaries and diagnostics keep the
// input order; repeated symbols are screened once at their first position.
func (s *Screener) BuildReport(ctx context.Context, symbols []string, tf models.Timeframe, limit int) *models.ScreenerReport {
	start := time.Now()
	uniq := dedupe(symbols)
	report := &models.ScreenerReport{
		ID:          s.newID(),
		Timeframe:   tf,
		Limit:       limit,
		GeneratedAt: s.now().UTC(),
		Summaries:   make([]models.InstrumentSummary, 0, len(uniq)),
	}
	if len(uniq) == 0 {
		return report
	}

	slots := make([]slot, len(uniq))
	jobs := make(chan int)
	workers := s.workers
	if workers > len(uniq) {
		workers = len(uniq)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				slots[i] = s.screenOne(ctx, uniq[i], tf, limit)
			}
		}()
	}
	for i := range uniq {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, sl := range slots {
		if sl.summary != nil {
			report.Summaries = append(report.Summaries, *sl.summary)
		}
		if sl.diag != nil {
			report.Diagnostics = append(report.Diagnostics, *sl.diag)
		}
	}

	s.metrics.RecordLatency("build_report", time.Since(start).Seconds())
	s.log.Info("screener.report_built",
		applogger.String("report_id", report.ID),
		applogger.String("tf", string(tf)),
		applogger.Int("limit", limit),
		applogger.Int("symbols", len(uniq)),
		applogger.Int("summaries", len(report.Summaries)),
		applogger.Int("diagnostics", len(report.Diagnostics)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return report
}

func (s *Screener) screenOne(ctx context.Context, symbol string, tf models.Timeframe, limit int) slot {
	start := time.Now()
	defer func() { s.metrics.RecordLatency("screen_symbol", time.Since(start).Seconds()) }()

	series, err := s.fetch(ctx, symbol, tf, limit)
	if err != nil {
		d := diagnose(symbol, err)
		s.metrics.RecordFailure(string(d.Kind))
		s.log.Warn("screener.symbol_failed",
			applogger.String("symbol", symbol),
			applogger.String("kind", string(d.Kind)),
			applogger.Error(err),
		)
		return slot{diag: &d}
	}

	sum, err := indicators.Summarize(indicators.Analyze(series))
	if err != nil {
		// too little history for every horizon; the summary keeps what is defined
		s.log.Debug("screener.insufficient_history",
			applogger.String("symbol", symbol),
			applogger.Int("bars", series.Len()),
		)
	}
	sum.Analysis = nil
	s.metrics.RecordScreened(symbol, sum.Category)
	s.metrics.RecordLastClose(symbol, sum.LastClose)
	return slot{summary: &sum}
}

// fetch retrieves and validates one series. Errors are *models.FetchError or
// *models.MalformedBarError.
func (s *Screener) fetch(ctx context.Context, symbol string, tf models.Timeframe, limit int) (models.BarSeries, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	series, err := s.source.FetchBars(ctx, symbol, tf, limit)
	if err != nil {
		return series, &models.FetchError{Symbol: symbol, Err: err}
	}
	if series.Len() == 0 {
		return series, &models.FetchError{Symbol: symbol, Err: models.ErrEmptySeries}
	}
	series.Symbol = symbol
	series.Timeframe = tf
	if err := series.Validate(); err != nil {
		return series, err
	}
	return series, nil
}

// diagnose turns a per-symbol failure into a report diagnostic.
func diagnose(symbol string, err error) models.Diagnostic {
	var mb *models.MalformedBarError
	var fe *models.FetchError
	switch {
	case errors.As(err, &mb):
		return models.Diagnostic{Symbol: symbol, Kind: models.DiagnosticMalformed, Message: fmt.Sprintf("Malformed data for %s: %v", symbol, mb)}
	case errors.Is(err, models.ErrEmptySeries):
		return models.Diagnostic{Symbol: symbol, Kind: models.DiagnosticEmpty, Message: fmt.Sprintf("Error fetching data for %s: %v", symbol, models.ErrEmptySeries)}
	case errors.As(err, &fe):
		return models.Diagnostic{Symbol: symbol, Kind: models.DiagnosticFetch, Message: fmt.Sprintf("Error fetching data for %s: %v", symbol, fe.Err)}
	default:
		return models.Diagnostic{Symbol: symbol, Kind: models.DiagnosticFetch, Message: fmt.Sprintf("Error fetching data for %s: %v", symbol, err)}
	}
}

// Detail returns the full augmented series for one symbol.
func (s *Screener) Detail(ctx context.Context, symbol string, tf models.Timeframe, limit int) (*models.Analysis, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, &models.FetchError{Symbol: symbol, Err: models.ErrUnknownSymbol}
	}
	series, err := s.fetch(ctx, symbol, tf, limit)
	if err != nil {
		return nil, err
	}
	return indicators.Analyze(series), nil
}

// Symbols lists the instruments offered by the source, optionally only those
// quoted in quote (e.g. "USDT").
func (s *Screener) Symbols(ctx context.Context, quote string) ([]string, error) {
	all, err := s.source.ListSymbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("list symbols: %w", err)
	}
	quote = strings.ToUpper(strings.TrimSpace(quote))
	if quote == "" {
		return all, nil
	}
	suffix := "/" + quote
	out := make([]string, 0, len(all))
	for _, sym := range all {
		if strings.HasSuffix(sym, suffix) {
			out = append(out, sym)
		}
	}
	return out, nil
}

func dedupe(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, sym := range util.TrimSymbols(symbols) {
		if _, ok := seen[sym]; ok {
			continue
		}
		seen[sym] = struct{}{}
		out = append(out, sym)
	}
	return out
}

type noopMetrics struct{}

func (noopMetrics) RecordScreened(string, models.Category) {}
func (noopMetrics) RecordFailure(string)                   {}
func (noopMetrics) RecordLastClose(string, float64)        {}
func (noopMetrics) RecordLatency(string, float64)          {}
