package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"PivotScreener/internal/domain/models"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// trend builds n daily bars drifting by step, closing at the low when falling
// and at the high when rising.
func trend(n int, start, step float64) models.BarSeries {
	s := models.BarSeries{Timeframe: models.TF1d}
	for i := 0; i < n; i++ {
		mid := start + step*float64(i)
		b := models.Bar{Timestamp: t0.AddDate(0, 0, i), Open: mid, High: mid + 1, Low: mid - 1, Volume: 1}
		if step < 0 {
			b.Close = b.Low
		} else {
			b.Close = b.High
		}
		s.Bars = append(s.Bars, b)
	}
	return s
}

type fakeSource struct {
	mu      sync.Mutex
	series  map[string]models.BarSeries
	errs    map[string]error
	symbols []string
	calls   map[string]int
	delay   map[string]time.Duration
}

func (f *fakeSource) ListSymbols(context.Context) ([]string, error) { return f.symbols, nil }

func (f *fakeSource) FetchBars(ctx context.Context, symbol string, tf models.Timeframe, _ int) (models.BarSeries, error) {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[symbol]++
	d := f.delay[symbol]
	f.mu.Unlock()
	if d > 0 {
		time.Sleep(d)
	}
	if err := f.errs[symbol]; err != nil {
		return models.BarSeries{}, err
	}
	s := f.series[symbol]
	s.Timeframe = tf
	return s, nil
}

type recMetrics struct {
	mu       sync.Mutex
	screened map[string]models.Category
	failures map[string]int
}

func newRecMetrics() *recMetrics {
	return &recMetrics{screened: map[string]models.Category{}, failures: map[string]int{}}
}

func (m *recMetrics) RecordScreened(symbol string, c models.Category) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.screened[symbol] = c
}

func (m *recMetrics) RecordFailure(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[kind]++
}

func (m *recMetrics) RecordLastClose(string, float64) {}
func (m *recMetrics) RecordLatency(string, float64)   {}

func TestBuildReportBearishAndFailure(t *testing.T) {
	src := &fakeSource{
		series: map[string]models.BarSeries{"A": trend(40, 200, -2)},
		errs:   map[string]error{"B": errors.New("connection refused")},
	}
	m := newRecMetrics()
	s := NewScreener(src, WithScreenerMetrics(m), WithClock(func() time.Time { return t0 }))

	r := s.BuildReport(context.Background(), []string{"A", "B"}, models.TF1d, 40)

	if len(r.Summaries) != 1 || r.Summaries[0].Symbol != "A" {
		t.Fatalf("summaries = %+v", r.Summaries)
	}
	sum := r.Summaries[0]
	if sum.Category != models.CategoryCompletelyBearish {
		t.Fatalf("category = %v", sum.Category)
	}
	if sum.ShortTerm != models.SignalBearish || sum.MidTerm != models.SignalBearish || sum.LongTerm != models.SignalBearish {
		t.Fatalf("signals = %v/%v/%v", sum.ShortTerm, sum.MidTerm, sum.LongTerm)
	}
	if sum.Analysis != nil {
		t.Error("report summaries should not carry the full analysis")
	}
	if len(r.Diagnostics) != 1 {
		t.Fatalf("diagnostics = %+v", r.Diagnostics)
	}
	d := r.Diagnostics[0]
	if d.Symbol != "B" || d.Kind != models.DiagnosticFetch || d.Message != "Error fetching data for B: connection refused" {
		t.Fatalf("diagnostic = %+v", d)
	}
	if r.ID == "" || !r.GeneratedAt.Equal(t0) || r.Timeframe != models.TF1d || r.Limit != 40 {
		t.Fatalf("report header = %s %v %s %d", r.ID, r.GeneratedAt, r.Timeframe, r.Limit)
	}
	if m.screened["A"] != models.CategoryCompletelyBearish || m.failures["fetch"] != 1 {
		t.Fatalf("metrics = %+v %+v", m.screened, m.failures)
	}
}

func TestBuildReportPreservesInputOrder(t *testing.T) {
	src := &fakeSource{
		series: map[string]models.BarSeries{
			"A": trend(40, 200, -2),
			"B": trend(40, 100, 2),
			"C": trend(40, 50, -1),
			"D": trend(40, 10, 1),
		},
		errs: map[string]error{"X": errors.New("down"), "Y": errors.New("down")},
		// slow early symbols so completion order differs from input order
		delay: map[string]time.Duration{"A": 30 * time.Millisecond, "X": 20 * time.Millisecond},
	}
	s := NewScreener(src, WithWorkers(8))

	orders := [][]string{
		{"A", "X", "B", "C", "Y", "D"},
		{"D", "Y", "C", "B", "X", "A"},
	}
	for _, in := range orders {
		r := s.BuildReport(context.Background(), in, models.TF1d, 40)
		var gotSum, gotDiag, wantSum, wantDiag []string
		for _, sym := range in {
			if sym == "X" || sym == "Y" {
				wantDiag = append(wantDiag, sym)
			} else {
				wantSum = append(wantSum, sym)
			}
		}
		for _, x := range r.Summaries {
			gotSum = append(gotSum, x.Symbol)
		}
		for _, x := range r.Diagnostics {
			gotDiag = append(gotDiag, x.Symbol)
		}
		if strings.Join(gotSum, ",") != strings.Join(wantSum, ",") {
			t.Errorf("summaries = %v, want %v", gotSum, wantSum)
		}
		if strings.Join(gotDiag, ",") != strings.Join(wantDiag, ",") {
			t.Errorf("diagnostics = %v, want %v", gotDiag, wantDiag)
		}
	}
}

func TestBuildReportEdgeCases(t *testing.T) {
	nan := trend(40, 100, 1)
	nan.Bars[10].Close = math.NaN()
	src := &fakeSource{series: map[string]models.BarSeries{
		"SHORT": trend(5, 100, 1),
		"EMPTY": {},
		"NAN":   nan,
		"OK":    trend(40, 100, 1),
	}}
	s := NewScreener(src)

	if r := s.BuildReport(context.Background(), nil, models.TF1d, 365); len(r.Summaries) != 0 || len(r.Diagnostics) != 0 {
		t.Fatalf("empty input report = %+v", r)
	}

	r := s.BuildReport(context.Background(), []string{"SHORT", "EMPTY", "NAN", "OK", " OK ", "OK\t"}, models.TF1d, 365)
	if src.calls["OK"] != 1 {
		t.Fatalf("duplicate symbol fetched %d times", src.calls["OK"])
	}
	if len(r.Summaries) != 2 || r.Summaries[0].Symbol != "SHORT" || r.Summaries[1].Symbol != "OK" {
		t.Fatalf("summaries = %+v", r.Summaries)
	}
	short := r.Summaries[0]
	if !short.ShortTerm.Defined() || short.MidTerm.Defined() || short.LongTerm.Defined() {
		t.Fatalf("5-bar signals = %v/%v/%v", short.ShortTerm, short.MidTerm, short.LongTerm)
	}
	if short.Category != models.CategoryUndetermined || short.Bars != 5 {
		t.Fatalf("5-bar summary = %+v", short)
	}
	if r.Summaries[1].Category != models.CategoryCompletelyBullish {
		t.Fatalf("uptrend category = %v", r.Summaries[1].Category)
	}

	if len(r.Diagnostics) != 2 {
		t.Fatalf("diagnostics = %+v", r.Diagnostics)
	}
	if d := r.Diagnostics[0]; d.Symbol != "EMPTY" || d.Kind != models.DiagnosticEmpty {
		t.Errorf("empty diagnostic = %+v", d)
	}
	if d := r.Diagnostics[1]; d.Symbol != "NAN" || d.Kind != models.DiagnosticMalformed || !strings.Contains(d.Message, "close") {
		t.Errorf("malformed diagnostic = %+v", d)
	}
}

func TestDetail(t *testing.T) {
	src := &fakeSource{
		series: map[string]models.BarSeries{"BTC/USDT": trend(35, 100, -1)},
		errs:   map[string]error{"BAD/USDT": models.ErrUnknownSymbol},
	}
	s := NewScreener(src)

	a, err := s.Detail(context.Background(), " BTC/USDT ", models.TF1d, 35)
	if err != nil {
		t.Fatal(err)
	}
	if a.Symbol != "BTC/USDT" || len(a.Rows) != 35 {
		t.Fatalf("analysis = %s rows %d", a.Symbol, len(a.Rows))
	}
	if !math.IsNaN(a.Rows[28].LongTermMean) || math.IsNaN(a.Rows[29].LongTermMean) {
		t.Fatal("long term mean must be defined from index 29")
	}

	_, err = s.Detail(context.Background(), "BAD/USDT", models.TF1d, 35)
	var fe *models.FetchError
	if !errors.As(err, &fe) || !errors.Is(err, models.ErrUnknownSymbol) {
		t.Fatalf("err = %v", err)
	}
}

func TestSymbolSpellingIsKept(t *testing.T) {
	src := &fakeSource{series: map[string]models.BarSeries{"btc/usdt": trend(40, 100, 1)}}
	s := NewScreener(src)

	r := s.BuildReport(context.Background(), []string{"btc/usdt", " btc/usdt", "BTC/USDT"}, models.TF1d, 40)
	if src.calls["btc/usdt"] != 1 || src.calls["BTC/USDT"] != 1 {
		t.Fatalf("fetches = %v", src.calls)
	}
	if len(r.Summaries) != 1 || r.Summaries[0].Symbol != "btc/usdt" {
		t.Fatalf("summaries = %+v", r.Summaries)
	}
	if len(r.Diagnostics) != 1 || r.Diagnostics[0].Symbol != "BTC/USDT" {
		t.Fatalf("diagnostics = %+v", r.Diagnostics)
	}

	a, err := s.Detail(context.Background(), "btc/usdt", models.TF1d, 40)
	if err != nil || a.Symbol != "btc/usdt" {
		t.Fatalf("detail = %v, %v", a, err)
	}
}

func TestSymbols(t *testing.T) {
	src := &fakeSource{symbols: []string{"BTC/USDT", "ETH/BTC", "ETH/USDT"}}
	s := NewScreener(src)

	all, _ := s.Symbols(context.Background(), "")
	if len(all) != 3 {
		t.Fatalf("all = %v", all)
	}
	usdt, _ := s.Symbols(context.Background(), "usdt")
	if len(usdt) != 2 || usdt[0] != "BTC/USDT" || usdt[1] != "ETH/USDT" {
		t.Fatalf("usdt = %v", usdt)
	}
}

type fakePublisher struct {
	reports []*models.ScreenerReport
	err     error
}

func (p *fakePublisher) PublishReport(_ context.Context, r *models.ScreenerReport) error {
	p.reports = append(p.reports, r)
	return p.err
}

func (p *fakePublisher) Close() error { return nil }

func TestScreenRequestHandler(t *testing.T) {
	src := &fakeSource{series: map[string]models.BarSeries{"BTC/USDT": trend(40, 100, 1)}}
	pub := &fakePublisher{}
	h := NewScreenRequestHandler("screener.requests", NewScreener(src), pub, nil, nil)

	if h.Topic() != "screener.requests" {
		t.Fatalf("topic = %s", h.Topic())
	}

	body, _ := json.Marshal(map[string]interface{}{"symbols": []string{"BTC/USDT"}})
	if err := h.Handle(context.Background(), body); err != nil {
		t.Fatal(err)
	}
	if len(pub.reports) != 1 {
		t.Fatalf("published %d reports", len(pub.reports))
	}
	r := pub.reports[0]
	if r.Timeframe != models.TF1d || r.Limit != 365 || len(r.Summaries) != 1 {
		t.Fatalf("report = %+v", r)
	}

	bad := []string{
		`not json`,
		`{"symbols":[]}`,
		`{"symbols":["BTC/USDT"],"timeframe":"5m"}`,
		`{"symbols":["BTC/USDT"],"limit":5000}`,
	}
	for _, b := range bad {
		if err := h.Handle(context.Background(), []byte(b)); err == nil {
			t.Errorf("Handle(%s) should fail", b)
		}
	}

	pub.err = errors.New("kafka down")
	if err := h.Handle(context.Background(), body); err == nil {
		t.Fatal("expected publish error")
	}
}
