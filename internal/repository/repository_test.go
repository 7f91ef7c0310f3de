package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"PivotScreener/internal/domain/models"
	"PivotScreener/pkg/cache"
	pkgkafka "PivotScreener/pkg/kafka"
)

type fakeSource struct {
	symbols    []string
	series     map[string]models.BarSeries
	err        error
	fetchCalls int
	listCalls  int
}

func (f *fakeSource) ListSymbols(context.Context) ([]string, error) {
	f.listCalls++
	return f.symbols, f.err
}

func (f *fakeSource) FetchBars(_ context.Context, symbol string, tf models.Timeframe, _ int) (models.BarSeries, error) {
	f.fetchCalls++
	if f.err != nil {
		return models.BarSeries{Symbol: symbol, Timeframe: tf}, f.err
	}
	return f.series[symbol], nil
}

func series(symbol string, n int) models.BarSeries {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := models.BarSeries{Symbol: symbol, Timeframe: models.TF1d}
	for i := 0; i < n; i++ {
		p := float64(100 + i)
		s.Bars = append(s.Bars, models.Bar{Timestamp: t0.AddDate(0, 0, i), Open: p, High: p + 2, Low: p - 1, Close: p + 1, Volume: 10})
	}
	return s
}

func TestCachedMarketDataFetchBars(t *testing.T) {
	src := &fakeSource{series: map[string]models.BarSeries{
		"BTC/USDT": series("BTC/USDT", 3),
		"NEW/USDT": {Symbol: "NEW/USDT", Timeframe: models.TF1d},
	}}
	mc := cache.NewMemoryCache()
	defer mc.Close()
	cm := NewCachedMarketData(src, mc, time.Minute, time.Hour, nil)
	ctx := context.Background()

	first, err := cm.FetchBars(ctx, "BTC/USDT", models.TF1d, 3)
	if err != nil {
		t.Fatal(err)
	}
	second, err := cm.FetchBars(ctx, "BTC/USDT", models.TF1d, 3)
	if err != nil {
		t.Fatal(err)
	}
	if src.fetchCalls != 1 {
		t.Fatalf("source calls = %d, want 1", src.fetchCalls)
	}
	if second.Len() != 3 || second.Symbol != "BTC/USDT" || second.Timeframe != models.TF1d {
		t.Fatalf("cached series = %+v", second)
	}
	for i := range first.Bars {
		if !first.Bars[i].Timestamp.Equal(second.Bars[i].Timestamp) || first.Bars[i].Close != second.Bars[i].Close {
			t.Fatalf("bar %d differs: %+v vs %+v", i, first.Bars[i], second.Bars[i])
		}
	}

	// a different limit is a different key
	_, _ = cm.FetchBars(ctx, "BTC/USDT", models.TF1d, 30)
	if src.fetchCalls != 2 {
		t.Fatalf("source calls = %d, want 2", src.fetchCalls)
	}

	// empty series are never cached
	_, _ = cm.FetchBars(ctx, "NEW/USDT", models.TF1d, 3)
	_, _ = cm.FetchBars(ctx, "NEW/USDT", models.TF1d, 3)
	if src.fetchCalls != 4 {
		t.Fatalf("source calls = %d, want 4", src.fetchCalls)
	}

	if err := cm.Invalidate(ctx, "BTC/USDT"); err != nil {
		t.Fatal(err)
	}
	_, _ = cm.FetchBars(ctx, "BTC/USDT", models.TF1d, 3)
	if src.fetchCalls != 5 {
		t.Fatalf("source calls after invalidate = %d, want 5", src.fetchCalls)
	}
}

func TestCachedMarketDataPropagatesErrors(t *testing.T) {
	src := &fakeSource{err: models.ErrRateLimited}
	mc := cache.NewMemoryCache()
	defer mc.Close()
	cm := NewCachedMarketData(src, mc, time.Minute, time.Hour, nil)

	for i := 0; i < 2; i++ {
		if _, err := cm.FetchBars(context.Background(), "BTC/USDT", models.TF1d, 3); !errors.Is(err, models.ErrRateLimited) {
			t.Fatalf("err = %v", err)
		}
	}
	if src.fetchCalls != 2 {
		t.Fatalf("errors must not be cached, calls = %d", src.fetchCalls)
	}
}

func TestCachedMarketDataListSymbols(t *testing.T) {
	src := &fakeSource{symbols: []string{"BTC/USDT", "ETH/USDT"}}
	mc := cache.NewMemoryCache()
	defer mc.Close()
	cm := NewCachedMarketData(src, mc, time.Minute, time.Hour, nil)

	for i := 0; i < 3; i++ {
		got, err := cm.ListSymbols(context.Background())
		if err != nil || len(got) != 2 {
			t.Fatalf("symbols = %v, err = %v", got, err)
		}
	}
	if src.listCalls != 1 {
		t.Fatalf("list calls = %d, want 1", src.listCalls)
	}
}

func TestTableForTF(t *testing.T) {
	tests := []struct {
		tf      models.Timeframe
		want    string
		wantErr bool
	}{
		{models.TF1m, "market.candles_1m", false},
		{models.TF1h, "market.candles_1h", false},
		{models.TF1d, "market.candles_1d", false},
		{models.TF1w, "market.candles_1w", false},
		{models.Timeframe("5m"), "", true},
	}
	for _, tt := range tests {
		got, err := tableForTF("market", tt.tf)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("tableForTF(%s) = %q, %v", tt.tf, got, err)
		}
	}
}

func TestSchemaStatements(t *testing.T) {
	stmts := SchemaStatements("market")
	if len(stmts) != 5 {
		t.Fatalf("got %d statements, want 5", len(stmts))
	}
	if stmts[0] != "CREATE DATABASE IF NOT EXISTS market" {
		t.Errorf("first statement = %q", stmts[0])
	}
	for _, s := range stmts[1:] {
		if !strings.Contains(s, "CREATE TABLE IF NOT EXISTS market.candles_") || !strings.Contains(s, "ORDER BY (symbol, bucket)") {
			t.Errorf("unexpected DDL: %s", s)
		}
	}
	if q := latestBarsQuery("market.candles_1d"); !strings.Contains(q, "ORDER BY bucket DESC") || !strings.Contains(q, "LIMIT ?") {
		t.Errorf("query = %s", q)
	}
}

func TestReverseBars(t *testing.T) {
	s := series("X", 4)
	reverseBars(s.Bars)
	if s.Bars[0].Close != 104 || s.Bars[3].Close != 101 {
		t.Fatalf("reversed = %+v", s.Bars)
	}
}

type fakeProducer struct {
	topic string
	msgs  []pkgkafka.Message
	err   error
}

func (f *fakeProducer) PublishBatch(_ context.Context, topic string, m []pkgkafka.Message) error {
	f.topic = topic
	f.msgs = append(f.msgs, m...)
	return f.err
}

func (f *fakeProducer) Close() error { return nil }

func TestKafkaReportPublisher(t *testing.T) {
	fp := &fakeProducer{}
	p := NewKafkaReportPublisher(fp, "screener.reports")
	r := &models.ScreenerReport{
		ID:        "r-1",
		Timeframe: models.TF1d,
		Summaries: []models.InstrumentSummary{
			{Symbol: "BTC/USDT", ShortTerm: models.SignalBearish, MidTerm: models.SignalBearish, LongTerm: models.SignalBearish, Category: models.CategoryCompletelyBearish},
		},
		Diagnostics: []models.Diagnostic{
			{Symbol: "XXX/USDT", Kind: models.DiagnosticFetch, Message: "Error fetching data for XXX/USDT: boom"},
		},
	}
	if err := p.PublishReport(context.Background(), r); err != nil {
		t.Fatal(err)
	}
	if fp.topic != "screener.reports" || len(fp.msgs) != 2 {
		t.Fatalf("topic = %s, msgs = %d", fp.topic, len(fp.msgs))
	}
	if string(fp.msgs[0].Key) != "BTC/USDT" || string(fp.msgs[1].Key) != "XXX/USDT" {
		t.Fatalf("keys = %s, %s", fp.msgs[0].Key, fp.msgs[1].Key)
	}
	if fp.msgs[0].Headers["report_id"] != "r-1" {
		t.Fatalf("headers = %v", fp.msgs[0].Headers)
	}
	b, _ := json.Marshal(fp.msgs[0].Value)
	var ev SummaryEvent
	if err := json.Unmarshal(b, &ev); err != nil {
		t.Fatal(err)
	}
	if ev.Category != "CompletelyBearish" || ev.ShortTerm != "bearish" || ev.Type != "summary" {
		t.Fatalf("event = %+v", ev)
	}

	fp.err = errors.New("down")
	if err := p.PublishReport(context.Background(), r); err == nil {
		t.Fatal("expected publish error")
	}
	if err := p.PublishReport(context.Background(), &models.ScreenerReport{}); err != nil {
		t.Fatalf("empty report: %v", err)
	}
}
