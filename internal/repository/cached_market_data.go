package repository

import (
	"context"
	"errors"
	"time"

	"PivotScreener/internal/domain/models"
	domrepo "PivotScreener/internal/domain/repository"
	"PivotScreener/pkg/cache"
	applogger "PivotScreener/pkg/logger"
)

const (
	barsKeyPrefix = "bars"
	symbolsKey    = "symbols"
)

// CachedMarketData memoizes raw source responses. Only bars and symbol lists
// are cached; derived pivots and signals are always recomputed.
type CachedMarketData struct {
	next       domrepo.MarketData
	cache      cache.Service
	barsTTL    time.Duration
	symbolsTTL time.Duration
	l          *applogger.Logger
}

var _ domrepo.MarketData = (*CachedMarketData)(nil)

// NewCachedMarketData wraps next with c.
func NewCachedMarketData(next domrepo.MarketData, c cache.Service, barsTTL, symbolsTTL time.Duration, l *applogger.Logger) *CachedMarketData {
	if l == nil {
		l = applogger.Nop()
	}
	return &CachedMarketData{next: next, cache: c, barsTTL: barsTTL, symbolsTTL: symbolsTTL, l: l}
}

// cachedBar is the JSON shape stored under bars keys.
type cachedBar struct {
	T int64   `json:"t"`
	O float64 `json:"o"`
	H float64 `json:"h"`
	L float64 `json:"l"`
	C float64 `json:"c"`
	V float64 `json:"v"`
}

func barsKey(symbol string, tf models.Timeframe, limit int) string {
	return cache.GenerateKeyWithParams(barsKeyPrefix, symbol, tf, limit)
}

func (m *CachedMarketData) ListSymbols(ctx context.Context) ([]string, error) {
	var syms []string
	if err := m.cache.Get(ctx, symbolsKey, &syms); err == nil {
		return syms, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		m.l.Warn("cache.get failed", applogger.String("key", symbolsKey), applogger.Error(err))
	}

	syms, err := m.next.ListSymbols(ctx)
	if err != nil {
		return nil, err
	}
	if err := m.cache.Set(ctx, symbolsKey, syms, m.symbolsTTL); err != nil {
		m.l.Warn("cache.set failed", applogger.String("key", symbolsKey), applogger.Error(err))
	}
	return syms, nil
}

func (m *CachedMarketData) FetchBars(ctx context.Context, symbol string, tf models.Timeframe, limit int) (models.BarSeries, error) {
	key := barsKey(symbol, tf, limit)
	var rows []cachedBar
	if err := m.cache.Get(ctx, key, &rows); err == nil {
		m.l.Debug("cache.hit", applogger.String("key", key), applogger.Int("bars", len(rows)))
		return fromCached(symbol, tf, rows), nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		m.l.Warn("cache.get failed", applogger.String("key", key), applogger.Error(err))
	}

	series, err := m.next.FetchBars(ctx, symbol, tf, limit)
	if err != nil {
		return series, err
	}
	// empty responses are not cached so a listing that appears later is picked up
	if series.Len() > 0 {
		if err := m.cache.Set(ctx, key, toCached(series), m.barsTTL); err != nil {
			m.l.Warn("cache.set failed", applogger.String("key", key), applogger.Error(err))
		}
	}
	return series, nil
}

// Invalidate drops every cached series of symbol across timeframes and limits.
func (m *CachedMarketData) Invalidate(ctx context.Context, symbol string) error {
	return m.cache.DeleteByPattern(ctx, cache.BuildPattern(cache.GenerateKeyWithParams(barsKeyPrefix, symbol)+":"))
}

func toCached(s models.BarSeries) []cachedBar {
	out := make([]cachedBar, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = cachedBar{T: b.Timestamp.UnixMilli(), O: b.Open, H: b.High, L: b.Low, C: b.Close, V: b.Volume}
	}
	return out
}

func fromCached(symbol string, tf models.Timeframe, rows []cachedBar) models.BarSeries {
	bars := make([]models.Bar, len(rows))
	for i, r := range rows {
		bars[i] = models.Bar{Timestamp: time.UnixMilli(r.T).UTC(), Open: r.O, High: r.H, Low: r.L, Close: r.C, Volume: r.V}
	}
	return models.BarSeries{Symbol: symbol, Timeframe: tf, Bars: bars}
}
