package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"PivotScreener/internal/domain/models"
	domrepo "PivotScreener/internal/domain/repository"
	pkgch "PivotScreener/pkg/clickhouse"
	applogger "PivotScreener/pkg/logger"
)

// CHBarStore implements MarketData over pre-aggregated candle tables
// (candles_1m, candles_1h, candles_1d, candles_1w) in one ClickHouse database.
type CHBarStore struct {
	db       *sql.DB
	database string
	l        *applogger.Logger
}

var _ domrepo.MarketData = (*CHBarStore)(nil)

func NewCHBarStore(ch *pkgch.Client, l *applogger.Logger) *CHBarStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHBarStore{db: ch.DB(), database: ch.Database(), l: l}
}

// SchemaStatements returns the idempotent DDL for database and its candle tables.
func SchemaStatements(database string) []string {
	stmts := []string{fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database)}
	for _, tf := range []models.Timeframe{models.TF1m, models.TF1h, models.TF1d, models.TF1w} {
		table, _ := tableForTF(database, tf)
		stmts = append(stmts, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    bucket DateTime64(3, 'UTC'),
    symbol LowCardinality(String),
    open   Float64,
    high   Float64,
    low    Float64,
    close  Float64,
    vol    Float64
) ENGINE = ReplacingMergeTree
ORDER BY (symbol, bucket)`, table))
	}
	return stmts
}

// ListSymbols returns the symbols present in the daily table.
func (s *CHBarStore) ListSymbols(ctx context.Context) ([]string, error) {
	table, _ := tableForTF(s.database, models.TF1d)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT DISTINCT symbol FROM %s ORDER BY symbol", table))
	if err != nil {
		s.l.Error("clickhouse list_symbols query error", applogger.String("table", table), applogger.Error(err))
		return nil, fmt.Errorf("list symbols: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		out = append(out, sym)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// FetchBars returns the latest limit candles of symbol in ascending order.
func (s *CHBarStore) FetchBars(ctx context.Context, symbol string, tf models.Timeframe, limit int) (models.BarSeries, error) {
	series := models.BarSeries{Symbol: symbol, Timeframe: tf}
	start := time.Now()
	table, err := tableForTF(s.database, tf)
	if err != nil {
		return series, err
	}
	rows, err := s.db.QueryContext(ctx, latestBarsQuery(table), symbol, limit)
	if err != nil {
		s.l.Error("clickhouse latest_bars query error",
			applogger.String("table", table),
			applogger.String("symbol", symbol),
			applogger.Int("limit", limit),
			applogger.Error(err),
		)
		return series, fmt.Errorf("get latest bars: %w", err)
	}
	defer rows.Close()

	bars := make([]models.Bar, 0, limit)
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Timestamp, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return series, fmt.Errorf("scan bar: %w", err)
		}
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return series, fmt.Errorf("rows: %w", err)
	}
	reverseBars(bars)
	series.Bars = bars

	s.l.Debug("clickhouse latest_bars ok",
		applogger.String("table", table),
		applogger.String("symbol", symbol),
		applogger.Int("rows", len(bars)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return series, nil
}

func latestBarsQuery(table string) string {
	return fmt.Sprintf(`
        SELECT bucket, open, high, low, close, vol
        FROM %s FINAL
        WHERE symbol = ?
        ORDER BY bucket DESC
        LIMIT ?
    `, table)
}

func reverseBars(b []models.Bar) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

func tableForTF(database string, tf models.Timeframe) (string, error) {
	switch tf {
	case models.TF1m, models.TF1h, models.TF1d, models.TF1w:
		return fmt.Sprintf("%s.candles_%s", database, tf), nil
	default:
		return "", fmt.Errorf("unsupported timeframe: %s", tf)
	}
}
