package repository

import (
	"context"

	"PivotScreener/internal/domain/models"
)

// MarketData supplies instruments and their historical bars.
type MarketData interface {
	ListSymbols(ctx context.Context) ([]string, error)
	FetchBars(ctx context.Context, symbol string, tf models.Timeframe, limit int) (models.BarSeries, error)
}

// ReportPublisher distributes finished screener reports.
type ReportPublisher interface {
	PublishReport(ctx context.Context, r *models.ScreenerReport) error
	Close() error
}

type Metrics interface {
	RecordScreened(symbol string, category models.Category)
	RecordFailure(kind string)
	RecordLastClose(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
