package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"PivotScreener/internal/domain/models"
	domrepo "PivotScreener/internal/domain/repository"
	pkgkafka "PivotScreener/pkg/kafka"
	applogger "PivotScreener/pkg/logger"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

// ScreenRequestHandler consumes screen requests from Kafka, builds the
// report and publishes it.
type ScreenRequestHandler struct {
	topic     string
	screener  *Screener
	publisher domrepo.ReportPublisher
	metrics   domrepo.Metrics
	validate  *validator.Validate
	log       *applogger.Logger
}

var _ pkgkafka.MessageHandler = (*ScreenRequestHandler)(nil)

func NewScreenRequestHandler(topic string, screener *Screener, publisher domrepo.ReportPublisher, metrics domrepo.Metrics, l *applogger.Logger) *ScreenRequestHandler {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &ScreenRequestHandler{
		topic:     topic,
		screener:  screener,
		publisher: publisher,
		metrics:   metrics,
		validate:  validator.New(),
		log:       l,
	}
}

func (h *ScreenRequestHandler) Topic() string { return h.topic }

// incoming message schema: {symbols: [...], timeframe, limit}
func (h *ScreenRequestHandler) Handle(ctx context.Context, b []byte) error {
	req, err := h.decode(b)
	if err != nil {
		h.metrics.RecordFailure("request_invalid")
		return err
	}

	report := h.screener.BuildReport(ctx, req.Symbols, models.Timeframe(req.Timeframe), req.Limit)
	if err := h.publisher.PublishReport(ctx, report); err != nil {
		h.metrics.RecordFailure("publish")
		return err
	}
	h.log.Info("screener.request_served",
		applogger.String("report_id", report.ID),
		applogger.String("trace_id", pkgkafka.TraceIDFromContext(ctx)),
		applogger.Int("summaries", len(report.Summaries)),
		applogger.Int("diagnostics", len(report.Diagnostics)),
	)
	return nil
}

func (h *ScreenRequestHandler) decode(b []byte) (*models.ScreenRequest, error) {
	var req models.ScreenRequest
	if err := defaults.Set(&req); err != nil {
		return nil, fmt.Errorf("request defaults: %w", err)
	}
	if err := json.Unmarshal(b, &req); err != nil {
		return nil, fmt.Errorf("decode screen request: %w", err)
	}
	if err := h.validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("invalid screen request: %w", err)
	}
	return &req, nil
}
