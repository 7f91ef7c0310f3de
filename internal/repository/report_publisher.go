package repository

import (
	"context"
	"fmt"
	"time"

	"PivotScreener/internal/domain/models"
	domrepo "PivotScreener/internal/domain/repository"
	pkgkafka "PivotScreener/pkg/kafka"
)

// batchPublisher is the subset of *kafka.Producer used for reports.
type batchPublisher interface {
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// KafkaReportPublisher emits one message per summary and one per diagnostic,
// keyed by symbol so a symbol's rows stay on one partition.
type KafkaReportPublisher struct {
	producer batchPublisher
	topic    string
}

var _ domrepo.ReportPublisher = (*KafkaReportPublisher)(nil)

func NewKafkaReportPublisher(producer batchPublisher, topic string) *KafkaReportPublisher {
	return &KafkaReportPublisher{producer: producer, topic: topic}
}

// SummaryEvent is the payload published for each screened symbol.
type SummaryEvent struct {
	Type        string    `json:"type"`
	ReportID    string    `json:"report_id"`
	Symbol      string    `json:"symbol"`
	Timeframe   string    `json:"timeframe"`
	ShortTerm   string    `json:"short_term"`
	MidTerm     string    `json:"mid_term"`
	LongTerm    string    `json:"long_term"`
	Category    string    `json:"category"`
	LastClose   float64   `json:"last_close"`
	LastBarAt   time.Time `json:"last_bar_at"`
	GeneratedAt time.Time `json:"generated_at"`
}

// DiagnosticEvent is the payload published for each symbol left out of a report.
type DiagnosticEvent struct {
	Type        string    `json:"type"`
	ReportID    string    `json:"report_id"`
	Symbol      string    `json:"symbol"`
	Kind        string    `json:"kind"`
	Message     string    `json:"message"`
	GeneratedAt time.Time `json:"generated_at"`
}

func (p *KafkaReportPublisher) PublishReport(ctx context.Context, r *models.ScreenerReport) error {
	msgs := reportMessages(r)
	if len(msgs) == 0 {
		return nil
	}
	if err := p.producer.PublishBatch(ctx, p.topic, msgs); err != nil {
		return fmt.Errorf("publish report %s: %w", r.ID, err)
	}
	return nil
}

func reportMessages(r *models.ScreenerReport) []pkgkafka.Message {
	if r == nil {
		return nil
	}
	headers := map[string]string{"report_id": r.ID}
	msgs := make([]pkgkafka.Message, 0, len(r.Summaries)+len(r.Diagnostics))
	for _, s := range r.Summaries {
		msgs = append(msgs, pkgkafka.Message{
			Key: []byte(s.Symbol),
			Value: SummaryEvent{
				Type:        "summary",
				ReportID:    r.ID,
				Symbol:      s.Symbol,
				Timeframe:   string(r.Timeframe),
				ShortTerm:   s.ShortTerm.String(),
				MidTerm:     s.MidTerm.String(),
				LongTerm:    s.LongTerm.String(),
				Category:    s.Category.String(),
				LastClose:   s.LastClose,
				LastBarAt:   s.LastBarAt,
				GeneratedAt: r.GeneratedAt,
			},
			Headers: headers,
		})
	}
	for _, d := range r.Diagnostics {
		msgs = append(msgs, pkgkafka.Message{
			Key: []byte(d.Symbol),
			Value: DiagnosticEvent{
				Type:        "diagnostic",
				ReportID:    r.ID,
				Symbol:      d.Symbol,
				Kind:        string(d.Kind),
				Message:     d.Message,
				GeneratedAt: r.GeneratedAt,
			},
			Headers: headers,
		})
	}
	return msgs
}

func (p *KafkaReportPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
