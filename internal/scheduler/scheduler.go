package scheduler

import (
	"context"
	"fmt"
	"sync"

	"PivotScreener/internal/domain/models"
	domrepo "PivotScreener/internal/domain/repository"
	applogger "PivotScreener/pkg/logger"

	"github.com/robfig/cron/v3"
)

// ReportBuilder is the part of the screener the scheduler drives.
type ReportBuilder interface {
	BuildReport(ctx context.Context, symbols []string, tf models.Timeframe, limit int) *models.ScreenerReport
}

// Job describes one periodic screening run.
type Job struct {
	Spec      string
	Symbols   []string
	Timeframe models.Timeframe
	Limit     int
}

// Scheduler runs the screener on a cron schedule (seconds field enabled).
// Overlapping runs are skipped, whether started by cron or by hand.
type Scheduler struct {
	cron      *cron.Cron
	job       Job
	wrapped   cron.Job
	triggered sync.WaitGroup
	builder   ReportBuilder
	publisher domrepo.ReportPublisher
	log       *applogger.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewScheduler creates a scheduler. publisher may be nil, in which case
// reports are only logged.
func NewScheduler(builder ReportBuilder, publisher domrepo.ReportPublisher, l *applogger.Logger) *Scheduler {
	if l == nil {
		l = applogger.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:      cron.New(cron.WithSeconds()),
		builder:   builder,
		publisher: publisher,
		log:       l,
		ctx:       ctx,
		cancel:    cancel,
	}
	s.wrapped = cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).
		Then(cron.FuncJob(func() { s.run(s.ctx) }))
	return s
}

// Register adds the screening job.
func (s *Scheduler) Register(job Job) error {
	s.job = job
	if _, err := s.cron.AddJob(job.Spec, s.wrapped); err != nil {
		return fmt.Errorf("register screening job %q: %w", job.Spec, err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", applogger.String("cron", s.job.Spec))
}

// Stop stops scheduling, cancels a running job and waits for it to return,
// including runs started by Trigger.
func (s *Scheduler) Stop() {
	done := s.cron.Stop()
	s.cancel()
	<-done.Done()
	s.triggered.Wait()
	s.log.Info("scheduler stopped")
}

// RunNow executes the screening job and returns when it is done. It is a
// no-op while another run is in flight.
func (s *Scheduler) RunNow() {
	s.wrapped.Run()
}

// Trigger runs the job in the background (run on start). Stop waits for it.
func (s *Scheduler) Trigger() {
	s.triggered.Add(1)
	go func() {
		defer s.triggered.Done()
		s.RunNow()
	}()
}

func (s *Scheduler) run(ctx context.Context) *models.ScreenerReport {
	r := s.builder.BuildReport(ctx, s.job.Symbols, s.job.Timeframe, s.job.Limit)

	counts := r.CategoryCounts()
	s.log.Info("scheduler.report",
		applogger.String("report_id", r.ID),
		applogger.Int("completely_bullish", counts[models.CategoryCompletelyBullish]),
		applogger.Int("gradually_bullish", counts[models.CategoryGraduallyBullish]),
		applogger.Int("completely_bearish", counts[models.CategoryCompletelyBearish]),
		applogger.Int("undetermined", counts[models.CategoryUndetermined]),
		applogger.Int("diagnostics", len(r.Diagnostics)),
	)
	for _, d := range r.Diagnostics {
		s.log.Warn("scheduler.diagnostic", applogger.String("symbol", d.Symbol), applogger.String("message", d.Message))
	}

	if s.publisher != nil {
		if err := s.publisher.PublishReport(ctx, r); err != nil {
			s.log.Error("scheduler.publish failed", applogger.String("report_id", r.ID), applogger.Error(err))
		}
	}
	return r
}
