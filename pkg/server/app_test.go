package server

import (
	"testing"

	"PivotScreener/pkg/config"
	xhttp "PivotScreener/pkg/http"
)

type recScheduler struct{ started, stopped, ran int }

func (s *recScheduler) Start()  { s.started++ }
func (s *recScheduler) Stop()   { s.stopped++ }
func (s *recScheduler) Trigger() { s.ran++ }

func newTestApp(t *testing.T) *App {
	t.Helper()
	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	return New(cfg, nil, xhttp.NewServer(nil, xhttp.WithHost("127.0.0.1"), xhttp.WithPort(0), xhttp.WithMetrics("", nil, nil)))
}

func TestRunOnStartTriggersScheduler(t *testing.T) {
	a := newTestApp(t)
	a.cfg.Schedule.RunOnStart = true
	sch := &recScheduler{}
	a.SetScheduler(sch)

	if err := a.start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	a.shutdown()

	if sch.ran != 1 || sch.stopped != 1 {
		t.Errorf("scheduler ran=%d stopped=%d", sch.ran, sch.stopped)
	}
}

func TestStartWithoutConsumer(t *testing.T) {
	a := newTestApp(t)
	sch := &recScheduler{}
	a.SetScheduler(sch)

	if err := a.start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	a.shutdown()

	if sch.started != 1 || sch.stopped != 1 {
		t.Errorf("scheduler started=%d stopped=%d", sch.started, sch.stopped)
	}
	if sch.ran != 0 {
		t.Errorf("run on start disabled but ran %d times", sch.ran)
	}
}
