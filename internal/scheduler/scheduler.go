package scheduler

import (
	"context"
	"fmt"
	"time"

	applogger "MarketLens/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Refresher is a job run on a schedule.
type Refresher interface {
	Refresh(ctx context.Context)
}

// Scheduler runs the watchlist refresh on a cron spec with seconds.
type Scheduler struct {
	Cron    *cron.Cron
	job     Refresher
	timeout time.Duration
	ctx     context.Context
	l       *applogger.Logger
}

func New(ctx context.Context, job Refresher, timeout time.Duration, l *applogger.Logger) *Scheduler {
	if l == nil {
		l = applogger.NewNop()
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Scheduler{
		Cron:    cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		job:     job,
		timeout: timeout,
		ctx:     ctx,
		l:       l,
	}
}

// Register adds the refresh job.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.RunNow); err != nil {
		return fmt.Errorf("register watchlist refresh %q: %w", spec, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.Cron.Start()
	s.l.Info("scheduler started", applogger.Int("jobs", len(s.Cron.Entries())))
}

// Stop waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.l.Info("scheduler stopped")
}

// RunNow executes the job once with its own deadline.
func (s *Scheduler) RunNow() {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()
	start := time.Now()
	s.job.Refresh(ctx)
	s.l.Debug("scheduled refresh done", applogger.Duration("duration_ms", time.Since(start)))
}
