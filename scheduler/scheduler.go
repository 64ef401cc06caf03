// Package scheduler runs periodic background jobs such as refreshing the
// leaderboard cache.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// A Job is run on every tick of its schedule.
type Job func(ctx context.Context) error

// Scheduler runs jobs on cron schedules.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func New(logger *slog.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		// A slow run is skipped rather than overlapped.
		cron:   cron.New(cron.WithLocation(time.UTC), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers job under name on the cron spec, for example "@every 10s".
func (s *Scheduler) Add(spec, name string, timeout time.Duration, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx := s.ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		start := time.Now()
		if err := job(ctx); err != nil {
			s.logger.Error("Scheduled job failed", "job", name, "error", err.Error())
			return
		}
		s.logger.Debug("Scheduled job finished", "job", name, "duration", time.Since(start))
	})
	return err
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.cancel()
	s.logger.Info("Scheduler stopped")
}
