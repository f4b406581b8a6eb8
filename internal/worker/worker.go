// Package worker runs the background jobs of the dashboard service.
package worker

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/studiodesk/studio-desk/internal/service"
	"github.com/studiodesk/studio-desk/internal/templates"
)

const sweepSchedule = "@every 1m"

// Refresher recomputes cached analytics snapshots.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Config describes the scheduled jobs.
type Config struct {
	RefreshCron    string
	RefreshTimeout time.Duration
}

// Worker owns the cron scheduler.
type Worker struct {
	cron   *cron.Cron
	logger *zap.Logger
}

// StartActivityWorker registers the activity log handlers.
func StartActivityWorker(activity *service.ActivityService) {
	if activity == nil {
		return
	}
	activity.RegisterHandlers()
}

// New schedules the analytics refresh and, when sessions live in memory,
// the idle session sweep. sessions may be nil.
func New(cfg Config, refresher Refresher, sessions *templates.MemoryStore, logger *zap.Logger) (*Worker, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = time.Minute
	}
	c := cron.New(cron.WithChain(cron.Recover(cronLogger{logger}), cron.SkipIfStillRunning(cronLogger{logger})))

	if refresher != nil && cfg.RefreshCron != "" {
		_, err := c.AddFunc(cfg.RefreshCron, func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.RefreshTimeout)
			defer cancel()
			if err := refresher.Refresh(ctx); err != nil {
				logger.Warn("analytics refresh failed", zap.Error(err))
			}
		})
		if err != nil {
			return nil, err
		}
	}
	if sessions != nil {
		if _, err := c.AddFunc(sweepSchedule, func() {
			if n := sessions.Sweep(); n > 0 {
				logger.Debug("expired template sessions swept", zap.Int("sessions", n))
			}
		}); err != nil {
			return nil, err
		}
	}
	return &Worker{cron: c, logger: logger}, nil
}

// Jobs returns the number of scheduled jobs.
func (w *Worker) Jobs() int {
	return len(w.cron.Entries())
}

// Start runs the scheduler in its own goroutine.
func (w *Worker) Start() {
	w.cron.Start()
	w.logger.Info("worker started", zap.Int("jobs", w.Jobs()))
}

// Stop halts scheduling and waits for running jobs until ctx ends.
func (w *Worker) Stop(ctx context.Context) {
	done := w.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		w.logger.Warn("worker stop timed out")
	}
}

type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, zap.Any("details", keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, zap.Error(err), zap.Any("details", keysAndValues))
}
