// Package scheduler runs the periodic ingest on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fadilmartias/jobseek/internal/service"
	"github.com/fadilmartias/jobseek/internal/usecase"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type IngestRunner interface {
	Run(ctx context.Context) (*usecase.IngestReport, error)
}

// Scheduler wraps robfig/cron. Overlapping ticks are skipped, not queued.
type Scheduler struct {
	cron   *cron.Cron
	runner IngestRunner
	spec   string
	logger *zap.Logger
}

func New(runner IngestRunner, interval time.Duration, logger *zap.Logger) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("scheduler interval must be positive, got %s", interval)
	}
	cl := cronLogger{logger.Sugar()}
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		runner: runner,
		spec:   "@every " + interval.String(),
		logger: logger,
	}, nil
}

func (s *Scheduler) Spec() string { return s.spec }

// Start registers the ingest job and starts ticking. The first run happens
// after one interval.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}
	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("spec", s.spec))
	return nil
}

// Stop stops the cron and waits for a running ingest to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) RunOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	report, err := s.runner.Run(ctx)
	switch {
	case errors.Is(err, service.ErrLockHeld):
		s.logger.Info("scheduled ingest skipped, backfill running")
	case err != nil:
		s.logger.Error("scheduled ingest failed", zap.Error(err))
	default:
		s.logger.Info("scheduled ingest done",
			zap.Int("kept", report.Kept), zap.Int("embedded", report.Embedded), zap.Duration("took", time.Since(start)))
	}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
