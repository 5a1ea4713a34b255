// Package scheduler runs the billing batches in-process on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"tutor-billing/internal/payments"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Job interface {
	Run(ctx context.Context) (payments.BatchResult, error)
}

// Entry is one scheduled batch.
type Entry struct {
	Name    string
	Spec    string
	Job     Job
	Timeout time.Duration
}

type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger
}

// New registers every entry. Overlapping runs of the same entry are skipped.
func New(loc *time.Location, log *zap.Logger, entries ...Entry) (*Scheduler, error) {
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cronLogger{log}), cron.SkipIfStillRunning(cronLogger{log})),
	)
	s := &Scheduler{cron: c, log: log}

	for _, e := range entries {
		if _, err := c.AddFunc(e.Spec, func() { s.run(e) }); err != nil {
			return nil, fmt.Errorf("invalid schedule %q for %s: %w", e.Spec, e.Name, err)
		}
		log.Info("billing job scheduled", zap.String("job", e.Name), zap.String("spec", e.Spec))
	}
	return s, nil
}

func (s *Scheduler) run(e Entry) {
	ctx := context.Background()
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := e.Job.Run(ctx)
	if err != nil {
		s.log.Error("scheduled job failed", zap.String("job", e.Name), zap.Error(err))
		return
	}
	s.log.Info("scheduled job done",
		zap.String("job", e.Name),
		zap.Int("attempted", res.Attempted()),
		zap.Int("skipped", res.Skipped()),
		zap.Duration("took", time.Since(start)))
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop waits for running jobs to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	log *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
