// Package scheduler runs the periodic sweeps on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"gymhub/internal/logger"
	"gymhub/internal/metrics"
)

const defaultTimeout = 4 * time.Minute

// Job is one periodic task. Run receives a context bounded by Timeout.
type Job struct {
	Name    string
	Spec    string
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

type Scheduler struct {
	cron *cron.Cron
	jobs []Job
}

// New builds a scheduler whose jobs never overlap with themselves: a tick
// that arrives while the previous run is still going is skipped.
func New(jobs ...Job) *Scheduler {
	c := cron.New(cron.WithChain(
		cron.Recover(cronLogger{}),
		cron.SkipIfStillRunning(cronLogger{}),
	))
	return &Scheduler{cron: c, jobs: jobs}
}

// Start registers every job and starts the cron loop. Nothing runs if any
// schedule fails to parse.
func (s *Scheduler) Start() error {
	for _, j := range s.jobs {
		job := j
		if _, err := s.cron.AddFunc(job.Spec, func() { Execute(context.Background(), job) }); err != nil {
			return fmt.Errorf("schedule %s (%q): %w", job.Name, job.Spec, err)
		}
		logger.Info("job scheduled", "job", job.Name, "spec", job.Spec)
	}
	s.cron.Start()
	return nil
}

// Stop prevents new runs and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		logger.Warn("scheduler stopped with jobs still running")
	}
}

// Execute runs job once under its timeout and records the outcome.
func Execute(parent context.Context, job Job) error {
	timeout := job.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	start := time.Now()
	err := job.Run(ctx)
	metrics.RecordJobRun(job.Name, err)

	if err != nil {
		logger.Error("job failed", "job", job.Name, "duration", time.Since(start), "error", err)
		return err
	}
	logger.Debug("job finished", "job", job.Name, "duration", time.Since(start))
	return nil
}

// cronLogger routes cron's own messages through slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
