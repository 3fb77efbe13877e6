// Package cron runs a job on a cron schedule.
//
// The server uses it to push roster metrics to a remote write endpoint.
//
// Example usage:
//
//	trigger, err := cron.NewCronTrigger("*/5 * * * *", reporter.Report, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	trigger.Start(ctx)  // Returns immediately, runs in background
//	<-ctx.Done()        // Wait for shutdown signal
package cron

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrInvalidCronSpec is returned when the cron specification cannot be parsed.
var ErrInvalidCronSpec = errors.New("invalid cron spec")

// Job is the work executed on each scheduled tick.
type Job func(ctx context.Context) error

// CronTrigger executes a Job according to a cron schedule.
type CronTrigger struct {
	spec     string
	schedule cron.Schedule
	job      Job
	logger   *slog.Logger
	runs     atomic.Int64
	failures atomic.Int64
}

// NewCronTrigger creates a new CronTrigger with the given cron specification.
// The spec follows standard cron format (5 fields: minute, hour, day, month, weekday).
// Returns ErrInvalidCronSpec if the specification cannot be parsed.
func NewCronTrigger(spec string, job Job, logger *slog.Logger) (*CronTrigger, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, errors.Join(ErrInvalidCronSpec, err)
	}
	if job == nil {
		return nil, errors.New("cron job must not be nil")
	}

	return &CronTrigger{
		spec:     spec,
		schedule: schedule,
		job:      job,
		logger:   logger,
	}, nil
}

// Start launches a goroutine that runs the job according to the cron schedule.
// Returns immediately. The goroutine exits when ctx is cancelled.
func (ct *CronTrigger) Start(ctx context.Context) {
	go ct.loop(ctx)
}

// Spec returns the cron specification.
func (ct *CronTrigger) Spec() string {
	return ct.spec
}

// NextRun returns the next scheduled run time from now.
func (ct *CronTrigger) NextRun() time.Time {
	return ct.schedule.Next(time.Now())
}

// Runs returns how many times the job has run and how many of those failed.
func (ct *CronTrigger) Runs() (total, failed int64) {
	return ct.runs.Load(), ct.failures.Load()
}

// loop is the main scheduling loop that runs in a goroutine.
func (ct *CronTrigger) loop(ctx context.Context) {
	for {
		nextRun := ct.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(nextRun))

		ct.logger.Debug("waiting for next scheduled run", "next_run", nextRun)

		select {
		case <-ctx.Done():
			timer.Stop()
			ct.logger.Info("cron trigger shutting down")
			return
		case <-timer.C:
			ct.executeRun(ctx)
		}
	}
}

// executeRun executes the job and logs the result.
func (ct *CronTrigger) executeRun(ctx context.Context) {
	ct.runs.Add(1)

	if err := ct.job(ctx); err != nil {
		ct.failures.Add(1)
		ct.logger.Warn("scheduled run failed", "spec", ct.spec, "error", err)
		return
	}
	ct.logger.Debug("scheduled run completed", "spec", ct.spec)
}
