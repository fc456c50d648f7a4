package usecase

import (
	"context"
	"time"

	"VideoDigest/internal/ports"
)

// RunFunc performs one complete polling pass.
type RunFunc func(ctx context.Context, trigger time.Time)

// Scheduler wires the cron driver with the polling pass.
type Scheduler struct {
	driver ports.Scheduler
	run    RunFunc
}

// NewScheduler returns a helper to start/stop recurring passes.
func NewScheduler(driver ports.Scheduler, run RunFunc) *Scheduler {
	return &Scheduler{driver: driver, run: run}
}

// Start registers the pass with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.run == nil {
		return nil
	}

	job := func(trigger time.Time) {
		s.run(ctx, trigger)
	}

	return s.driver.Start(ctx, job)
}

// Stop tears down the underlying scheduler, waiting for a running pass.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
