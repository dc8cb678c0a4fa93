// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package worker runs the periodic background services: it waits for the
// database, runs a cycle right away and then one per interval until the
// context ends.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// CycleFunc performs one unit of periodic work, recording steps in st.
type CycleFunc func(ctx context.Context, st *CycleState) error

// Runner drives a CycleFunc on a fixed interval.
type Runner struct {
	Name       string
	Interval   time.Duration
	RetryDelay time.Duration
	Ping       func(ctx context.Context) error
	Cycle      CycleFunc
	Logger     *slog.Logger
	// Renderer, when set, prints a summary after each cycle.
	Renderer *Renderer
}

// Run blocks until ctx is cancelled. Cycle failures are logged and do not
// stop the loop.
func (r *Runner) Run(ctx context.Context) error {
	if r.Interval <= 0 {
		return fmt.Errorf("%s: interval must be positive, got %s", r.Name, r.Interval)
	}
	log := r.logger()
	log.Info(fmt.Sprintf("%s service starting", r.Name))

	if err := r.waitForDatabase(ctx); err != nil {
		return err
	}
	log.Info("Database connection successful")
	log.Info(fmt.Sprintf("Service will run every %s", r.Interval))

	_, _ = r.RunOnce(ctx)

	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info(fmt.Sprintf("%s service stopped", r.Name))
			return nil
		case <-ticker.C:
			_, _ = r.RunOnce(ctx)
		}
	}
}

func (r *Runner) waitForDatabase(ctx context.Context) error {
	if r.Ping == nil {
		return nil
	}
	return WaitReady(ctx, r.Ping, r.RetryDelay, r.logger())
}

// WaitReady calls ping until it succeeds, sleeping delay between attempts
// (10s when zero). It returns early only when ctx ends.
func WaitReady(ctx context.Context, ping func(ctx context.Context) error, delay time.Duration, log *slog.Logger) error {
	if delay <= 0 {
		delay = 10 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	for {
		err := ping(ctx)
		if err == nil {
			return nil
		}
		log.Error(fmt.Sprintf("Cannot connect to database. Retrying in %d seconds...", int(delay.Seconds())),
			"error", err)

		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

// RunOnce runs a single cycle and returns its state. The error joins the
// cycle's own error with any failed steps.
func (r *Runner) RunOnce(ctx context.Context) (*CycleState, error) {
	log := r.logger()
	st := NewCycleState()
	start := time.Now()

	err := r.Cycle(ctx, st)
	if err == nil {
		err = st.Err()
	}
	elapsed := time.Since(start)

	if err != nil {
		log.Error(fmt.Sprintf("%s cycle failed", r.Name), "error", err, "elapsed", elapsed)
	} else {
		log.Info(fmt.Sprintf("%s cycle complete", r.Name), "steps", st.CompletedCount(), "elapsed", elapsed)
	}
	if r.Renderer != nil {
		r.Renderer.Render(r.Name, st, elapsed)
	}
	return st, err
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger.With("service", r.Name)
	}
	return slog.Default().With("service", r.Name)
}
