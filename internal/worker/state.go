// Copyright (c) 2025 The gridwatch Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package worker

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// CycleState tracks the steps of one worker cycle. Steps may run
// concurrently; all methods are safe for concurrent use.
type CycleState struct {
	// Active maps running steps to their start time
	Active map[string]time.Time
	// Completed maps finished steps to their duration
	Completed map[string]time.Duration
	// Failed maps steps to failure reasons
	Failed map[string]string
	// Order preserves the sequence in which steps were started
	Order []string
	// Expected contains the steps planned for this cycle
	Expected map[string]struct{}

	errs []error
	now  func() time.Time
	mu   sync.Mutex
}

// NewCycleState creates an empty CycleState.
func NewCycleState() *CycleState {
	return &CycleState{
		Active:    make(map[string]time.Time),
		Completed: make(map[string]time.Duration),
		Failed:    make(map[string]string),
		Expected:  make(map[string]struct{}),
		now:       time.Now,
	}
}

// Expect marks steps as planned.
func (cs *CycleState) Expect(steps ...string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	for _, s := range steps {
		cs.Expected[s] = struct{}{}
	}
}

// Start marks a step as running. Unplanned steps become expected.
func (cs *CycleState) Start(step string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if _, ok := cs.Active[step]; !ok {
		cs.Order = append(cs.Order, step)
	}
	cs.Active[step] = cs.now()
	cs.Expected[step] = struct{}{}
}

// Complete marks a step as finished.
func (cs *CycleState) Complete(step string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	var d time.Duration
	if started, ok := cs.Active[step]; ok {
		d = cs.now().Sub(started)
	}
	delete(cs.Active, step)
	cs.Completed[step] = d
}

// Fail marks a step as failed and records err for Err.
func (cs *CycleState) Fail(step string, err error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	delete(cs.Active, step)
	cs.Failed[step] = err.Error()
	cs.errs = append(cs.errs, fmt.Errorf("%s: %w", step, err))
}

// Track runs fn as step, recording completion or failure. It returns fn's
// error.
func (cs *CycleState) Track(step string, fn func() error) error {
	cs.Start(step)
	if err := fn(); err != nil {
		cs.Fail(step, err)
		return err
	}
	cs.Complete(step)
	return nil
}

// ExpectedCount returns the number of planned steps.
func (cs *CycleState) ExpectedCount() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return len(cs.Expected)
}

// CompletedCount returns the number of finished steps.
func (cs *CycleState) CompletedCount() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return len(cs.Completed)
}

// FailedCount returns the number of failed steps.
func (cs *CycleState) FailedCount() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return len(cs.Failed)
}

// HasFailures returns true if any step has failed.
func (cs *CycleState) HasFailures() bool {
	return cs.FailedCount() > 0
}

// IsFullyCompleted returns true if every expected step completed.
func (cs *CycleState) IsFullyCompleted() bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return len(cs.Expected) > 0 && len(cs.Completed) == len(cs.Expected)
}

// Failures returns "step: reason" lines in start order.
func (cs *CycleState) Failures() []string {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	var out []string
	for _, step := range cs.Order {
		if reason, ok := cs.Failed[step]; ok {
			out = append(out, step+": "+reason)
		}
	}
	return out
}

// Err joins every recorded step error, or returns nil.
func (cs *CycleState) Err() error {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return errors.Join(cs.errs...)
}
