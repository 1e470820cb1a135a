// Package common holds small helpers shared across the capture pipeline.
package common

import (
	"fmt"
	"time"
)

// Timer measures one pipeline stage.
type Timer struct {
	start    time.Time
	name     string
	duration time.Duration
}

// StartTimer begins timing a named stage.
func StartTimer(name string) *Timer {
	return &Timer{name: name, start: time.Now()}
}

// Stop records and returns the elapsed duration.
func (t *Timer) Stop() time.Duration {
	t.duration = time.Since(t.start)
	return t.duration
}

// Duration returns the recorded duration, valid after Stop.
func (t *Timer) Duration() time.Duration {
	return t.duration
}

// Name returns the stage name.
func (t *Timer) Name() string {
	return t.name
}

// String formats the timer as "name: duration".
func (t *Timer) String() string {
	if t.name != "" {
		return fmt.Sprintf("%s: %v", t.name, t.duration)
	}
	return t.duration.String()
}
