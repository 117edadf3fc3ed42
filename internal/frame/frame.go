// Package frame abstracts the host's frame-callback scheduler. The
// pipeline is single-threaded and cooperative: work that wants to run "on
// the next frame" registers a callback here, and the host (the TUI event
// loop in production, a manual stepper in tests) invokes the pending
// callbacks once per frame.
package frame

import (
	"sync"
	"time"
)

// Callback is a unit of work run on a frame tick.
type Callback func(now time.Time)

// Scheduler schedules callbacks onto the host's frame cycle. Schedule
// must never block and must never run the callback synchronously.
type Scheduler interface {
	Schedule(cb Callback)
}

// Loop is the standard Scheduler implementation: it collects callbacks
// and runs them when the host calls Tick. The host decides the cadence.
type Loop struct {
	mu      sync.Mutex
	pending []Callback
}

// NewLoop creates an empty frame loop.
func NewLoop() *Loop {
	return &Loop{}
}

// Schedule queues cb for the next Tick.
func (l *Loop) Schedule(cb Callback) {
	l.mu.Lock()
	l.pending = append(l.pending, cb)
	l.mu.Unlock()
}

// Tick runs every callback scheduled before this call. Callbacks that
// schedule further work land in the next tick, not this one.
func (l *Loop) Tick(now time.Time) {
	l.mu.Lock()
	batch := l.pending
	l.pending = nil
	l.mu.Unlock()

	for _, cb := range batch {
		cb(now)
	}
}

// Pending returns how many callbacks await the next tick.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}
