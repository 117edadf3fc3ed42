// Package opqueue serializes asynchronous write/render operations onto
// the frame cycle under a per-frame time budget. Operations run in FIFO
// order; when a drain pass exceeds the budget with work remaining, the
// queue yields and continues on the next frame instead of blocking the
// host's render cycle.
package opqueue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ptyglass/ptyglass/internal/diag"
	"github.com/ptyglass/ptyglass/internal/frame"
	"github.com/ptyglass/ptyglass/internal/tuilog"
)

// DefaultBudget is the drain-pass time budget per frame.
const DefaultBudget = 8 * time.Millisecond

// Op is a deferred unit of work. Ops may block briefly (an async write
// into the data model); the queue awaits each one before the next.
type Op func(ctx context.Context) error

// Queue is the frame-budgeted FIFO operation queue.
//
// An op that returns an error is isolated: the error is logged and the
// drain continues with the next op. A failed write never wedges the
// pipeline behind it.
type Queue struct {
	mu         sync.Mutex
	ops        []Op
	scheduled  bool
	generation uint64 // bumped by Clear to invalidate in-flight drains

	sched  frame.Scheduler
	budget time.Duration
}

// New creates a Queue draining on the given scheduler. A non-positive
// budget falls back to DefaultBudget.
func New(sched frame.Scheduler, budget time.Duration) *Queue {
	if budget <= 0 {
		budget = DefaultBudget
	}
	return &Queue{sched: sched, budget: budget}
}

// Enqueue appends op and guarantees exactly one scheduling pass is
// pending. It never blocks the caller.
func (q *Queue) Enqueue(op Op) {
	q.mu.Lock()
	q.ops = append(q.ops, op)
	if !q.scheduled {
		q.scheduled = true
		gen := q.generation
		q.sched.Schedule(func(now time.Time) { q.drain(now, gen) })
	}
	q.mu.Unlock()
}

// Clear discards all pending work and resets scheduling state. Any drain
// already scheduled becomes a no-op. Used on teardown and reconnect.
func (q *Queue) Clear() {
	q.mu.Lock()
	q.ops = nil
	q.scheduled = false
	q.generation++
	q.mu.Unlock()
}

// HasPending reports whether operations await execution.
func (q *Queue) HasPending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ops) > 0
}

// PendingCount returns the number of queued operations.
func (q *Queue) PendingCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ops)
}

// drain runs queued ops in FIFO order until the queue is empty or the
// frame budget is spent, then either finishes or reschedules itself.
// Elapsed time is measured from drain entry, not from the host's frame
// timestamp, so a late-delivered frame does not eat the whole budget.
func (q *Queue) drain(_ time.Time, gen uint64) {
	start := time.Now()
	for {
		q.mu.Lock()
		if q.generation != gen || len(q.ops) == 0 {
			q.scheduled = false
			q.mu.Unlock()
			return
		}
		if time.Since(start) > q.budget {
			// Budget spent with work remaining: yield to the render
			// cycle and continue on the next frame.
			nextGen := q.generation
			q.sched.Schedule(func(now time.Time) { q.drain(now, nextGen) })
			q.mu.Unlock()
			diag.ObserveBudgetOverrun()
			return
		}
		op := q.ops[0]
		q.ops = q.ops[1:]
		q.mu.Unlock()

		q.runOp(op)
	}
}

// runOp executes one op with panic isolation.
func (q *Queue) runOp(op Op) {
	defer func() {
		if r := recover(); r != nil {
			tuilog.Log.Error("operation panicked", "panic", fmt.Sprintf("%v", r))
		}
	}()
	if err := op(context.Background()); err != nil {
		tuilog.Log.Error("operation failed", "error", err)
	}
}
