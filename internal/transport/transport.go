// Package transport maintains the connection to the remote terminal
// endpoint. Output bytes flow in over a WebSocket and are handed to the
// session; input bytes flow back out. Disconnects reconnect automatically
// with exponential backoff.
package transport

import (
	"context"
	"sync"
)

// Status is a snapshot of the connection state for the status line.
type Status struct {
	Connected    bool
	Reconnecting bool
	RetryCount   int
	Err          error
}

// Handler receives transport events. Callbacks are invoked from the
// transport's own goroutine; receivers marshal onto their frame loop.
// Nil fields are skipped.
type Handler struct {
	// Output delivers a chunk of remote terminal output. The slice is
	// owned by the receiver.
	Output func(data []byte)

	// StatusChanged fires on connect, disconnect and each retry.
	StatusChanged func(s Status)

	// Error reports a transport failure. Failures are non-fatal: the
	// connection keeps retrying, and the error is surfaced so hosts can
	// show an inline diagnostic.
	Error func(err error)
}

// Connection is the remote terminal link.
type Connection interface {
	// Connect starts the connection and its reconnect loop. It returns
	// once the loop is running; delivery happens via the Handler.
	Connect(ctx context.Context) error

	// Disconnect tears the connection down and stops reconnecting.
	Disconnect() error

	// SendInput forwards keyboard input bytes to the remote terminal.
	SendInput(data []byte) error

	// SendResize notifies the remote terminal of a new size. Failures
	// are for the caller to log; the request is not retried.
	SendResize(cols, rows int) error

	// Status returns the current connection state.
	Status() Status
}

// statusTracker is the shared state machine behind Status. Both the
// WebSocket connection and test fakes embed it.
type statusTracker struct {
	mu sync.Mutex
	st Status
}

func (t *statusTracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.st
}

func (t *statusTracker) set(update func(*Status)) Status {
	t.mu.Lock()
	update(&t.st)
	s := t.st
	t.mu.Unlock()
	return s
}
