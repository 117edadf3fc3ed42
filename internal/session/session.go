// Package session coordinates the viewing pipeline for one remote
// terminal: output from the transport is batched into the operation
// queue, written into the data model, and rendered, in that order. The
// session also owns restore buffering, resize debouncing, and teardown.
package session

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ptyglass/ptyglass/internal/input"
	"github.com/ptyglass/ptyglass/internal/opqueue"
	"github.com/ptyglass/ptyglass/internal/render"
	"github.com/ptyglass/ptyglass/internal/scroll"
	"github.com/ptyglass/ptyglass/internal/termdata"
	"github.com/ptyglass/ptyglass/internal/transport"
	"github.com/ptyglass/ptyglass/internal/tuilog"
)

// resizeDebounce is the trailing quiet period before a resize applies.
// Terminals emit resize storms while the user drags; only the last size
// matters.
const resizeDebounce = 150 * time.Millisecond

// Session glues transport, data model, scroll state and renderer
// together. Transport callbacks arrive on the transport goroutine; all
// heavy work is marshalled onto the operation queue, which drains on the
// frame loop.
type Session struct {
	model *termdata.LineModel
	mgr   *scroll.Manager
	queue *opqueue.Queue
	rend  *render.Renderer
	conn  transport.Connection
	drag  *input.DragScroller

	rows int

	mu            sync.Mutex
	batch         [][]byte
	batchPending  bool
	restoring     bool
	held          [][]byte
	renderPending bool
	closed        bool
	status        transport.Status

	resizePending bool
	resizeCols    int
	resizeRows    int
	resizeAt      time.Time
}

// New creates a Session over the assembled pipeline pieces. rows is the
// initial visible row count.
func New(model *termdata.LineModel, mgr *scroll.Manager, queue *opqueue.Queue,
	rend *render.Renderer, conn transport.Connection, rows int) *Session {
	return &Session{
		model: model,
		mgr:   mgr,
		queue: queue,
		rend:  rend,
		conn:  conn,
		rows:  rows,
	}
}

// AttachDrag registers the drag scroller so Close can cancel momentum.
func (s *Session) AttachDrag(d *input.DragScroller) { s.drag = d }

// SetConnection attaches the transport after construction; the transport
// handler callbacks need the session to exist first.
func (s *Session) SetConnection(c transport.Connection) { s.conn = c }

// Manager returns the scroll manager for input wiring.
func (s *Session) Manager() *scroll.Manager { return s.mgr }

// Geometry for the input package.

func (s *Session) BufferLength() int   { return s.model.Length() }
func (s *Session) Rows() int           { return s.rows }
func (s *Session) LineHeight() float64 { return s.rend.LineHeight() }

var _ input.Geometry = (*Session)(nil)

// HandleOutput accepts a chunk of remote output. During a restore the
// chunk is held back; otherwise it joins the current batch, and the
// batch is flushed by a single queued operation per frame.
func (s *Session) HandleOutput(data []byte) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.restoring {
		s.held = append(s.held, data)
		s.mu.Unlock()
		return
	}
	s.batch = append(s.batch, data)
	schedule := !s.batchPending
	s.batchPending = true
	s.mu.Unlock()

	if schedule {
		s.queue.Enqueue(s.flushBatch)
	}
}

// flushBatch writes the accumulated output into the data model, then
// requests a render. The render is a later queue entry, so a frame never
// shows data the model has not absorbed yet.
func (s *Session) flushBatch(ctx context.Context) error {
	s.mu.Lock()
	chunks := s.batch
	s.batch = nil
	s.batchPending = false
	s.mu.Unlock()

	if len(chunks) == 0 {
		return nil
	}
	if err := s.model.Write(ctx, bytes.Join(chunks, nil)); err != nil {
		return err
	}
	s.requestRender()
	return nil
}

// requestRender schedules at most one render operation.
func (s *Session) requestRender() {
	s.mu.Lock()
	if s.renderPending || s.closed {
		s.mu.Unlock()
		return
	}
	s.renderPending = true
	s.mu.Unlock()

	s.queue.Enqueue(func(context.Context) error {
		s.mu.Lock()
		s.renderPending = false
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return nil
		}
		s.renderNow()
		return nil
	})
}

func (s *Session) renderNow() {
	s.mgr.FollowCursor(s.model, s.rend.LineHeight(), s.rows)
	s.rend.Render(s.mgr.ViewportY(), s.rows)
}

// RequestRender exposes render scheduling for input paths that change
// the viewport without writing data.
func (s *Session) RequestRender() { s.requestRender() }

// BeginRestore starts holding output back while a buffer snapshot is
// applied.
func (s *Session) BeginRestore() {
	s.mu.Lock()
	s.restoring = true
	s.mu.Unlock()
}

// EndRestore finishes a restore. Held output flushes behind anything
// that arrived before the restore began, preserving arrival order,
// whether the restore succeeded or not; a failed restore must not eat
// the output that accumulated behind it.
func (s *Session) EndRestore(err error) {
	if err != nil {
		tuilog.Log.Warn("session restore failed", "error", err)
	}
	s.mu.Lock()
	s.restoring = false
	held := s.held
	s.held = nil
	if len(held) > 0 {
		s.batch = append(s.batch, held...)
	}
	schedule := len(s.batch) > 0 && !s.batchPending
	if schedule {
		s.batchPending = true
	}
	s.mu.Unlock()

	if schedule {
		s.queue.Enqueue(s.flushBatch)
	}
}

// HandleStatus records a transport status change and repaints the
// status line. A successful reconnect after a drop triggers a resync:
// the model and viewport drop their stale state while the replayed
// stream is held back, so scroll-back is never rendered twice.
func (s *Session) HandleStatus(st transport.Status) {
	s.mu.Lock()
	prev := s.status
	s.status = st
	s.mu.Unlock()

	if st.Connected && !prev.Connected && prev.Reconnecting {
		s.resync()
	}
	s.requestRender()
}

// resync brackets a reconnect: output is held from here until the queued
// reset has run, then flushes in arrival order into the fresh model.
func (s *Session) resync() {
	s.BeginRestore()
	s.queue.Enqueue(func(context.Context) error {
		s.model.Reset()
		s.mgr.Reset()
		s.EndRestore(nil)
		return nil
	})
}

// HandleError records a transport failure for the inline status line.
// Transport errors are non-fatal; the connection keeps retrying.
func (s *Session) HandleError(err error) {
	s.mu.Lock()
	s.status.Err = err
	s.mu.Unlock()
	tuilog.Log.Warn("transport error", "error", err)
	s.requestRender()
}

// TransportStatus returns the latest transport status snapshot.
func (s *Session) TransportStatus() transport.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// StatusText is the inline status line: connection state plus the
// follow/lock indicator.
func (s *Session) StatusText() string {
	st := s.TransportStatus()

	var state string
	switch {
	case st.Connected:
		state = "connected"
	case st.Reconnecting:
		state = fmt.Sprintf("reconnecting (retry %d)", st.RetryCount)
	default:
		state = "disconnected"
	}
	if !st.Connected && st.Err != nil {
		state += ": " + st.Err.Error()
	}
	switch {
	case s.mgr.LockEnabled():
		state += " | locked"
	case s.mgr.FollowEnabled():
		state += " | follow"
	}
	return state
}

// SendInput forwards keyboard input to the remote terminal.
func (s *Session) SendInput(data []byte) error {
	if err := s.conn.SendInput(data); err != nil {
		tuilog.Log.Warn("input send failed", "error", err)
		return err
	}
	return nil
}

// Resize records a pending size change. The change applies after the
// debounce period with no further resizes.
func (s *Session) Resize(cols, rows int, now time.Time) {
	s.mu.Lock()
	s.resizePending = true
	s.resizeCols = cols
	s.resizeRows = rows
	s.resizeAt = now.Add(resizeDebounce)
	s.mu.Unlock()
}

// Tick advances the session's deadlines; the host calls it every frame.
func (s *Session) Tick(now time.Time) {
	s.mu.Lock()
	apply := s.resizePending && !now.Before(s.resizeAt)
	cols, rows := s.resizeCols, s.resizeRows
	if apply {
		s.resizePending = false
	}
	s.mu.Unlock()

	if !apply {
		return
	}
	s.applyResize(cols, rows)
}

func (s *Session) applyResize(cols, rows int) {
	s.model.Resize(cols)
	s.rows = rows

	if s.conn != nil {
		if err := s.conn.SendResize(cols, rows); err != nil {
			tuilog.Log.Warn("resize forward failed", "error", err, "cols", cols, "rows", rows)
		}
	}

	// Rewrapping can shrink the buffer; pull the viewport back in range
	// without treating it as a user scroll.
	lh := s.rend.LineHeight()
	maxY := scroll.MaxScrollPixels(s.model.Length(), rows, lh)
	if s.mgr.ViewportY() > maxY {
		s.mgr.Programmatic(func() {
			s.mgr.ScrollTo(maxY, s.model.Length(), rows, lh)
		})
	}
	s.requestRender()
}

// Close tears the session down: momentum stops, queued work is
// discarded, and the transport disconnects. Idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.batch = nil
	s.held = nil
	s.batchPending = false
	s.mu.Unlock()

	if s.drag != nil {
		s.drag.Cancel()
	}
	s.queue.Clear()
	if s.conn != nil {
		return s.conn.Disconnect()
	}
	return nil
}
