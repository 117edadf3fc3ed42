package tui

import (
	"sync"

	"github.com/ptyglass/ptyglass/internal/render"
)

// frameStore is the render target: it keeps the latest committed frame
// for View to draw. Commits arrive on the frame loop; View reads on the
// program goroutine.
type frameStore struct {
	mu    sync.Mutex
	frame render.Frame
	has   bool
}

func (s *frameStore) Commit(f render.Frame) {
	s.mu.Lock()
	s.frame = f
	s.has = true
	s.mu.Unlock()
}

func (s *frameStore) Latest() (render.Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame, s.has
}
