package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/ptyglass/ptyglass/internal/config"
	"github.com/ptyglass/ptyglass/internal/gesture"
	"github.com/ptyglass/ptyglass/internal/transport"
)

type fakeConn struct {
	st      transport.Status
	sent    [][]byte
	resizes [][2]int
}

func (f *fakeConn) Connect(context.Context) error { return nil }
func (f *fakeConn) Disconnect() error             { return nil }
func (f *fakeConn) SendInput(data []byte) error   { f.sent = append(f.sent, data); return nil }
func (f *fakeConn) Status() transport.Status      { return f.st }

func (f *fakeConn) SendResize(cols, rows int) error {
	f.resizes = append(f.resizes, [2]int{cols, rows})
	return nil
}

func newTestModel(t *testing.T) Model {
	t.Helper()
	return New(config.Default(), &fakeConn{})
}

func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestPipelineRendersOutput(t *testing.T) {
	m := newTestModel(t)
	m = step(t, m, tea.WindowSizeMsg{Width: 80, Height: 10})

	m.sess.HandleOutput([]byte("hello\n"))
	m = step(t, m, frameMsg(time.Now()))

	f, ok := m.frames.Latest()
	if !ok {
		t.Fatal("no frame committed")
	}
	if f.Lines[0] != "hello" {
		t.Errorf("line 0 = %q", f.Lines[0])
	}
	if !strings.Contains(m.viewContent(), "hello") {
		t.Error("view does not contain rendered output")
	}
}

func TestTouchScrollMovesViewport(t *testing.T) {
	m := newTestModel(t)
	m = step(t, m, tea.WindowSizeMsg{Width: 80, Height: 10})

	var out strings.Builder
	for i := 0; i < 100; i++ {
		out.WriteString("line\n")
	}
	m.sess.HandleOutput([]byte(out.String()))
	m = step(t, m, frameMsg(time.Now()))

	before := m.mgr.ViewportY()
	if before == 0 {
		t.Fatal("follow did not move the viewport to the tail")
	}

	t0 := time.Now()
	m = step(t, m, TouchStartMsg{Points: []gesture.Point{{X: 10, Y: 100}}, Time: t0})
	m = step(t, m, TouchMoveMsg{Points: []gesture.Point{{X: 10, Y: 125}}, Time: t0.Add(100 * time.Millisecond)})

	if got := m.mgr.ViewportY(); got != before-25 {
		t.Errorf("viewportY = %v, want %v", got, before-25)
	}
}

func TestConfigReloadApplies(t *testing.T) {
	m := newTestModel(t)

	cfg := config.Default()
	cfg.Display.LineHeight = 30
	cfg.Scroll.AtBottomTolerance = 2
	m = step(t, m, ConfigReloadedMsg{Cfg: cfg})

	if m.rend.LineHeight() != 30 {
		t.Errorf("line height = %v after reload", m.rend.LineHeight())
	}
	if m.cfg.Scroll.AtBottomTolerance != 2 {
		t.Errorf("tolerance not applied")
	}
}

func TestStatusLineWarnsWhenDisconnected(t *testing.T) {
	m := newTestModel(t)
	m = step(t, m, tea.WindowSizeMsg{Width: 80, Height: 10})

	if !strings.Contains(m.viewContent(), "disconnected") {
		t.Error("status line missing disconnected state")
	}
}

func TestKeyBytes(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"a", "a"},
		{"Z", "Z"},
		{"enter", "\r"},
		{"tab", "\t"},
		{"space", " "},
		{"backspace", "\x7f"},
		{"up", "\x1b[A"},
		{"down", "\x1b[B"},
		{"ctrl+d", "\x04"},
		{"ctrl+a", "\x01"},
		{"f5", ""}, // unmapped
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := keyBytes(tt.name)
			if string(got) != tt.want {
				t.Errorf("keyBytes(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}
