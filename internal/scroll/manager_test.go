package scroll

import (
	"context"
	"testing"

	"github.com/ptyglass/ptyglass/internal/termdata"
)

// cursorModel is a stub data model with a settable length and cursor row.
type cursorModel struct {
	length    int
	cursorRow int
}

func (m *cursorModel) Length() int { return m.length }

func (m *cursorModel) Cols() int { return 80 }

func (m *cursorModel) Line(int) []termdata.Cell { return nil }

func (m *cursorModel) Cursor() (int, int) { return m.cursorRow, 0 }

func (m *cursorModel) Write(context.Context, []byte) error { return nil }

func TestMaxScrollPixels(t *testing.T) {
	tests := []struct {
		name       string
		bufferLen  int
		rows       int
		lineHeight float64
		want       float64
	}{
		{"buffer fits viewport", 20, 30, 20, 0},
		{"buffer equals viewport", 30, 30, 20, 0},
		{"deep scrollback", 1000, 30, 20, 19400},
		{"single extra row", 31, 30, 20, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MaxScrollPixels(tt.bufferLen, tt.rows, tt.lineHeight)
			if got != tt.want {
				t.Errorf("MaxScrollPixels() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScrollBy_ClampsToRange(t *testing.T) {
	m := NewManager()

	// A huge delta lands exactly on max scroll.
	if !m.ScrollBy(1_000_000, 1000, 30, 20) {
		t.Fatal("expected position change")
	}
	if got := m.ViewportY(); got != 19400 {
		t.Errorf("ViewportY() = %v, want 19400", got)
	}

	// At the bottom boundary, a further positive delta is a no-op.
	if m.ScrollBy(1, 1000, 30, 20) {
		t.Error("expected false at bottom boundary")
	}
	if got := m.ViewportY(); got != 19400 {
		t.Errorf("ViewportY() moved at boundary: %v", got)
	}

	// And back past the top clamps at zero.
	if !m.ScrollBy(-1_000_000, 1000, 30, 20) {
		t.Fatal("expected position change")
	}
	if m.ScrollBy(-1, 1000, 30, 20) {
		t.Error("expected false at top boundary")
	}
	if got := m.ViewportY(); got != 0 {
		t.Errorf("ViewportY() = %v, want 0", got)
	}
}

func TestScrollBy_InvariantHolds(t *testing.T) {
	m := NewManager()
	deltas := []float64{500, -120, 99999, -3, 0.5, -99999, 42.25}
	for _, d := range deltas {
		m.ScrollBy(d, 1000, 30, 20)
		y := m.ViewportY()
		if y < 0 || y > 19400 {
			t.Fatalf("viewportY %v out of [0, 19400] after delta %v", y, d)
		}
	}
}

func TestUpdateFollowState(t *testing.T) {
	m := NewManager()

	// Scroll away from the bottom: follow off, lock released.
	m.SetLock(true)
	m.ScrollBy(19400, 1000, 30, 20)
	if !m.FollowEnabled() {
		t.Fatal("follow should be on at the bottom")
	}
	m.ScrollBy(-200, 1000, 30, 20)
	if m.FollowEnabled() {
		t.Error("follow should be off after scrolling away")
	}
	if m.LockEnabled() {
		t.Error("lock must be released when follow turns off")
	}

	// Within one line height of max scroll still counts as at bottom.
	m.ScrollTo(19400-19, 1000, 30, 20)
	if !m.FollowEnabled() {
		t.Error("follow should be on within the at-bottom tolerance")
	}
}

func TestSetLock_ForcesFollow(t *testing.T) {
	m := NewManager()
	m.SetFollow(false)

	m.SetLock(true)
	if !m.FollowEnabled() {
		t.Error("enabling lock must force follow on")
	}

	m.SetLock(false)
	if !m.FollowEnabled() {
		t.Error("disabling lock must not touch follow")
	}
}

func TestSetFollow_OffReleasesLock(t *testing.T) {
	m := NewManager()
	m.SetLock(true)
	m.SetFollow(false)
	if m.LockEnabled() {
		t.Error("disabling follow must release lock")
	}
}

func TestFollowCursor_LockSnapsToBottom(t *testing.T) {
	m := NewManager()
	m.SetLock(true)
	model := &cursorModel{length: 1000, cursorRow: 100}

	m.FollowCursor(model, 20, 30)
	if got := m.ViewportY(); got != 19400 {
		t.Errorf("ViewportY() = %v, want max scroll 19400", got)
	}
}

func TestFollowCursor_MinimalMovement(t *testing.T) {
	tests := []struct {
		name      string
		viewportY float64
		cursorRow int
		want      float64
	}{
		{"cursor already visible", 2000, 110, 2000},
		{"cursor below viewport", 0, 100, (100 - 30 + 1) * 20},
		{"cursor above viewport", 4000, 100, 2000},
		{"cursor at last visible line", 2000, 129, 2000},
		{"cursor one past last visible line", 2000, 130, 2020},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager()
			m.Programmatic(func() {
				m.ScrollTo(tt.viewportY, 1000, 30, 20)
			})
			m.SetFollow(true)

			model := &cursorModel{length: 1000, cursorRow: tt.cursorRow}
			m.FollowCursor(model, 20, 30)
			if got := m.ViewportY(); got != tt.want {
				t.Errorf("ViewportY() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFollowCursor_NoOpWhenNotFollowing(t *testing.T) {
	m := NewManager()
	m.SetFollow(false)
	model := &cursorModel{length: 1000, cursorRow: 999}

	m.FollowCursor(model, 20, 30)
	if got := m.ViewportY(); got != 0 {
		t.Errorf("ViewportY() = %v, want 0", got)
	}
}

func TestProgrammatic_SuppressesFollowRecalc(t *testing.T) {
	m := NewManager()
	m.SetLock(true)

	// A programmatic scroll away from the bottom must not downgrade
	// follow or lock.
	m.Programmatic(func() {
		m.ScrollBy(100, 1000, 30, 20)
	})
	if !m.FollowEnabled() || !m.LockEnabled() {
		t.Error("programmatic scroll must not recompute follow state")
	}
	if m.ProgrammaticActive() {
		t.Error("programmatic flag leaked past the bracket")
	}
}

func TestReset(t *testing.T) {
	m := NewManager()
	m.ScrollBy(500, 1000, 30, 20)
	m.SetFollow(false)
	m.Reset()

	if m.ViewportY() != 0 || !m.FollowEnabled() || m.LockEnabled() {
		t.Errorf("Reset left state viewportY=%v follow=%v lock=%v",
			m.ViewportY(), m.FollowEnabled(), m.LockEnabled())
	}
}
