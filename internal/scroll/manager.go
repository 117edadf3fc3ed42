// Package scroll owns the pixel-accurate viewport position over the
// terminal buffer. It is the single writer of viewport state: remote
// output follow, wheel input, touch drag, gesture scrolling, and momentum
// all route through the clamped mutators here.
//
// Positions are pixels rather than lines because the data model's own
// scroll API is line-granular; fractional offsets are realized by the
// renderer as a sub-row transform on the first visible row.
package scroll

import (
	"math"

	"github.com/ptyglass/ptyglass/internal/termdata"
)

// DefaultAtBottomTolerance is how close to max scroll, in line heights,
// the viewport may sit and still count as "at the bottom".
const DefaultAtBottomTolerance = 1.0

// Manager is the state machine over the viewport offset and the
// follow/lock flags. It is not safe for concurrent use; all callers run
// on the frame loop.
type Manager struct {
	viewportY    float64
	follow       bool
	lock         bool
	programmatic bool

	// atBottomTolerance is in line heights.
	atBottomTolerance float64
}

// NewManager creates a Manager positioned at the top with follow enabled,
// the state a fresh session starts in.
func NewManager() *Manager {
	return &Manager{
		follow:            true,
		atBottomTolerance: DefaultAtBottomTolerance,
	}
}

// SetAtBottomTolerance overrides the "at bottom" tolerance in line heights.
func (m *Manager) SetAtBottomTolerance(lines float64) {
	if lines >= 0 {
		m.atBottomTolerance = lines
	}
}

// MaxScrollPixels returns the highest valid viewport offset for a buffer
// of bufferLen rows shown rows-at-a-time at lineHeight pixels per row.
func MaxScrollPixels(bufferLen, rows int, lineHeight float64) float64 {
	if bufferLen <= rows {
		return 0
	}
	return float64(bufferLen-rows) * lineHeight
}

// ViewportY returns the current viewport offset in pixels.
func (m *Manager) ViewportY() float64 { return m.viewportY }

// FollowEnabled reports whether output auto-scroll is active.
func (m *Manager) FollowEnabled() bool { return m.follow }

// LockEnabled reports whether scroll lock (hard pin to bottom) is active.
func (m *Manager) LockEnabled() bool { return m.lock }

// ScrollBy moves the viewport by delta pixels, clamped to the valid range.
// It returns false when the position did not change, which callers use to
// detect boundary hits. Manual scrolls recompute the follow state; scrolls
// inside a Programmatic bracket do not.
func (m *Manager) ScrollBy(delta float64, bufferLen, rows int, lineHeight float64) bool {
	maxScroll := MaxScrollPixels(bufferLen, rows, lineHeight)
	next := math.Min(math.Max(m.viewportY+delta, 0), maxScroll)
	if next == m.viewportY {
		return false
	}
	m.viewportY = next
	if !m.programmatic {
		m.UpdateFollowState(bufferLen, rows, lineHeight)
	}
	return true
}

// ScrollTo moves the viewport to an absolute pixel offset, clamped.
func (m *Manager) ScrollTo(y float64, bufferLen, rows int, lineHeight float64) bool {
	return m.ScrollBy(y-m.viewportY, bufferLen, rows, lineHeight)
}

// UpdateFollowState recomputes follow from the viewport position: within
// the at-bottom tolerance of max scroll means follow stays on. Scrolling
// away from the bottom disables follow and, with it, scroll lock. Lock is
// only ever downgraded here, never promoted.
func (m *Manager) UpdateFollowState(bufferLen, rows int, lineHeight float64) {
	maxScroll := MaxScrollPixels(bufferLen, rows, lineHeight)
	atBottom := m.viewportY >= maxScroll-m.atBottomTolerance*lineHeight
	m.follow = atBottom
	if !atBottom {
		m.lock = false
	}
}

// SetLock enables or disables scroll lock. Enabling lock always forces
// follow on; disabling lock leaves follow untouched.
func (m *Manager) SetLock(on bool) {
	m.lock = on
	if on {
		m.follow = true
	}
}

// SetFollow enables or disables follow directly. Disabling follow also
// releases scroll lock, matching UpdateFollowState's downgrade rule.
func (m *Manager) SetFollow(on bool) {
	m.follow = on
	if !on {
		m.lock = false
	}
}

// FollowCursor scrolls so the cursor stays visible. It is a no-op unless
// follow is enabled. With scroll lock the viewport snaps to max scroll;
// otherwise it moves the minimum amount needed to bring the cursor row
// into the visible window.
func (m *Manager) FollowCursor(model termdata.Model, lineHeight float64, rows int) {
	if !m.follow {
		return
	}

	bufferLen := model.Length()
	maxScroll := MaxScrollPixels(bufferLen, rows, lineHeight)

	m.Programmatic(func() {
		if m.lock {
			m.viewportY = maxScroll
			return
		}

		cursorRow, _ := model.Cursor()
		startLine := math.Floor(m.viewportY / lineHeight)
		endLine := startLine + float64(rows) - 1

		var target float64
		switch {
		case float64(cursorRow) < startLine:
			target = float64(cursorRow) * lineHeight
		case float64(cursorRow) > endLine:
			target = float64(cursorRow-rows+1) * lineHeight
		default:
			return
		}
		m.viewportY = math.Min(math.Max(target, 0), maxScroll)
	})
}

// Programmatic runs fn with the programmatic-scroll flag set, suppressing
// re-entrant follow-state recalculation during auto-scroll.
func (m *Manager) Programmatic(fn func()) {
	m.programmatic = true
	defer func() { m.programmatic = false }()
	fn()
}

// ProgrammaticActive reports whether a programmatic bracket is open.
func (m *Manager) ProgrammaticActive() bool { return m.programmatic }

// Reset restores the initial state. Used on reconnect and resize.
func (m *Manager) Reset() {
	m.viewportY = 0
	m.follow = true
	m.lock = false
	m.programmatic = false
}
