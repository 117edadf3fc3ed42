// Package gesture classifies touch input into taps, double taps, long
// presses, swipes and scroll gestures. The recognizer is a pure state
// machine driven by explicit timestamps: hosts feed touch events plus a
// periodic Tick, and the recognizer never starts its own timers, which
// keeps every deadline deterministic under test.
package gesture

import (
	"math"
	"time"
)

// Point is a touch position in pixels.
type Point struct {
	X float64
	Y float64
}

// Direction is the cardinal direction of a recognized swipe.
type Direction int

const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight
)

func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	}
	return "unknown"
}

// Config holds the recognizer thresholds. All distances are pixels,
// all velocities pixels per millisecond.
type Config struct {
	LongPress         time.Duration
	DoubleTapInterval time.Duration
	DoubleTapRadius   float64
	ScrollThreshold   float64
	ScrollWindow      time.Duration
	MinScrollDelta    float64
	SwipeMinDistance  float64
	SwipeMaxDuration  time.Duration
	SwipeMinVelocity  float64
	SwipeAngleDegrees float64
	FeedbackDuration  time.Duration
}

// DefaultConfig returns the tuned recognizer thresholds.
func DefaultConfig() Config {
	return Config{
		LongPress:         500 * time.Millisecond,
		DoubleTapInterval: 300 * time.Millisecond,
		DoubleTapRadius:   20,
		ScrollThreshold:   20,
		ScrollWindow:      200 * time.Millisecond,
		MinScrollDelta:    10,
		SwipeMinDistance:  50,
		SwipeMaxDuration:  300 * time.Millisecond,
		SwipeMinVelocity:  0.1,
		SwipeAngleDegrees: 30,
		FeedbackDuration:  500 * time.Millisecond,
	}
}

// tapCancelDistance is how far a touch may wander before it stops being
// a tap candidate. Long-press tolerates movement up to ScrollThreshold.
func (c Config) tapCancelDistance() float64 { return c.SwipeMinDistance / 4 }

// singleTapTimeout is how long a finished tap waits for a second tap
// before it is reported as a single tap.
func (c Config) singleTapTimeout() time.Duration {
	t := c.DoubleTapInterval
	if lp := c.LongPress + 50*time.Millisecond; lp > t {
		t = lp
	}
	return t
}

// Callbacks receives recognized gestures. Nil fields are skipped.
type Callbacks struct {
	Tap       func(p Point)
	DoubleTap func(p Point)
	LongPress func(p Point)
	Swipe     func(d Direction)

	// ScrollStart fires once when a touch converts into a scroll.
	// Scroll reports incremental deltas; positive dy means the finger
	// moved down. ScrollEnd reports the release velocity in px/ms for
	// momentum handoff.
	ScrollStart func()
	Scroll      func(dx, dy float64)
	ScrollEnd   func(velocityY float64)

	// TwoFingerScroll reports incremental vertical deltas for a
	// two-finger drag.
	TwoFingerScroll func(dy float64)

	// Feedback receives a short gesture label for on-screen display and
	// an empty string when the label should be hidden again.
	Feedback func(text string)
}

// state is the phase of the current touch sequence: one finger down with
// tap and long-press still possible (single), tap cancelled by movement
// with swipe and long-press still possible (moved), irrevocably converted
// to a scroll (scrolling), two fingers down (twoFinger), or already
// reported and waiting for the touch to end (consumed).
type state int

const (
	stateIdle state = iota
	stateSingle
	stateMoved
	stateScrolling
	stateTwoFinger
	stateConsumed
)

type sample struct {
	p Point
	t time.Time
}

// Recognizer is the touch gesture state machine. It is not safe for
// concurrent use; hosts drive it from their event loop.
type Recognizer struct {
	cfg Config
	cb  Callbacks

	st        state
	start     sample
	last      sample
	history   [5]sample
	histLen   int
	histNext  int
	accumDX   float64
	accumDY   float64
	twoFinger Point

	longPressAt time.Time // zero when unarmed

	// pendingTap holds a finished first tap awaiting a possible second.
	pendingTap   sample
	tapPending   bool
	tapDeadline  time.Time
	feedbackHide time.Time
}

// NewRecognizer creates a Recognizer with the given thresholds.
func NewRecognizer(cfg Config, cb Callbacks) *Recognizer {
	return &Recognizer{cfg: cfg, cb: cb}
}

// TouchStart begins a gesture. A second touch start within the double
// tap window and radius fires DoubleTap immediately rather than waiting
// for the touch to end.
func (r *Recognizer) TouchStart(points []Point, now time.Time) {
	if len(points) == 0 {
		return
	}
	if len(points) >= 2 {
		r.st = stateTwoFinger
		r.twoFinger = midpoint(points[0], points[1])
		r.longPressAt = time.Time{}
		return
	}

	p := points[0]
	if r.tapPending && now.Sub(r.pendingTap.t) <= r.cfg.DoubleTapInterval &&
		dist(p, r.pendingTap.p) <= r.cfg.DoubleTapRadius {
		r.tapPending = false
		r.st = stateConsumed
		r.emitFeedback("double tap", now)
		if r.cb.DoubleTap != nil {
			r.cb.DoubleTap(p)
		}
		return
	}
	// A touch that is not a second tap resolves the pending one now.
	r.flushPendingTap()

	r.st = stateSingle
	r.start = sample{p: p, t: now}
	r.last = r.start
	r.histLen, r.histNext = 0, 0
	r.pushSample(r.start)
	r.accumDX, r.accumDY = 0, 0
	r.longPressAt = now.Add(r.cfg.LongPress)
}

// TouchMove updates an in-progress gesture.
func (r *Recognizer) TouchMove(points []Point, now time.Time) {
	if len(points) == 0 {
		return
	}

	if r.st == stateTwoFinger {
		if len(points) >= 2 {
			mid := midpoint(points[0], points[1])
			dy := mid.Y - r.twoFinger.Y
			r.twoFinger = mid
			if r.cb.TwoFingerScroll != nil && dy != 0 {
				r.cb.TwoFingerScroll(dy)
			}
		}
		return
	}

	p := points[0]
	cur := sample{p: p, t: now}

	switch r.st {
	case stateSingle, stateMoved:
		r.pushSample(cur)
		moved := dist(p, r.start.p)
		// Cumulative movement past the threshold early in the touch
		// irrevocably turns the sequence into a scroll.
		if moved > r.cfg.ScrollThreshold && now.Sub(r.start.t) <= r.cfg.ScrollWindow {
			r.st = stateScrolling
			r.longPressAt = time.Time{}
			// The first delta covers the whole displacement so the
			// content catches up with the finger.
			r.accumDX = p.X - r.start.p.X
			r.accumDY = p.Y - r.start.p.Y
			if r.cb.ScrollStart != nil {
				r.cb.ScrollStart()
			}
			r.flushScroll()
			break
		}
		if moved > r.cfg.ScrollThreshold {
			r.longPressAt = time.Time{}
		}
		if moved > r.cfg.tapCancelDistance() {
			r.st = stateMoved
		}
	case stateScrolling:
		r.pushSample(cur)
		r.accumDX += p.X - r.last.p.X
		r.accumDY += p.Y - r.last.p.Y
		r.flushScroll()
	}
	r.last = cur
}

// TouchEnd finishes a gesture.
func (r *Recognizer) TouchEnd(now time.Time) {
	st := r.st
	r.st = stateIdle
	r.longPressAt = time.Time{}

	switch st {
	case stateSingle:
		// A clean tap waits for a possible second tap before firing.
		r.pendingTap = sample{p: r.last.p, t: now}
		r.tapPending = true
		r.tapDeadline = now.Add(r.cfg.singleTapTimeout())
	case stateMoved:
		if d, ok := r.swipeDirection(now); ok {
			r.emitFeedback("swipe "+d.String(), now)
			if r.cb.Swipe != nil {
				r.cb.Swipe(d)
			}
		}
	case stateScrolling:
		// A converted scroll never becomes a swipe; the release velocity
		// goes to the momentum scroller instead.
		if r.cb.ScrollEnd != nil {
			r.cb.ScrollEnd(r.releaseVelocityY())
		}
	}
}

// TouchCancel aborts the gesture without reporting anything.
func (r *Recognizer) TouchCancel() {
	r.st = stateIdle
	r.longPressAt = time.Time{}
	r.tapPending = false
}

// Tick advances the recognizer's deadlines: long press, the single-tap
// wait, and feedback auto-hide. Hosts call it from their frame cycle.
func (r *Recognizer) Tick(now time.Time) {
	if !r.longPressAt.IsZero() && !now.Before(r.longPressAt) {
		r.longPressAt = time.Time{}
		if r.st == stateSingle || r.st == stateMoved {
			r.st = stateConsumed
			r.emitFeedback("long press", now)
			if r.cb.LongPress != nil {
				r.cb.LongPress(r.last.p)
			}
		}
	}
	if r.tapPending && !now.Before(r.tapDeadline) {
		r.flushPendingTap()
	}
	if !r.feedbackHide.IsZero() && !now.Before(r.feedbackHide) {
		r.feedbackHide = time.Time{}
		if r.cb.Feedback != nil {
			r.cb.Feedback("")
		}
	}
}

func (r *Recognizer) flushPendingTap() {
	if !r.tapPending {
		return
	}
	r.tapPending = false
	if r.cb.Tap != nil {
		r.cb.Tap(r.pendingTap.p)
	}
}

// flushScroll emits the accumulated delta once it is large enough to be
// intentional, filtering out sensor jitter.
func (r *Recognizer) flushScroll() {
	if math.Hypot(r.accumDX, r.accumDY) < r.cfg.MinScrollDelta {
		return
	}
	if r.cb.Scroll != nil {
		r.cb.Scroll(r.accumDX, r.accumDY)
	}
	r.accumDX, r.accumDY = 0, 0
}

func (r *Recognizer) emitFeedback(text string, now time.Time) {
	if r.cb.Feedback == nil {
		return
	}
	r.cb.Feedback(text)
	r.feedbackHide = now.Add(r.cfg.FeedbackDuration)
}

// swipeDirection checks the finished touch against the swipe gate:
// minimum travel, maximum duration, minimum velocity, and alignment
// within the angle tolerance of a cardinal direction.
func (r *Recognizer) swipeDirection(end time.Time) (Direction, bool) {
	dx := r.last.p.X - r.start.p.X
	dy := r.last.p.Y - r.start.p.Y
	d := math.Hypot(dx, dy)
	if d < r.cfg.SwipeMinDistance {
		return 0, false
	}
	dur := end.Sub(r.start.t)
	if dur <= 0 || dur > r.cfg.SwipeMaxDuration {
		return 0, false
	}
	if d/float64(dur.Milliseconds()) < r.cfg.SwipeMinVelocity {
		return 0, false
	}

	angle := math.Abs(math.Atan2(dy, dx)) * 180 / math.Pi // 0=right, 180=left
	tol := r.cfg.SwipeAngleDegrees
	switch {
	case angle <= tol:
		return DirRight, true
	case angle >= 180-tol:
		return DirLeft, true
	case math.Abs(angle-90) <= tol && dy < 0:
		return DirUp, true
	case math.Abs(angle-90) <= tol:
		return DirDown, true
	}
	return 0, false
}

// releaseVelocityY derives the vertical release velocity in px/ms from
// the most recent movement samples.
func (r *Recognizer) releaseVelocityY() float64 {
	if r.histLen < 2 {
		return 0
	}
	newest := r.histAt(r.histLen - 1)
	oldest := r.histAt(0)
	ms := float64(newest.t.Sub(oldest.t).Milliseconds())
	if ms <= 0 {
		return 0
	}
	return (newest.p.Y - oldest.p.Y) / ms
}

func (r *Recognizer) pushSample(s sample) {
	r.history[r.histNext] = s
	r.histNext = (r.histNext + 1) % len(r.history)
	if r.histLen < len(r.history) {
		r.histLen++
	}
}

// histAt returns the i-th oldest retained sample.
func (r *Recognizer) histAt(i int) sample {
	start := (r.histNext - r.histLen + len(r.history)) % len(r.history)
	return r.history[(start+i)%len(r.history)]
}

func dist(a, b Point) float64 { return math.Hypot(a.X-b.X, a.Y-b.Y) }

func midpoint(a, b Point) Point {
	return Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}
