// Package input translates pointer input into viewport movement: wheel
// events are forwarded synchronously into the scroll manager, and drag
// release velocity is carried on as a decaying momentum scroll driven by
// the frame scheduler.
package input

import (
	"math"
	"time"

	"github.com/ptyglass/ptyglass/internal/frame"
	"github.com/ptyglass/ptyglass/internal/scroll"
)

// Geometry supplies the live dimensions every scroll mutation needs.
type Geometry interface {
	BufferLength() int
	Rows() int
	LineHeight() float64
}

// Mode is the unit of a wheel event's delta.
type Mode int

const (
	// ModePixel deltas are already pixels.
	ModePixel Mode = iota
	// ModeLine deltas are buffer rows; a typical notch reports 3 lines.
	ModeLine
	// ModePage deltas are visible pages.
	ModePage
)

// WheelEvent is one wheel notch or trackpad increment. Positive DeltaY
// scrolls toward newer content.
type WheelEvent struct {
	DeltaY float64
	Mode   Mode
}

// Wheel forwards wheel events into the scroll manager synchronously, in
// the same frame they arrive, so wheel response never waits a tick.
type Wheel struct {
	mgr *scroll.Manager
	geo Geometry
}

// NewWheel creates a wheel handler over the manager and geometry.
func NewWheel(mgr *scroll.Manager, geo Geometry) *Wheel {
	return &Wheel{mgr: mgr, geo: geo}
}

// Handle applies one wheel event, scaling the delta into pixels. It
// returns false when the viewport was already at the boundary.
func (w *Wheel) Handle(ev WheelEvent) bool {
	return w.mgr.ScrollBy(w.pixels(ev), w.geo.BufferLength(), w.geo.Rows(), w.geo.LineHeight())
}

func (w *Wheel) pixels(ev WheelEvent) float64 {
	switch ev.Mode {
	case ModeLine:
		return ev.DeltaY * w.geo.LineHeight()
	case ModePage:
		return ev.DeltaY * float64(w.geo.Rows()) * w.geo.LineHeight()
	}
	return ev.DeltaY
}

// Momentum tuning. Velocities are px/ms; steps are px per frame.
const (
	dragSlop         = 5.0
	launchVelocity   = 0.3
	momentumDecay    = 0.92
	momentumStopStep = 0.1
	frameMillis      = 1000.0 / 60.0
)

type dragSample struct {
	y float64
	t time.Time
}

// DragScroller turns press/move/release sequences into direct scrolling
// plus inertial follow-through. Movement within the slop radius is
// ignored so a sloppy click does not scroll. Content tracks the pointer:
// dragging down moves the viewport up.
//
// Not safe for concurrent use; callers run on the frame loop.
type DragScroller struct {
	mgr   *scroll.Manager
	geo   Geometry
	sched frame.Scheduler

	active  bool
	engaged bool
	startY  float64
	lastY   float64

	samples [5]dragSample
	sampLen int
	sampPos int

	// generation invalidates in-flight momentum callbacks on cancel,
	// new press, or teardown.
	generation uint64
}

// NewDragScroller creates a DragScroller running momentum on sched.
func NewDragScroller(mgr *scroll.Manager, geo Geometry, sched frame.Scheduler) *DragScroller {
	return &DragScroller{mgr: mgr, geo: geo, sched: sched}
}

// Press begins a drag at pointer position y. Any running momentum stops.
func (d *DragScroller) Press(y float64, now time.Time) {
	d.generation++
	d.active = true
	d.engaged = false
	d.startY = y
	d.lastY = y
	d.sampLen, d.sampPos = 0, 0
	d.push(dragSample{y: y, t: now})
}

// Move updates an active drag, scrolling once the slop is exceeded.
func (d *DragScroller) Move(y float64, now time.Time) {
	if !d.active {
		return
	}
	d.push(dragSample{y: y, t: now})
	if !d.engaged {
		if math.Abs(y-d.startY) <= dragSlop {
			return
		}
		d.engaged = true
	}
	delta := y - d.lastY
	d.lastY = y
	d.mgr.ScrollBy(-delta, d.geo.BufferLength(), d.geo.Rows(), d.geo.LineHeight())
}

// Release ends the drag and launches momentum if the release velocity
// clears the launch threshold.
func (d *DragScroller) Release(now time.Time) {
	if !d.active {
		return
	}
	d.active = false
	if !d.engaged {
		return
	}
	v := d.releaseVelocity()
	if math.Abs(v) <= launchVelocity {
		return
	}
	d.launchMomentum(-v)
}

// Cancel aborts the drag and any running momentum without scrolling.
func (d *DragScroller) Cancel() {
	d.generation++
	d.active = false
	d.engaged = false
}

// LaunchMomentum starts an inertial scroll from an external release
// velocity, in px/ms of pointer movement. Used by the touch gesture
// path, which tracks its own samples.
func (d *DragScroller) LaunchMomentum(pointerVelocity float64) {
	if math.Abs(pointerVelocity) <= launchVelocity {
		return
	}
	d.launchMomentum(-pointerVelocity)
}

// launchMomentum schedules the decay loop. v is viewport px/ms.
func (d *DragScroller) launchMomentum(v float64) {
	d.generation++
	gen := d.generation
	velocity := v

	var step frame.Callback
	step = func(time.Time) {
		if gen != d.generation {
			return
		}
		px := velocity * frameMillis
		if math.Abs(px) < momentumStopStep {
			return
		}
		if !d.mgr.ScrollBy(px, d.geo.BufferLength(), d.geo.Rows(), d.geo.LineHeight()) {
			return
		}
		velocity *= momentumDecay
		d.sched.Schedule(step)
	}
	d.sched.Schedule(step)
}

// releaseVelocity is the pointer velocity in px/ms over the two most
// recent samples.
func (d *DragScroller) releaseVelocity() float64 {
	if d.sampLen < 2 {
		return 0
	}
	newest := d.at(d.sampLen - 1)
	prev := d.at(d.sampLen - 2)
	ms := float64(newest.t.Sub(prev.t).Milliseconds())
	if ms <= 0 {
		return 0
	}
	return (newest.y - prev.y) / ms
}

func (d *DragScroller) push(s dragSample) {
	d.samples[d.sampPos] = s
	d.sampPos = (d.sampPos + 1) % len(d.samples)
	if d.sampLen < len(d.samples) {
		d.sampLen++
	}
}

func (d *DragScroller) at(i int) dragSample {
	start := (d.sampPos - d.sampLen + len(d.samples)) % len(d.samples)
	return d.samples[(start+i)%len(d.samples)]
}
