package input

import (
	"testing"
	"time"

	"github.com/ptyglass/ptyglass/internal/frame"
	"github.com/ptyglass/ptyglass/internal/scroll"
)

type fakeGeo struct {
	length     int
	rows       int
	lineHeight float64
}

func (g fakeGeo) BufferLength() int   { return g.length }
func (g fakeGeo) Rows() int           { return g.rows }
func (g fakeGeo) LineHeight() float64 { return g.lineHeight }

var geo = fakeGeo{length: 1000, rows: 30, lineHeight: 24}

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func at(ms int) time.Time { return t0.Add(time.Duration(ms) * time.Millisecond) }

func TestWheel_ModeScaling(t *testing.T) {
	tests := []struct {
		name string
		ev   WheelEvent
		want float64
	}{
		{"pixel", WheelEvent{DeltaY: 10, Mode: ModePixel}, 10},
		{"three lines", WheelEvent{DeltaY: 3, Mode: ModeLine}, 72},
		{"one page", WheelEvent{DeltaY: 1, Mode: ModePage}, 720},
		{"half page", WheelEvent{DeltaY: 0.5, Mode: ModePage}, 360},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mgr := scroll.NewManager()
			w := NewWheel(mgr, geo)
			if !w.Handle(tt.ev) {
				t.Fatal("Handle returned false for an in-range scroll")
			}
			if got := mgr.ViewportY(); got != tt.want {
				t.Errorf("viewportY = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWheel_BoundaryReturnsFalse(t *testing.T) {
	mgr := scroll.NewManager()
	w := NewWheel(mgr, geo)

	if w.Handle(WheelEvent{DeltaY: -3, Mode: ModeLine}) {
		t.Error("scrolling up at the top reported movement")
	}
}

func TestDrag_SlopSuppressesSmallMovement(t *testing.T) {
	mgr := scroll.NewManager()
	mgr.ScrollTo(1000, geo.length, geo.rows, geo.lineHeight)
	d := NewDragScroller(mgr, geo, frame.NewLoop())

	d.Press(100, at(0))
	d.Move(103, at(10))
	d.Move(98, at(20))

	if got := mgr.ViewportY(); got != 1000 {
		t.Errorf("viewportY = %v, want unchanged 1000 within slop", got)
	}
}

func TestDrag_ContentTracksPointer(t *testing.T) {
	mgr := scroll.NewManager()
	mgr.ScrollTo(1000, geo.length, geo.rows, geo.lineHeight)
	d := NewDragScroller(mgr, geo, frame.NewLoop())

	d.Press(100, at(0))
	d.Move(110, at(20)) // drag down -> scroll back toward older content

	if got := mgr.ViewportY(); got != 990 {
		t.Errorf("viewportY = %v, want 990", got)
	}
}

func TestDrag_SlowReleaseLaunchesNoMomentum(t *testing.T) {
	mgr := scroll.NewManager()
	mgr.ScrollTo(1000, geo.length, geo.rows, geo.lineHeight)
	loop := frame.NewLoop()
	d := NewDragScroller(mgr, geo, loop)

	d.Press(100, at(0))
	d.Move(110, at(20))
	d.Move(112, at(30)) // 0.2 px/ms, under the launch threshold
	d.Release(at(35))

	if loop.Pending() != 0 {
		t.Error("momentum scheduled below the launch velocity")
	}
	y := mgr.ViewportY()
	for i := 0; i < 10; i++ {
		loop.Tick(at(100 + i*16))
	}
	if mgr.ViewportY() != y {
		t.Error("viewport moved after a slow release")
	}
}

func TestDrag_MomentumDecaysAndStops(t *testing.T) {
	mgr := scroll.NewManager()
	mgr.ScrollTo(1000, geo.length, geo.rows, geo.lineHeight)
	loop := frame.NewLoop()
	d := NewDragScroller(mgr, geo, loop)

	d.Press(100, at(0))
	d.Move(120, at(20))
	d.Move(140, at(40)) // 1 px/ms at release
	d.Release(at(45))

	if loop.Pending() != 1 {
		t.Fatalf("pending = %d, want momentum scheduled", loop.Pending())
	}

	prev := mgr.ViewportY()
	loop.Tick(at(61))
	first := prev - mgr.ViewportY()
	if first <= 0 {
		t.Fatalf("first momentum step moved viewport by %v, want upward motion", -first)
	}
	prev = mgr.ViewportY()
	loop.Tick(at(77))
	second := prev - mgr.ViewportY()
	if second <= 0 || second >= first {
		t.Errorf("second step = %v, want smaller than first %v", second, first)
	}

	for i := 0; i < 200 && loop.Pending() > 0; i++ {
		loop.Tick(at(100 + i*16))
	}
	if loop.Pending() != 0 {
		t.Error("momentum never ran down")
	}
}

func TestDrag_MomentumStopsAtBoundary(t *testing.T) {
	small := fakeGeo{length: 32, rows: 30, lineHeight: 24} // max scroll 48
	mgr := scroll.NewManager()
	loop := frame.NewLoop()
	d := NewDragScroller(mgr, small, loop)

	d.Press(100, at(0))
	d.Move(80, at(10))
	d.Move(60, at(20)) // fast upward drag toward newest content
	d.Release(at(25))

	for i := 0; i < 20 && loop.Pending() > 0; i++ {
		loop.Tick(at(40 + i*16))
	}
	if got := mgr.ViewportY(); got != 48 {
		t.Errorf("viewportY = %v, want clamped max 48", got)
	}
	if loop.Pending() != 0 {
		t.Error("momentum kept rescheduling after the boundary")
	}
}

func TestDrag_CancelStopsMomentum(t *testing.T) {
	mgr := scroll.NewManager()
	mgr.ScrollTo(1000, geo.length, geo.rows, geo.lineHeight)
	loop := frame.NewLoop()
	d := NewDragScroller(mgr, geo, loop)

	d.Press(100, at(0))
	d.Move(120, at(20))
	d.Move(140, at(40))
	d.Release(at(45))
	loop.Tick(at(61))

	d.Cancel()
	y := mgr.ViewportY()
	for i := 0; i < 10; i++ {
		loop.Tick(at(100 + i*16))
	}
	if mgr.ViewportY() != y {
		t.Error("viewport moved after cancel")
	}
}

func TestDrag_NewPressStopsMomentum(t *testing.T) {
	mgr := scroll.NewManager()
	mgr.ScrollTo(1000, geo.length, geo.rows, geo.lineHeight)
	loop := frame.NewLoop()
	d := NewDragScroller(mgr, geo, loop)

	d.Press(100, at(0))
	d.Move(120, at(20))
	d.Move(140, at(40))
	d.Release(at(45))
	loop.Tick(at(61))

	d.Press(200, at(80))
	y := mgr.ViewportY()
	for i := 0; i < 10; i++ {
		loop.Tick(at(100 + i*16))
	}
	if mgr.ViewportY() != y {
		t.Error("stale momentum survived a new press")
	}
}

func TestLaunchMomentum_Threshold(t *testing.T) {
	mgr := scroll.NewManager()
	mgr.ScrollTo(1000, geo.length, geo.rows, geo.lineHeight)
	loop := frame.NewLoop()
	d := NewDragScroller(mgr, geo, loop)

	d.LaunchMomentum(0.2)
	if loop.Pending() != 0 {
		t.Error("momentum launched below the threshold")
	}
	d.LaunchMomentum(1.0)
	if loop.Pending() != 1 {
		t.Error("momentum not launched above the threshold")
	}
}
