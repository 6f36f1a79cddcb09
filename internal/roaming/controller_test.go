package roaming

import (
	"errors"
	"testing"
	"time"

	"github.com/Rorical/RoriBuddy/internal/geom"
	"github.com/Rorical/RoriBuddy/internal/loop"
)

type fakeWindow struct {
	bounds    geom.Rect
	area      geom.Rect
	hidden    bool
	areaErr   error
	positions []geom.Rect
}

func (w *fakeWindow) Bounds() (geom.Rect, error) { return w.bounds, nil }

func (w *fakeWindow) SetPosition(x, y int) {
	w.bounds.X = x
	w.bounds.Y = y
	w.positions = append(w.positions, w.bounds)
}

func (w *fakeWindow) Visible() bool { return !w.hidden }

func (w *fakeWindow) WorkArea() (geom.Rect, error) {
	if w.areaErr != nil {
		return geom.Rect{}, w.areaErr
	}
	return w.area, nil
}

func newFixture(x, y int) (*fakeWindow, *loop.ManualClock, *loop.Loop, *Controller) {
	win := &fakeWindow{
		bounds: geom.Rect{X: x, Y: y, Width: 300, Height: 400},
		area:   geom.Rect{X: 0, Y: 0, Width: 1000, Height: 800},
	}
	clock := loop.NewManualClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	l := loop.New(clock)
	return win, clock, l, NewController(win, l)
}

func TestFirstTickMovesDiagonally(t *testing.T) {
	win, clock, l, c := newFixture(0, 0)
	if err := c.Start(2, geom.Direction{X: 1, Y: 1}); err != nil {
		t.Fatalf("start: %v", err)
	}

	clock.Advance(TickInterval)
	l.RunDue()

	if win.bounds.X != 2 || win.bounds.Y != 2 {
		t.Errorf("expected (2,2), got (%d,%d)", win.bounds.X, win.bounds.Y)
	}
	if c.Direction() != (geom.Direction{X: 1, Y: 1}) {
		t.Errorf("direction changed without a boundary hit: %+v", c.Direction())
	}
}

func TestRightEdgeReflectsAndClamps(t *testing.T) {
	win, _, _, c := newFixture(695, 100)
	c.speed = 5

	c.Tick()

	if c.Direction().X != -1 {
		t.Errorf("expected dir.x to flip to -1, got %d", c.Direction().X)
	}
	if win.bounds.X != 700 {
		t.Errorf("expected x clamped to 700, got %d", win.bounds.X)
	}
	if c.Direction().Y != 1 {
		t.Errorf("y direction should be untouched, got %d", c.Direction().Y)
	}
}

func TestTouchingRightEdgeCountsAsHit(t *testing.T) {
	// Right edge at 999, candidate 701 puts it at 1001 >= 1000.
	win, _, _, c := newFixture(699, 0)
	c.speed = 2

	c.Tick()

	if win.bounds.X != 700 {
		t.Errorf("expected x clamped to workArea.right-width=700, got %d", win.bounds.X)
	}
	if c.Direction().X != -1 {
		t.Errorf("expected reflection at the boundary, got dir.x=%d", c.Direction().X)
	}
	if win.bounds.Y != 2 {
		t.Errorf("expected y=2, got %d", win.bounds.Y)
	}
}

func TestWellInsideDoesNotReflect(t *testing.T) {
	win, _, _, c := newFixture(697, 0)
	c.speed = 2

	c.Tick()

	if win.bounds.X != 699 || c.Direction().X != 1 {
		t.Errorf("expected x=699 dir.x=1, got x=%d dir.x=%d", win.bounds.X, c.Direction().X)
	}
}

func TestCornerBouncesBothAxes(t *testing.T) {
	win, _, _, c := newFixture(699, 399)
	c.speed = 2

	c.Tick()

	if c.Direction() != (geom.Direction{X: -1, Y: -1}) {
		t.Errorf("expected both axes to reflect, got %+v", c.Direction())
	}
	if win.bounds.X != 700 || win.bounds.Y != 400 {
		t.Errorf("expected clamp to (700,400), got (%d,%d)", win.bounds.X, win.bounds.Y)
	}
}

func TestMotionStaysInsideWorkArea(t *testing.T) {
	win, clock, l, c := newFixture(350, 200)
	if err := c.Start(7, geom.Direction{X: -1, Y: 1}); err != nil {
		t.Fatalf("start: %v", err)
	}

	clock.Step(l, 30*time.Second, TickInterval)

	if len(win.positions) != 600 {
		t.Fatalf("expected 600 ticks, got %d", len(win.positions))
	}
	for i, p := range win.positions {
		if p.X < 0 || p.X > 700 || p.Y < 0 || p.Y > 400 {
			t.Fatalf("tick %d left the work area: (%d,%d)", i, p.X, p.Y)
		}
	}
}

func TestWorkAreaReReadEveryTick(t *testing.T) {
	win, _, _, c := newFixture(100, 100)
	c.speed = 2
	c.Tick()

	win.area = geom.Rect{X: 0, Y: 0, Width: 350, Height: 800}
	c.Tick()

	if win.bounds.X != 50 || c.Direction().X != -1 {
		t.Errorf("expected clamp into the shrunken area, got x=%d dir.x=%d", win.bounds.X, c.Direction().X)
	}
}

func TestHiddenWindowSkipsTick(t *testing.T) {
	win, _, _, c := newFixture(10, 10)
	c.speed = 2
	win.hidden = true
	signals := 0
	c.OnMovement(func(geom.Direction) { signals++ })

	c.Tick()

	if len(win.positions) != 0 || signals != 0 {
		t.Errorf("hidden window should not move or emit, moves=%d signals=%d", len(win.positions), signals)
	}
}

func TestWorkAreaErrorSkipsTick(t *testing.T) {
	win, _, _, c := newFixture(10, 10)
	c.speed = 2
	win.areaErr = errors.New("display gone")

	c.Tick()

	if len(win.positions) != 0 {
		t.Errorf("expected no movement when the work area is unavailable")
	}
}

func TestListenerSeesCommittedDirection(t *testing.T) {
	win, _, _, c := newFixture(699, 0)
	c.speed = 2
	var seen geom.Direction
	var seenX int
	c.OnMovement(func(d geom.Direction) {
		seen = d
		seenX = win.bounds.X
	})

	c.Tick()

	if seen.X != -1 {
		t.Errorf("listener saw stale direction %+v", seen)
	}
	if seenX != 700 {
		t.Errorf("listener ran before the position was committed, x=%d", seenX)
	}
}

func TestStartRejectsNonPositiveSpeed(t *testing.T) {
	_, _, _, c := newFixture(0, 0)
	for _, speed := range []float64{0, -1} {
		if err := c.Start(speed, geom.DiagonalDown); !errors.Is(err, ErrInvalidSpeed) {
			t.Errorf("speed %v: expected ErrInvalidSpeed, got %v", speed, err)
		}
	}
	if c.Running() {
		t.Error("controller should not be running after a rejected start")
	}
}

func TestStartTwiceKeepsOneTickSource(t *testing.T) {
	win, clock, l, c := newFixture(0, 0)
	if err := c.Start(2, geom.DiagonalDown); err != nil {
		t.Fatal(err)
	}
	if err := c.Start(2, geom.DiagonalDown); err != nil {
		t.Fatal(err)
	}
	if l.Pending() != 1 {
		t.Errorf("expected a single tick source, got %d", l.Pending())
	}

	clock.Advance(TickInterval)
	l.RunDue()
	if len(win.positions) != 1 {
		t.Errorf("expected one move per tick, got %d", len(win.positions))
	}
}

func TestStopIsIdempotentAndKeepsDirection(t *testing.T) {
	win, clock, l, c := newFixture(699, 0)
	c.Stop()

	if err := c.Start(2, geom.DiagonalDown); err != nil {
		t.Fatal(err)
	}
	clock.Advance(TickInterval)
	l.RunDue()
	c.Stop()
	c.Stop()

	moves := len(win.positions)
	clock.Advance(time.Second)
	l.RunDue()
	if len(win.positions) != moves {
		t.Error("window moved after Stop")
	}

	if err := c.Start(2, geom.Direction{}); err != nil {
		t.Fatal(err)
	}
	if c.Direction().X != -1 {
		t.Errorf("restart should resume the last direction, got %+v", c.Direction())
	}
}

func TestExternalMoveIsAdopted(t *testing.T) {
	win, _, _, c := newFixture(100, 100)
	c.speed = 2
	c.Tick()

	win.bounds.X, win.bounds.Y = 400, 300
	c.Tick()

	if win.bounds.X != 402 || win.bounds.Y != 302 {
		t.Errorf("expected roaming to continue from the dragged position, got (%d,%d)", win.bounds.X, win.bounds.Y)
	}
}

func TestFractionalSpeedAccumulates(t *testing.T) {
	win, _, _, c := newFixture(100, 100)
	c.speed = 0.5
	for i := 0; i < 4; i++ {
		c.Tick()
	}
	if win.bounds.X != 102 {
		t.Errorf("expected sub-pixel steps to add up to 2px, got x=%d", win.bounds.X)
	}
}
