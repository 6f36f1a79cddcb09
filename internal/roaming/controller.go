// Package roaming moves the overlay window around the work area, bouncing
// off its edges, and reports every step to movement listeners.
package roaming

import (
	"errors"
	"image"
	"log/slog"
	"math"
	"time"

	"github.com/Rorical/RoriBuddy/internal/geom"
	"github.com/Rorical/RoriBuddy/internal/loop"
)

// TickInterval is the fixed roaming cadence (20 Hz).
const TickInterval = 50 * time.Millisecond

// DefaultSpeed is the distance travelled per tick, in pixels.
const DefaultSpeed = 2.0

var (
	ErrInvalidSpeed = errors.New("roaming: speed must be positive")
	ErrNoWorkArea   = errors.New("roaming: work area unavailable")
)

// Window is what the controller needs from the hosting window.
type Window interface {
	Bounds() (geom.Rect, error)
	SetPosition(x, y int)
	Visible() bool
	WorkArea() (geom.Rect, error)
}

// MovementListener receives the direction committed on each tick.
type MovementListener func(dir geom.Direction)

// Controller owns the window's roaming position and bounce direction.
// Start, Stop and Tick must run on the scheduler's goroutine.
type Controller struct {
	window    Window
	sched     loop.Scheduler
	listeners []MovementListener

	speed     float64
	dir       geom.Direction
	pos       geom.Point
	committed image.Point
	synced    bool
	ticker    *loop.Handle
}

// NewController creates a stopped controller heading down-right.
func NewController(window Window, sched loop.Scheduler) *Controller {
	return &Controller{
		window: window,
		sched:  sched,
		dir:    geom.DiagonalDown,
	}
}

// OnMovement registers a listener for movement signals.
func (c *Controller) OnMovement(fn MovementListener) {
	if fn != nil {
		c.listeners = append(c.listeners, fn)
	}
}

// Start begins ticking. A zero initial direction keeps the direction left
// over from a previous session. Starting a running controller is a no-op.
func (c *Controller) Start(speed float64, initial geom.Direction) error {
	if c.ticker != nil {
		return nil
	}
	if speed <= 0 || math.IsNaN(speed) || math.IsInf(speed, 0) {
		return ErrInvalidSpeed
	}
	if initial != (geom.Direction{}) {
		c.dir = initial.Normalize()
	}
	c.speed = speed
	c.synced = false
	c.ticker = c.sched.Every(TickInterval, c.Tick)
	slog.Debug("roaming started", "speed", speed, "dx", c.dir.X, "dy", c.dir.Y)
	return nil
}

// Stop halts ticking. The direction is kept for the next Start.
func (c *Controller) Stop() {
	if c.ticker == nil {
		return
	}
	c.ticker.Stop()
	c.ticker = nil
	slog.Debug("roaming stopped")
}

// Running reports whether a tick source is active.
func (c *Controller) Running() bool {
	return c.ticker != nil
}

// Direction returns the current bounce direction.
func (c *Controller) Direction() geom.Direction {
	return c.dir
}

// Position returns the last committed position.
func (c *Controller) Position() geom.Point {
	return c.pos
}

// Speed returns the speed of the current or last session.
func (c *Controller) Speed() float64 {
	return c.speed
}

// Tick advances the window one step. Transient faults skip the tick.
func (c *Controller) Tick() {
	if c.window == nil || !c.window.Visible() {
		return
	}
	area, err := c.window.WorkArea()
	if err != nil || area.Empty() {
		slog.Debug("roaming tick skipped", "reason", "work area", "err", err)
		return
	}
	bounds, err := c.window.Bounds()
	if err != nil {
		slog.Debug("roaming tick skipped", "reason", "bounds", "err", err)
		return
	}
	c.resync(bounds)

	newX := c.pos.X + float64(c.dir.X)*c.speed
	newY := c.pos.Y + float64(c.dir.Y)*c.speed
	newX, c.dir.X = bounce(newX, bounds.Width, area.X, area.Right(), c.dir.X)
	newY, c.dir.Y = bounce(newY, bounds.Height, area.Y, area.Bottom(), c.dir.Y)

	c.pos = geom.Point{X: newX, Y: newY}
	c.committed = image.Pt(int(math.Round(newX)), int(math.Round(newY)))
	c.synced = true
	c.window.SetPosition(c.committed.X, c.committed.Y)

	for _, fn := range c.listeners {
		fn(c.dir)
	}
}

// resync adopts the window's position when it was moved by someone else,
// e.g. the user dragging it.
func (c *Controller) resync(bounds geom.Rect) {
	if c.synced && bounds.X == c.committed.X && bounds.Y == c.committed.Y {
		return
	}
	c.pos = geom.Point{X: float64(bounds.X), Y: float64(bounds.Y)}
	c.committed = image.Pt(bounds.X, bounds.Y)
	c.synced = true
}

// bounce reflects dir when the candidate span [v, v+size] touches or
// crosses [lo, hi], and clamps v back inside.
func bounce(v float64, size, lo, hi, dir int) (float64, int) {
	low := float64(lo)
	high := float64(hi - size)
	if v <= low || v+float64(size) >= float64(hi) {
		dir = -dir
		v = math.Max(low, math.Min(v, high))
	}
	return v, dir
}
