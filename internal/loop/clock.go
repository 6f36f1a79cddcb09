package loop

import (
	"sync"
	"time"
)

// Clock supplies the current time to the loop.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

// ManualClock only moves when told to. Tests pair it with Loop.RunDue.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock returns a clock frozen at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Step advances the clock in increments of step up to total, pumping l
// after every increment so periodic tasks fire at each boundary.
func (c *ManualClock) Step(l *Loop, total, step time.Duration) {
	for elapsed := time.Duration(0); elapsed < total; elapsed += step {
		d := step
		if rest := total - elapsed; rest < d {
			d = rest
		}
		c.Advance(d)
		l.RunDue()
	}
}
