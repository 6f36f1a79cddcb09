// Package loop provides the single-threaded scheduler every character and
// roaming callback runs on. Tasks may be queued from any goroutine but are
// only ever executed by whoever pumps the loop: either Run, or a host frame
// loop calling RunDue.
package loop

import (
	"container/heap"
	"context"
	"log/slog"
	"sync"
	"time"
)

// idleWait bounds how long Run sleeps when nothing is scheduled.
const idleWait = time.Minute

// Scheduler is the subset of Loop that components depend on.
type Scheduler interface {
	Post(fn func())
	AfterFunc(d time.Duration, fn func()) *Handle
	Every(d time.Duration, fn func()) *Handle
}

// Handle refers to a scheduled one-shot or periodic task.
type Handle struct {
	loop    *Loop
	fn      func()
	due     time.Time
	period  time.Duration
	seq     uint64
	index   int
	stopped bool
}

// Stop cancels the task. It reports whether the task was still pending.
// When called from the loop goroutine the callback is guaranteed not to run
// after Stop returns.
func (h *Handle) Stop() bool {
	if h == nil || h.loop == nil {
		return false
	}
	l := h.loop
	l.mu.Lock()
	defer l.mu.Unlock()
	if h.stopped {
		return false
	}
	h.stopped = true
	if h.index >= 0 {
		heap.Remove(&l.timers, h.index)
		return true
	}
	return false
}

// Loop is a cooperative scheduler with a single execution context.
type Loop struct {
	clock Clock

	mu     sync.Mutex
	posted []func()
	timers timerHeap
	seq    uint64
	wake   chan struct{}
}

// New creates a loop reading time from clock. A nil clock uses wall time.
func New(clock Clock) *Loop {
	if clock == nil {
		clock = ClockFunc(time.Now)
	}
	return &Loop{
		clock: clock,
		wake:  make(chan struct{}, 1),
	}
}

// Now returns the loop's notion of the current time.
func (l *Loop) Now() time.Time {
	return l.clock.Now()
}

// Post queues fn to run on the loop as soon as possible.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.posted = append(l.posted, fn)
	l.mu.Unlock()
	l.signal()
}

// AfterFunc runs fn once, d after now.
func (l *Loop) AfterFunc(d time.Duration, fn func()) *Handle {
	return l.schedule(d, 0, fn)
}

// Every runs fn every d, first at now+d. Periods missed because the loop
// was not pumped are skipped rather than replayed.
func (l *Loop) Every(d time.Duration, fn func()) *Handle {
	if d <= 0 {
		panic("loop: non-positive period")
	}
	return l.schedule(d, d, fn)
}

func (l *Loop) schedule(d, period time.Duration, fn func()) *Handle {
	h := &Handle{
		loop:   l,
		fn:     fn,
		due:    l.clock.Now().Add(d),
		period: period,
		index:  -1,
	}
	l.mu.Lock()
	l.seq++
	h.seq = l.seq
	heap.Push(&l.timers, h)
	l.mu.Unlock()
	l.signal()
	return h
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of queued posts and live timers.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.posted) + l.timers.Len()
}

// RunDue executes every posted task and every timer that is due, in order,
// and returns how many callbacks ran. Posted tasks run before timers.
func (l *Loop) RunDue() int {
	ran := 0
	for {
		fn := l.next()
		if fn == nil {
			return ran
		}
		l.invoke(fn)
		ran++
	}
}

func (l *Loop) next() func() {
	now := l.clock.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.posted) > 0 {
		fn := l.posted[0]
		l.posted[0] = nil
		l.posted = l.posted[1:]
		return fn
	}
	if l.timers.Len() == 0 {
		return nil
	}
	h := l.timers[0]
	if h.due.After(now) {
		return nil
	}
	if h.period > 0 {
		next := h.due.Add(h.period)
		for !next.After(now) {
			next = next.Add(h.period)
		}
		h.due = next
		heap.Fix(&l.timers, h.index)
	} else {
		heap.Pop(&l.timers)
		h.stopped = true
	}
	return h.fn
}

func (l *Loop) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("loop task panicked", "panic", r)
		}
	}()
	fn()
}

// untilNext returns how long Run may sleep before a timer is due.
func (l *Loop) untilNext() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.posted) > 0 {
		return 0
	}
	if l.timers.Len() == 0 {
		return idleWait
	}
	d := l.timers[0].due.Sub(l.clock.Now())
	if d < 0 {
		return 0
	}
	return d
}

// Run pumps the loop until ctx is cancelled. Use it when no host frame loop
// is available to call RunDue.
func (l *Loop) Run(ctx context.Context) error {
	timer := time.NewTimer(idleWait)
	defer timer.Stop()

	for {
		l.RunDue()
		timer.Reset(l.untilNext())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		case <-timer.C:
		}
	}
}

type timerHeap []*Handle

func (h timerHeap) Len() int { return len(h) }

// Less orders by deadline, then by scheduling order.
func (h timerHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].seq < h[j].seq
	}
	return h[i].due.Before(h[j].due)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	item := x.(*Handle)
	item.index = len(*h)
	*h = append(*h, item)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}
