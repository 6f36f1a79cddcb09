package loop

import (
	"context"
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestPostRunsInOrder(t *testing.T) {
	l := New(NewManualClock(epoch))
	var got []int
	for i := 1; i <= 3; i++ {
		i := i
		l.Post(func() { got = append(got, i) })
	}

	if ran := l.RunDue(); ran != 3 {
		t.Fatalf("expected 3 tasks to run, got %d", ran)
	}
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Errorf("unexpected order %v", got)
	}
}

func TestAfterFuncFiresOnceWhenDue(t *testing.T) {
	clock := NewManualClock(epoch)
	l := New(clock)
	fired := 0
	l.AfterFunc(100*time.Millisecond, func() { fired++ })

	clock.Advance(99 * time.Millisecond)
	l.RunDue()
	if fired != 0 {
		t.Fatalf("fired early")
	}

	clock.Advance(time.Millisecond)
	l.RunDue()
	clock.Advance(time.Second)
	l.RunDue()
	if fired != 1 {
		t.Errorf("expected exactly one firing, got %d", fired)
	}
	if l.Pending() != 0 {
		t.Errorf("expected empty loop, %d pending", l.Pending())
	}
}

func TestStopPreventsCallback(t *testing.T) {
	clock := NewManualClock(epoch)
	l := New(clock)
	fired := false
	h := l.AfterFunc(time.Second, func() { fired = true })

	if !h.Stop() {
		t.Error("expected Stop to report a pending task")
	}
	if h.Stop() {
		t.Error("second Stop should report false")
	}

	clock.Advance(2 * time.Second)
	l.RunDue()
	if fired {
		t.Error("stopped task fired")
	}
}

func TestStopFromEarlierCallbackAtSameInstant(t *testing.T) {
	clock := NewManualClock(epoch)
	l := New(clock)
	var late *Handle
	fired := false
	l.AfterFunc(time.Second, func() { late.Stop() })
	late = l.AfterFunc(time.Second, func() { fired = true })

	clock.Advance(time.Second)
	l.RunDue()
	if fired {
		t.Error("task cancelled by an earlier callback still ran")
	}
}

func TestEveryFixedCadence(t *testing.T) {
	clock := NewManualClock(epoch)
	l := New(clock)
	ticks := 0
	l.Every(50*time.Millisecond, func() { ticks++ })

	clock.Step(l, time.Second, 10*time.Millisecond)
	if ticks != 20 {
		t.Errorf("expected 20 ticks in one second, got %d", ticks)
	}
}

func TestEverySkipsMissedPeriods(t *testing.T) {
	clock := NewManualClock(epoch)
	l := New(clock)
	ticks := 0
	l.Every(50*time.Millisecond, func() { ticks++ })

	clock.Advance(time.Second)
	l.RunDue()
	if ticks != 1 {
		t.Errorf("expected a single catch-up tick, got %d", ticks)
	}

	clock.Advance(50 * time.Millisecond)
	l.RunDue()
	if ticks != 2 {
		t.Errorf("expected cadence to resume, got %d", ticks)
	}
}

func TestEveryStopFromInsideCallback(t *testing.T) {
	clock := NewManualClock(epoch)
	l := New(clock)
	ticks := 0
	var h *Handle
	h = l.Every(10*time.Millisecond, func() {
		ticks++
		if ticks == 3 {
			h.Stop()
		}
	})

	clock.Step(l, 100*time.Millisecond, 10*time.Millisecond)
	if ticks != 3 {
		t.Errorf("expected ticking to stop at 3, got %d", ticks)
	}
}

func TestPanickingTaskDoesNotStopLoop(t *testing.T) {
	l := New(NewManualClock(epoch))
	after := false
	l.Post(func() { panic("boom") })
	l.Post(func() { after = true })

	l.RunDue()
	if !after {
		t.Error("task after a panic did not run")
	}
}

func TestRunPumpsUntilCancelled(t *testing.T) {
	l := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	fired := make(chan struct{})
	l.AfterFunc(5*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer never fired under Run")
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
