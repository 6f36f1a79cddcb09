package animation

import (
	"log/slog"
	"time"

	"github.com/Rorical/RoriBuddy/internal/geom"
	"github.com/Rorical/RoriBuddy/internal/loop"
)

const (
	// MovingHold is how long moving lasts after the last movement signal.
	MovingHold = 1000 * time.Millisecond
	// TalkingHold is how long talking lasts after a chat response.
	TalkingHold = 2000 * time.Millisecond
)

// Machine holds one current state and at most one pending revert to idle.
// Every entry point must be called on the scheduler's goroutine.
type Machine struct {
	sched     loop.Scheduler
	state     State
	facing    geom.Direction
	revert    *loop.Handle
	observers []Observer
}

// NewMachine returns a machine resting in idle.
func NewMachine(sched loop.Scheduler) *Machine {
	return &Machine{
		sched:  sched,
		state:  Idle,
		facing: geom.DiagonalDown,
	}
}

// Observe registers an observer and immediately hands it the current
// snapshot.
func (m *Machine) Observe(o Observer) {
	if o == nil {
		return
	}
	m.observers = append(m.observers, o)
	o.ApplyState(m.Snapshot())
}

// Current returns the current state.
func (m *Machine) Current() State {
	return m.state
}

// Snapshot returns the current state with its label and facing.
func (m *Machine) Snapshot() Snapshot {
	return Snapshot{State: m.state, Label: m.state.Label(), Facing: m.facing}
}

// RevertPending reports whether an auto-revert is scheduled.
func (m *Machine) RevertPending() bool {
	return m.revert != nil
}

// OnMovementUpdate enters moving and restarts the one second countdown.
// A pending chat (thinking) takes precedence and is left alone.
func (m *Machine) OnMovementUpdate(dir geom.Direction) {
	turned := dir.Normalize() != m.facing
	m.facing = dir.Normalize()
	if m.state == Thinking {
		if turned {
			m.notify()
		}
		return
	}
	if m.state == Moving && !turned {
		m.replaceRevert(MovingHold)
		return
	}
	m.transition(Moving, MovingHold)
}

// OnChatStart enters thinking until a response or error arrives.
func (m *Machine) OnChatStart() {
	m.transition(Thinking, 0)
}

// OnChatResponse enters talking for two seconds.
func (m *Machine) OnChatResponse() {
	m.transition(Talking, TalkingHold)
}

// OnChatError abandons thinking. Other states are unaffected.
func (m *Machine) OnChatError(err error) {
	if m.state != Thinking {
		return
	}
	slog.Debug("chat failed while thinking", "err", err)
	m.transition(Idle, 0)
}

// OnHappy enters happy with no auto-revert; the next event replaces it.
func (m *Machine) OnHappy() {
	m.transition(Happy, 0)
}

// OnHappyFor enters happy and reverts to idle after hold, through the same
// single revert slot as every other state.
func (m *Machine) OnHappyFor(hold time.Duration) {
	m.transition(Happy, hold)
}

func (m *Machine) transition(next State, hold time.Duration) {
	m.replaceRevert(hold)
	m.state = next
	m.notify()
}

// replaceRevert cancels any pending revert, then installs a new one when
// hold is positive.
func (m *Machine) replaceRevert(hold time.Duration) {
	if m.revert != nil {
		m.revert.Stop()
		m.revert = nil
	}
	if hold <= 0 {
		return
	}
	var h *loop.Handle
	h = m.sched.AfterFunc(hold, func() {
		if m.revert != h {
			return
		}
		m.revert = nil
		m.state = Idle
		m.notify()
	})
	m.revert = h
}

func (m *Machine) notify() {
	snap := m.Snapshot()
	for _, o := range m.observers {
		o.ApplyState(snap)
	}
}
