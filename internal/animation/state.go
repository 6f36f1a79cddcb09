// Package animation implements the character's animation state machine.
package animation

import "github.com/Rorical/RoriBuddy/internal/geom"

// State is the character's current visual state. Exactly one is current.
type State string

const (
	Idle     State = "idle"
	Moving   State = "moving"
	Thinking State = "thinking"
	Talking  State = "talking"
	Happy    State = "happy"
)

// States lists every state, idle first.
var States = []State{Idle, Moving, Thinking, Talking, Happy}

var labels = map[State]string{
	Idle:     "Ready",
	Moving:   "Moving",
	Thinking: "Thinking",
	Talking:  "Talking",
	Happy:    "Happy",
}

// Label is the status text shown for the state.
func (s State) Label() string {
	if l, ok := labels[s]; ok {
		return l
	}
	return labels[Idle]
}

// Valid reports whether s is one of the five states.
func (s State) Valid() bool {
	_, ok := labels[s]
	return ok
}

// Snapshot is what observers see after each transition.
type Snapshot struct {
	State  State          `json:"state"`
	Label  string         `json:"label"`
	Facing geom.Direction `json:"facing"`
}

// Observer reacts to state changes. Renderers implement it.
type Observer interface {
	ApplyState(Snapshot)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Snapshot)

func (f ObserverFunc) ApplyState(s Snapshot) {
	f(s)
}
