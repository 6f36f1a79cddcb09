package app

import (
	"github.com/Rorical/RoriBuddy/internal/animation"
	"github.com/Rorical/RoriBuddy/internal/loop"
)

// loopSignals forwards chat lifecycle signals from the chat goroutines onto
// the loop, where the animation machine lives.
type loopSignals struct {
	loop    loop.Scheduler
	machine *animation.Machine
}

func (s loopSignals) OnChatStart() {
	s.loop.Post(s.machine.OnChatStart)
}

func (s loopSignals) OnChatResponse() {
	s.loop.Post(s.machine.OnChatResponse)
}

func (s loopSignals) OnChatError(err error) {
	s.loop.Post(func() { s.machine.OnChatError(err) })
}
