package models

import "time"

type MessageType int

const (
	User MessageType = iota
	Assistant
	Program
	System
)

type Message struct {
	Content string
	Type    MessageType
	Time    time.Time
}

// Role maps the message type onto a chat-completion role.
func (t MessageType) Role() string {
	switch t {
	case User:
		return "user"
	case Assistant:
		return "assistant"
	case System:
		return "system"
	}
	return "program"
}
