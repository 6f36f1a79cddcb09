package models

import (
	"github.com/Rorical/RoriBuddy/internal/animation"
	"github.com/Rorical/RoriBuddy/internal/geom"
	"github.com/Rorical/RoriBuddy/internal/render"
)

// AppModel represents the UI state - only local UI concerns
type AppModel struct {
	Messages         []Message        // Current messages to display
	Input            string           // User input field
	Status           string           // Status bar text
	Loading          bool             // Loading state from core
	LoadingDots      int              // Animation counter for loading dots
	Width            int              // Terminal width
	Height           int              // Terminal height
	ChatServiceReady bool             // Whether chat service is available
	ChatVisible      bool             // Chat panel shown; esc toggles it
	CharacterState   animation.State  // Last state reported by the machine
	Roaming          bool             // Roaming session active
	CharacterPos     geom.Rect        // Character position in the panel, in cells
	Character        *render.Fallback // Terminal art; nil when the overlay draws the character
}
