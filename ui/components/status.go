package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Rorical/RoriBuddy/internal/animation"
	"github.com/Rorical/RoriBuddy/ui/styles"
)

// RenderStatus draws the status bar: the character's state badge, the
// roaming indicator and the chat status text.
func RenderStatus(status string, loading bool, loadingDots int, width int, state animation.State, roaming bool) string {
	pill := styles.StatePillStyle(state).Render(state.Label())

	statusContent := status
	if loading {
		statusContent += strings.Repeat(".", loadingDots)
	}
	if roaming {
		statusContent = "roaming · " + statusContent
	}

	rest := width - lipgloss.Width(pill)
	if rest < 0 {
		rest = 0
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, pill, styles.StatusStyle(rest).Render(statusContent))
}
