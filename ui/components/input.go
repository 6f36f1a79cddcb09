package components

import (
	"fmt"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/Rorical/RoriBuddy/ui/styles"
)

// RenderInput draws the input box with a length counter.
func RenderInput(input string, limit int, loading bool, width int) string {
	text := input
	if text == "" {
		placeholder := "Say something to your buddy..."
		if loading {
			placeholder = "Waiting for a reply..."
		}
		text = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render(placeholder)
	} else {
		text += "█"
	}

	n := utf8.RuneCountInString(input)
	counter := styles.CounterStyle(n, limit).Render(fmt.Sprintf("%d/%d", n, limit))
	return lipgloss.JoinVertical(lipgloss.Right,
		styles.InputStyle(width).Render(text),
		counter,
	)
}
