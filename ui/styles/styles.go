package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Rorical/RoriBuddy/internal/animation"
)

func InputStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1).
		Width(max(width-4, 10))
}

func StatusStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		Background(lipgloss.Color("235")).
		Padding(0, 1).
		Width(width)
}

func SystemStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Padding(0, 2)
}

func UserStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("39")).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(lipgloss.Color("39")).
		Padding(0, 1).
		MarginLeft(2)
}

func AssistantStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")).
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(lipgloss.Color("214")).
		Padding(0, 1).
		MarginLeft(2)
}

func ProgramStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("141")).
		Bold(true).
		Padding(0, 2)
}

// CounterStyle colours the input length counter as it nears the limit.
func CounterStyle(length, limit int) lipgloss.Style {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	switch {
	case length > limit*9/10:
		return style.Foreground(lipgloss.Color("196"))
	case length > limit*3/4:
		return style.Foreground(lipgloss.Color("208"))
	}
	return style
}

// StatePillStyle is the badge that shows the character's status label.
func StatePillStyle(s animation.State) lipgloss.Style {
	colors := map[animation.State]lipgloss.Color{
		animation.Idle:     "35",
		animation.Moving:   "39",
		animation.Thinking: "141",
		animation.Talking:  "214",
		animation.Happy:    "205",
	}
	c, ok := colors[s]
	if !ok {
		c = colors[animation.Idle]
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("232")).
		Background(c).
		Bold(true).
		Padding(0, 1)
}

func CharacterPanelStyle(width, height int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("238")).
		Width(width).
		Height(height)
}

// Markdown styles
func CodeStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Background(lipgloss.Color("236")).
		Padding(0, 1)
}

func BoldStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true)
}

func ItalicStyle() lipgloss.Style {
	return lipgloss.NewStyle().Italic(true)
}

func ListStyle() lipgloss.Style {
	return lipgloss.NewStyle().MarginLeft(2)
}
