package components

import (
	"strings"

	"github.com/Rorical/RoriBuddy/internal/models"
	"github.com/Rorical/RoriBuddy/ui/styles"
)

// RenderMessages renders the conversation. When height is positive only the
// last height lines are kept so the newest messages stay on screen.
func RenderMessages(messages []models.Message, height int) string {
	var b strings.Builder

	systemStyle := styles.SystemStyle()
	userStyle := styles.UserStyle()
	assistantStyle := styles.AssistantStyle()
	programStyle := styles.ProgramStyle()

	for _, msg := range messages {
		switch msg.Type {
		case models.System:
			b.WriteString(systemStyle.Render(msg.Content) + "\n")
		case models.User:
			b.WriteString(userStyle.Render("You: "+msg.Content) + "\n\n")
		case models.Assistant:
			b.WriteString(assistantStyle.Render(RenderMarkdown(msg.Content)) + "\n\n")
		case models.Program:
			b.WriteString(programStyle.Render(msg.Content) + "\n")
		}
	}

	out := b.String()
	if height <= 0 {
		return out
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) > height {
		lines = lines[len(lines)-height:]
	}
	return strings.Join(lines, "\n") + "\n"
}
