package components

import (
	"strings"

	"github.com/Rorical/RoriBuddy/internal/geom"
	"github.com/Rorical/RoriBuddy/internal/render"
	"github.com/Rorical/RoriBuddy/ui/styles"
)

// RenderCharacter places the fallback art at pos inside an area of the
// given size. Positions are in cells.
func RenderCharacter(f *render.Fallback, pos geom.Rect, width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	art := strings.Split(f.View(), "\n")

	rows := make([]string, height)
	for i := range rows {
		line := i - pos.Y
		if line < 0 || line >= len(art) || pos.X >= width {
			continue
		}
		rows[i] = strings.Repeat(" ", max(pos.X, 0)) + art[line]
	}
	return styles.CharacterPanelStyle(width, height).Render(strings.Join(rows, "\n"))
}
