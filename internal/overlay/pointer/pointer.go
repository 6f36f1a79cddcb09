// Package pointer turns raw mouse input on the overlay into taps and window
// drags. Coordinates are screen coordinates.
package pointer

import "github.com/Rorical/RoriBuddy/internal/geom"

// DragThreshold is how far the cursor must travel, in pixels, before a press
// becomes a drag instead of a tap.
const DragThreshold = 4

type Tracker struct {
	pressed  bool
	dragging bool
	anchorX  int
	anchorY  int
	startX   int
	startY   int
}

// Press starts tracking a press at the screen position while the window's
// top-left corner is at (winX, winY).
func (t *Tracker) Press(screenX, screenY, winX, winY int) {
	*t = Tracker{
		pressed: true,
		anchorX: screenX,
		anchorY: screenY,
		startX:  winX,
		startY:  winY,
	}
}

// Move returns where the window should be for the cursor position. ok is
// false until the press has turned into a drag.
func (t *Tracker) Move(screenX, screenY int) (x, y int, ok bool) {
	if !t.pressed {
		return 0, 0, false
	}
	dx, dy := screenX-t.anchorX, screenY-t.anchorY
	if !t.dragging && abs(dx) < DragThreshold && abs(dy) < DragThreshold {
		return 0, 0, false
	}
	t.dragging = true
	return t.startX + dx, t.startY + dy, true
}

// Release ends the press and reports whether it was a tap.
func (t *Tracker) Release() bool {
	tap := t.pressed && !t.dragging
	*t = Tracker{}
	return tap
}

// Dragging reports whether the window is being dragged.
func (t *Tracker) Dragging() bool {
	return t.dragging
}

// Contains reports whether a window-relative cursor position is inside r.
func Contains(r geom.Rect, x, y int) bool {
	return x >= r.X && x < r.Right() && y >= r.Y && y < r.Bottom()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
