// Package geom holds the small screen-space types shared by the roaming
// controller, the animation machine and the renderers.
package geom

// Point is a position in screen coordinates. Fractional values are allowed
// so that sub-pixel speeds accumulate between ticks.
type Point struct {
	X float64
	Y float64
}

// Rect is an integer screen rectangle.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Right returns the exclusive right edge.
func (r Rect) Right() int {
	return r.X + r.Width
}

// Bottom returns the exclusive bottom edge.
func (r Rect) Bottom() int {
	return r.Y + r.Height
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Direction is a bounce signal: each component is either -1 or +1.
type Direction struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// DiagonalDown is the direction a fresh roaming session starts with.
var DiagonalDown = Direction{X: 1, Y: 1}

// Normalize forces each component onto {-1, +1}. Zero maps to +1.
func (d Direction) Normalize() Direction {
	return Direction{X: sign(d.X), Y: sign(d.Y)}
}

// FacingLeft reports whether the horizontal component points left.
func (d Direction) FacingLeft() bool {
	return d.X < 0
}

func sign(v int) int {
	if v < 0 {
		return -1
	}
	return 1
}
