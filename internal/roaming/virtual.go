package roaming

import (
	"errors"
	"sync"

	"github.com/Rorical/RoriBuddy/internal/geom"
)

var errHidden = errors.New("roaming: window hidden")

// VirtualWindow is a Window simulated inside a rectangle. The terminal host
// uses it to let the 2D character roam its panel. It is safe for concurrent
// use: the UI resizes it while the loop moves it.
type VirtualWindow struct {
	mu      sync.Mutex
	area    geom.Rect
	bounds  geom.Rect
	visible bool
}

// NewVirtualWindow places a window with the given bounds inside area.
func NewVirtualWindow(area, bounds geom.Rect) *VirtualWindow {
	return &VirtualWindow{area: area, bounds: bounds, visible: true}
}

func (w *VirtualWindow) Bounds() (geom.Rect, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.visible {
		return geom.Rect{}, errHidden
	}
	return w.bounds, nil
}

func (w *VirtualWindow) SetPosition(x, y int) {
	w.mu.Lock()
	w.bounds.X = x
	w.bounds.Y = y
	w.mu.Unlock()
}

func (w *VirtualWindow) Visible() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.visible
}

func (w *VirtualWindow) WorkArea() (geom.Rect, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.area.Empty() {
		return geom.Rect{}, ErrNoWorkArea
	}
	return w.area, nil
}

// SetWorkArea replaces the area, e.g. after a terminal resize.
func (w *VirtualWindow) SetWorkArea(area geom.Rect) {
	w.mu.Lock()
	w.area = area
	w.mu.Unlock()
}

// SetVisible shows or hides the window.
func (w *VirtualWindow) SetVisible(visible bool) {
	w.mu.Lock()
	w.visible = visible
	w.mu.Unlock()
}

// Resize changes the window size, keeping its origin.
func (w *VirtualWindow) Resize(width, height int) {
	w.mu.Lock()
	w.bounds.Width = width
	w.bounds.Height = height
	w.mu.Unlock()
}
