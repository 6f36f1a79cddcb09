// Package overlay hosts the character in a borderless, transparent,
// always-on-top ebiten window and pumps the scheduler from its frame loop.
package overlay

import (
	"errors"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/Rorical/RoriBuddy/internal/config"
	"github.com/Rorical/RoriBuddy/internal/geom"
	"github.com/Rorical/RoriBuddy/internal/loop"
	"github.com/Rorical/RoriBuddy/internal/overlay/pointer"
	"github.com/Rorical/RoriBuddy/internal/render/threed"
)

var ErrNoMonitor = errors.New("no monitor available")

// Callbacks are invoked on the game goroutine.
type Callbacks struct {
	Pet        func()
	ToggleChat func()
	Closed     func()
}

// Overlay is the ebiten game. It also implements roaming.Window.
type Overlay struct {
	loop      *loop.Loop
	renderer  *threed.Renderer
	settings  config.Settings
	callbacks Callbacks
	drag      pointer.Tracker
	canvas    *ebiten.Image
	last      geom.Rect
	quit      atomic.Bool
}

func New(l *loop.Loop, r *threed.Renderer, settings config.Settings, cb Callbacks) *Overlay {
	return &Overlay{
		loop:      l,
		renderer:  r,
		settings:  settings,
		callbacks: cb,
	}
}

// Run opens the window and blocks until it closes. It must be called from
// the main goroutine.
func (o *Overlay) Run() error {
	b := o.settings.WindowBounds
	ebiten.SetWindowTitle("RoriBuddy")
	ebiten.SetWindowSize(b.Width, b.Height)
	ebiten.SetWindowPosition(b.X, b.Y)
	ebiten.SetWindowDecorated(false)
	ebiten.SetWindowFloating(o.settings.AlwaysOnTop)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeDisabled)
	ebiten.SetWindowClosingHandled(true)

	err := ebiten.RunGameWithOptions(o, &ebiten.RunGameOptions{
		ScreenTransparent: true,
		SkipTaskbar:       true,
	})
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

// Quit asks the window to close on the next frame. Safe from any goroutine.
func (o *Overlay) Quit() {
	o.quit.Store(true)
}

func (o *Overlay) Update() error {
	if o.quit.Load() {
		return ebiten.Termination
	}
	if ebiten.IsWindowBeingClosed() {
		if o.callbacks.Closed != nil {
			o.callbacks.Closed()
		}
		return ebiten.Termination
	}

	o.handlePointer()
	o.loop.RunDue()
	o.last, _ = o.Bounds()
	return nil
}

// LastBounds returns the window bounds seen on the last frame. It stays
// valid after Run returns.
func (o *Overlay) LastBounds() geom.Rect {
	return o.last
}

func (o *Overlay) handlePointer() {
	cx, cy := ebiten.CursorPosition()
	wx, wy := ebiten.WindowPosition()

	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		o.drag.Press(wx+cx, wy+cy, wx, wy)
	case ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft):
		if x, y, ok := o.drag.Move(wx+cx, wy+cy); ok {
			ebiten.SetWindowPosition(x, y)
		}
	case inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft):
		if o.drag.Release() && o.callbacks.Pet != nil {
			o.callbacks.Pet()
		}
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight) && o.callbacks.ToggleChat != nil {
		o.callbacks.ToggleChat()
	}
}

func (o *Overlay) Draw(screen *ebiten.Image) {
	w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
	if o.canvas == nil || o.canvas.Bounds().Dx() != w || o.canvas.Bounds().Dy() != h {
		o.canvas = ebiten.NewImage(w, h)
	}
	o.canvas.Clear()
	o.renderer.Draw(o.canvas)

	op := &ebiten.DrawImageOptions{}
	op.ColorScale.ScaleAlpha(float32(o.settings.Transparency))
	screen.DrawImage(o.canvas, op)
}

func (o *Overlay) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

func (o *Overlay) Bounds() (geom.Rect, error) {
	x, y := ebiten.WindowPosition()
	w, h := ebiten.WindowSize()
	return geom.Rect{X: x, Y: y, Width: w, Height: h}, nil
}

func (o *Overlay) SetPosition(x, y int) {
	ebiten.SetWindowPosition(x, y)
}

// Visible is false while minimized. Roaming also pauses while the user
// drags the window.
func (o *Overlay) Visible() bool {
	return !ebiten.IsWindowMinimized() && !o.drag.Dragging()
}

// WorkArea is the current monitor. Ebiten does not report the taskbar.
func (o *Overlay) WorkArea() (geom.Rect, error) {
	m := ebiten.Monitor()
	if m == nil {
		return geom.Rect{}, ErrNoMonitor
	}
	w, h := m.Size()
	return geom.Rect{Width: w, Height: h}, nil
}
