// Package threed draws the placeholder character model with ebiten: a head
// sphere over a body cylinder, projected with a gentle sway and bob and
// posed per animation state.
package threed

import (
	"image/color"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/ojrac/opensimplex-go"

	"github.com/Rorical/RoriBuddy/internal/animation"
	"github.com/Rorical/RoriBuddy/internal/render"
)

var (
	skinColor   = color.RGBA{0xff, 0xdb, 0xac, 0xe6}
	bodyColor   = color.RGBA{0x41, 0x69, 0xe1, 0xcc}
	eyeColor    = color.RGBA{0x30, 0x24, 0x1c, 0xff}
	mouthColor  = color.RGBA{0x8b, 0x2e, 0x2e, 0xff}
	cheekColor  = color.RGBA{0xff, 0x8f, 0xa3, 0xb0}
	bubbleColor = color.RGBA{0xff, 0xff, 0xff, 0xd0}
)

// Model dimensions, in model units.
const (
	headY       = 1.6
	headRadius  = 0.15
	bodyTop     = 1.4
	bodyBottom  = 0.6
	bodyWidth   = 0.27
	groundModel = 0.5
	modelSpan   = 1.4
)

// Renderer is the ThreeD variant. ApplyState and Draw are both called on
// the ebiten game goroutine.
type Renderer struct {
	snap   animation.Snapshot
	start  time.Time
	noise  opensimplex.Noise
	width  int
	height int
}

// New creates a renderer for a width x height window.
func New(width, height int, seed int64) *Renderer {
	return &Renderer{
		snap:   animation.Snapshot{State: animation.Idle, Label: animation.Idle.Label()},
		start:  time.Now(),
		noise:  opensimplex.New(seed),
		width:  width,
		height: height,
	}
}

func (r *Renderer) Kind() render.Kind {
	return render.ThreeD
}

func (r *Renderer) ApplyState(s animation.Snapshot) {
	r.snap = s
}

// State returns the last applied snapshot.
func (r *Renderer) State() animation.Snapshot {
	return r.snap
}

// Draw renders the current frame.
func (r *Renderer) Draw(screen *ebiten.Image) {
	t := time.Since(r.start).Seconds()
	pose := render.PoseAt(r.snap, t, r.noise.Eval2(t*0.7, 0))

	unit := float64(r.height) / (modelSpan + 0.4)
	groundY := float64(r.height) * 0.95
	cx := float64(r.width) / 2
	yaw := math.Cos(pose.Sway)

	project := func(mx, my float64) (float32, float32) {
		// Lean pivots around the feet.
		h := my - groundModel
		x := cx + (mx*yaw+h*math.Sin(pose.Lean))*unit
		y := groundY - (h*math.Cos(pose.Lean)+pose.Bob)*unit
		return float32(x), float32(y)
	}

	// Body.
	bodyH := (bodyTop - bodyBottom) / pose.Squash
	bw := float32(bodyWidth * yaw * pose.Squash * unit)
	bx, byTop := project(0, bodyBottom+bodyH)
	_, byBottom := project(0, bodyBottom)
	vector.DrawFilledRect(screen, bx-bw/2, byTop, bw, byBottom-byTop, bodyColor, true)
	vector.DrawFilledCircle(screen, bx, byTop, bw/2, bodyColor, true)

	// Head.
	hx, hy := project(0, headY-(bodyTop-bodyBottom-bodyH))
	hr := float32(headRadius * unit)
	vector.DrawFilledCircle(screen, hx, hy, hr, skinColor, true)

	look := float32(math.Sin(pose.Sway)) * hr * 0.6
	if r.snap.Facing.FacingLeft() {
		look -= hr * 0.15
	} else {
		look += hr * 0.15
	}
	eyeR := hr * 0.12
	vector.DrawFilledCircle(screen, hx-hr*0.35+look, hy-hr*0.15, eyeR, eyeColor, true)
	vector.DrawFilledCircle(screen, hx+hr*0.35+look, hy-hr*0.15, eyeR, eyeColor, true)

	mouthH := float32(0.04*pose.MouthOpen*unit) + 1
	vector.DrawFilledRect(screen, hx-hr*0.25+look, hy+hr*0.35, hr*0.5, mouthH, mouthColor, true)

	if r.snap.State == animation.Happy {
		vector.DrawFilledCircle(screen, hx-hr*0.6+look, hy+hr*0.2, hr*0.15, cheekColor, true)
		vector.DrawFilledCircle(screen, hx+hr*0.6+look, hy+hr*0.2, hr*0.15, cheekColor, true)
	}

	for i := 0; i < pose.Dots; i++ {
		d := float32(i + 1)
		vector.DrawFilledCircle(screen, hx+hr*(0.9+0.45*d), hy-hr*(0.9+0.5*d), hr*0.08*(1+d*0.4), bubbleColor, true)
	}

	ebitenutil.DebugPrintAt(screen, r.snap.Label, 6, 6)
}
