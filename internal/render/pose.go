package render

import (
	"math"

	"github.com/Rorical/RoriBuddy/internal/animation"
)

// Pose is the per-frame placeholder pose, in model units (1 = body height).
type Pose struct {
	Bob       float64 // vertical offset
	Sway      float64 // yaw, radians
	Lean      float64 // roll toward the travel direction, radians
	MouthOpen float64 // 0 closed, 1 fully open
	Dots      int     // thought bubble dots, 0-3
	Squash    float64 // 1 normal, >1 wider and shorter
}

// PoseAt computes the pose t seconds into the animation. noise is a small
// value in [-1, 1] that keeps the idle bob from looking mechanical.
func PoseAt(snap animation.Snapshot, t, noise float64) Pose {
	p := Pose{
		Bob:    math.Sin(t*2)*0.1 + noise*0.02,
		Sway:   math.Sin(t*0.5) * 0.1,
		Squash: 1,
	}

	switch snap.State {
	case animation.Moving:
		dir := 1.0
		if snap.Facing.FacingLeft() {
			dir = -1
		}
		p.Lean = 0.15 * dir
		p.Bob += math.Abs(math.Sin(t*8)) * 0.05
	case animation.Talking:
		p.MouthOpen = (math.Sin(t*12) + 1) / 2
	case animation.Thinking:
		p.Dots = int(t*2) % 4
		p.Sway = math.Sin(t*0.8) * 0.2
	case animation.Happy:
		hop := math.Abs(math.Sin(t * 6))
		p.Bob += hop * 0.15
		p.Squash = 1 + (1-hop)*0.08
	}
	return p
}
