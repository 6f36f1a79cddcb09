package render

import (
	"math"
	"strings"
	"testing"

	"github.com/Rorical/RoriBuddy/internal/animation"
	"github.com/Rorical/RoriBuddy/internal/geom"
)

func snapshot(s animation.State) animation.Snapshot {
	return animation.Snapshot{State: s, Label: s.Label(), Facing: geom.DiagonalDown}
}

func TestClassesPerState(t *testing.T) {
	if got := Classes(animation.Idle); len(got) != 1 || got[0] != BaseClass {
		t.Errorf("idle should only carry the base class, got %v", got)
	}
	got := Classes(animation.Thinking)
	if len(got) != 2 {
		t.Fatalf("expected two classes, got %v", got)
	}
	if got[0] != BaseClass || got[1] != "thinking" {
		t.Errorf("unexpected class set %v", got)
	}
}

func TestFallbackTogglesClasses(t *testing.T) {
	f := NewFallback()
	f.ApplyState(snapshot(animation.Moving))
	if !f.HasClass("moving") {
		t.Fatal("expected moving class")
	}

	f.ApplyState(snapshot(animation.Talking))
	if f.HasClass("moving") {
		t.Error("moving class should be removed on the next state")
	}
	if !f.HasClass("talking") || !f.HasClass(BaseClass) {
		t.Errorf("expected base+talking, got %v", f.Classes())
	}

	f.ApplyState(snapshot(animation.Idle))
	if len(f.Classes()) != 1 {
		t.Errorf("idle should reset to the base class, got %v", f.Classes())
	}
	if f.Label() != "Ready" {
		t.Errorf("expected Ready, got %s", f.Label())
	}
}

func TestFallbackKind(t *testing.T) {
	var r Renderer = NewFallback()
	if r.Kind() != Fallback2D {
		t.Errorf("expected 2d, got %s", r.Kind())
	}
}

func TestArtMirrorsWithFacing(t *testing.T) {
	f := NewFallback()
	left := animation.Snapshot{State: animation.Idle, Facing: geom.Direction{X: -1, Y: 1}}
	f.ApplyState(left)
	leftArt := f.Art()

	f.ApplyState(snapshot(animation.Idle))
	rightArt := f.Art()

	if leftArt[0] == rightArt[0] {
		t.Errorf("expected mirrored art, both were %q", leftArt[0])
	}
	if strings.TrimSpace(mirrorLines(mirrorLines(leftArt))[1]) != strings.TrimSpace(leftArt[1]) {
		t.Error("mirroring twice should round-trip")
	}
}

func TestMovingArtAnimates(t *testing.T) {
	f := NewFallback()
	f.ApplyState(snapshot(animation.Moving))
	first := f.Art()
	f.Advance()
	second := f.Art()
	if first[2] == second[2] {
		t.Error("expected the legs to change between frames")
	}
}

func TestDetect(t *testing.T) {
	env := func(goos string, vars map[string]string) Environment {
		return Environment{GOOS: goos, Getenv: func(k string) string { return vars[k] }}
	}

	cases := []struct {
		name string
		pref string
		env  Environment
		want Kind
	}{
		{"windows auto", "auto", env("windows", nil), ThreeD},
		{"linux x11", "auto", env("linux", map[string]string{"DISPLAY": ":0"}), ThreeD},
		{"linux wayland", "auto", env("linux", map[string]string{"WAYLAND_DISPLAY": "wayland-0"}), ThreeD},
		{"linux headless", "auto", env("linux", nil), Fallback2D},
		{"forced 2d", "2d", env("darwin", nil), Fallback2D},
		{"3d without display", "3d", env("linux", nil), Fallback2D},
	}
	for _, tc := range cases {
		if got := Detect(tc.pref, tc.env); got != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestPoseAt(t *testing.T) {
	idle := PoseAt(snapshot(animation.Idle), math.Pi/4, 0)
	if math.Abs(idle.Bob-0.1) > 1e-9 {
		t.Errorf("expected idle bob at its peak, got %f", idle.Bob)
	}
	if idle.Lean != 0 || idle.MouthOpen != 0 {
		t.Errorf("idle should not lean or talk: %+v", idle)
	}

	left := animation.Snapshot{State: animation.Moving, Facing: geom.Direction{X: -1, Y: 1}}
	if PoseAt(left, 1, 0).Lean >= 0 {
		t.Error("moving left should lean left")
	}
	if PoseAt(snapshot(animation.Moving), 1, 0).Lean <= 0 {
		t.Error("moving right should lean right")
	}

	talk := PoseAt(snapshot(animation.Talking), 0.3, 0)
	if talk.MouthOpen < 0 || talk.MouthOpen > 1 {
		t.Errorf("mouth out of range: %f", talk.MouthOpen)
	}

	for _, ts := range []float64{0, 0.6, 1.2, 1.7} {
		if d := PoseAt(snapshot(animation.Thinking), ts, 0).Dots; d < 0 || d > 3 {
			t.Errorf("dots out of range at %f: %d", ts, d)
		}
	}
}
