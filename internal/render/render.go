// Package render defines the capability boundary between the animation
// machine and whatever draws the character. Two variants exist: the ebiten
// placeholder model (ThreeD, in render/threed) and the terminal fallback
// (Fallback2D). The variant is chosen once at startup.
package render

import (
	"os"
	"runtime"
	"sort"

	"github.com/Rorical/RoriBuddy/internal/animation"
)

// Kind names a renderer variant.
type Kind string

const (
	ThreeD     Kind = "3d"
	Fallback2D Kind = "2d"
)

// Renderer draws the character for the state it was last given.
type Renderer interface {
	animation.Observer
	Kind() Kind
}

// BaseClass is always present in the fallback class set.
const BaseClass = "dog-character"

// Classes returns the class set for a state: the base class plus the
// state's name for every state but idle.
func Classes(s animation.State) []string {
	if s == animation.Idle || !s.Valid() {
		return []string{BaseClass}
	}
	out := []string{BaseClass, string(s)}
	sort.Strings(out)
	return out
}

// Environment is what Detect probes.
type Environment struct {
	GOOS   string
	Getenv func(string) string
}

// CurrentEnvironment describes the running process.
func CurrentEnvironment() Environment {
	return Environment{GOOS: runtime.GOOS, Getenv: os.Getenv}
}

// HasDisplay reports whether a desktop window can be opened.
func (e Environment) HasDisplay() bool {
	switch e.GOOS {
	case "windows", "darwin":
		return true
	}
	if e.Getenv == nil {
		return false
	}
	return e.Getenv("DISPLAY") != "" || e.Getenv("WAYLAND_DISPLAY") != ""
}

// Detect picks the renderer variant. pref is "auto", "3d" or "2d"; a 3d
// preference without a display still falls back to 2d.
func Detect(pref string, env Environment) Kind {
	if pref == string(Fallback2D) {
		return Fallback2D
	}
	if env.HasDisplay() {
		return ThreeD
	}
	return Fallback2D
}
