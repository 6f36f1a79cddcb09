package render

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Rorical/RoriBuddy/internal/animation"
)

// frames holds two-frame terminal art per state. The art faces left.
var frames = map[animation.State][][]string{
	animation.Idle: {
		{
			`  ^..^      /`,
			`  /_/\_____/ `,
			`     /\   /\ `,
			`    /  \ /  \`,
		},
		{
			`  ^..^      /`,
			`  /_/\_____/ `,
			`     /\   /\ `,
			`    /  \ /  \`,
		},
	},
	animation.Moving: {
		{
			`  ^..^      /`,
			`  /_/\_____/ `,
			`     /\   /\ `,
			`    /  \ /  \`,
		},
		{
			`  ^..^     _ `,
			`  /_/\_____/ `,
			`     ||   || `,
			`     ||   || `,
		},
	},
	animation.Thinking: {
		{
			`  ^..^  .   /`,
			`  /_/\_____/ `,
			`     /\   /\ `,
			`    /  \ /  \`,
		},
		{
			`  ^..^ . ?  /`,
			`  /_/\_____/ `,
			`     /\   /\ `,
			`    /  \ /  \`,
		},
	},
	animation.Talking: {
		{
			`  ^oo^      /`,
			`  /_/\_____/ `,
			`     /\   /\ `,
			`    /  \ /  \`,
		},
		{
			`  ^..^      /`,
			`  /_/\_____/ `,
			`     /\   /\ `,
			`    /  \ /  \`,
		},
	},
	animation.Happy: {
		{
			`  ^^^^      /`,
			`  /_/\_____/ `,
			`     /\   /\ `,
			`    /  \ /  \`,
		},
		{
			`  ^^^^     \ `,
			`  /_/\_____\ `,
			`     /\   /\ `,
			`    /  \ /  \`,
		},
	},
}

var stateColors = map[animation.State]lipgloss.Color{
	animation.Idle:     lipgloss.Color("214"),
	animation.Moving:   lipgloss.Color("39"),
	animation.Thinking: lipgloss.Color("141"),
	animation.Talking:  lipgloss.Color("72"),
	animation.Happy:    lipgloss.Color("205"),
}

// Fallback is the 2D terminal renderer. It keeps a class set in sync with
// the state so the art and colour can react without knowing the machine.
type Fallback struct {
	snap    animation.Snapshot
	classes map[string]bool
	frame   int
}

// NewFallback returns a fallback renderer showing idle.
func NewFallback() *Fallback {
	f := &Fallback{}
	f.ApplyState(animation.Snapshot{State: animation.Idle, Label: animation.Idle.Label()})
	return f
}

func (f *Fallback) Kind() Kind {
	return Fallback2D
}

// ApplyState resets the class set to the base class plus the state class.
func (f *Fallback) ApplyState(s animation.Snapshot) {
	f.snap = s
	f.classes = map[string]bool{}
	for _, c := range Classes(s.State) {
		f.classes[c] = true
	}
}

// Classes returns the active classes, sorted.
func (f *Fallback) Classes() []string {
	out := make([]string, 0, len(f.classes))
	for c := range f.classes {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// HasClass reports whether class is active.
func (f *Fallback) HasClass(class string) bool {
	return f.classes[class]
}

// Label returns the status text for the current state.
func (f *Fallback) Label() string {
	return f.snap.State.Label()
}

// Advance moves to the next animation frame.
func (f *Fallback) Advance() {
	f.frame++
}

func (f *Fallback) activeState() animation.State {
	for _, s := range animation.States {
		if s != animation.Idle && f.classes[string(s)] {
			return s
		}
	}
	return animation.Idle
}

// Art returns the current frame's lines, mirrored when facing right.
func (f *Fallback) Art() []string {
	set := frames[f.activeState()]
	lines := set[f.frame%len(set)]
	if f.snap.Facing.FacingLeft() {
		return append([]string(nil), lines...)
	}
	return mirrorLines(lines)
}

// Width returns the art width in cells.
func (f *Fallback) Width() int {
	w := 0
	for _, l := range f.Art() {
		if n := lipgloss.Width(l); n > w {
			w = n
		}
	}
	return w
}

// Height returns the art height in lines.
func (f *Fallback) Height() int {
	return len(f.Art())
}

// View renders the art coloured for the active state.
func (f *Fallback) View() string {
	style := lipgloss.NewStyle().Foreground(stateColors[f.activeState()])
	if f.HasClass(string(animation.Happy)) {
		style = style.Bold(true)
	}
	return style.Render(strings.Join(f.Art(), "\n"))
}

var mirrored = map[rune]rune{
	'/': '\\', '\\': '/',
	'(': ')', ')': '(',
	'<': '>', '>': '<',
	'[': ']', ']': '[',
	'{': '}', '}': '{',
	'`': '\'', '\'': '`',
}

func mirrorLines(lines []string) []string {
	width := 0
	for _, l := range lines {
		if n := len([]rune(l)); n > width {
			width = n
		}
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		runes := []rune(l + strings.Repeat(" ", width-len([]rune(l))))
		for a, b := 0, len(runes)-1; a < b; a, b = a+1, b-1 {
			runes[a], runes[b] = runes[b], runes[a]
		}
		for j, r := range runes {
			if m, ok := mirrored[r]; ok {
				runes[j] = m
			}
		}
		out[i] = strings.TrimRight(string(runes), " ")
	}
	return out
}
