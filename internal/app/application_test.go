package app

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Rorical/RoriBuddy/internal/animation"
	"github.com/Rorical/RoriBuddy/internal/chat"
	"github.com/Rorical/RoriBuddy/internal/config"
	"github.com/Rorical/RoriBuddy/internal/eventbus"
	"github.com/Rorical/RoriBuddy/internal/geom"
	"github.com/Rorical/RoriBuddy/internal/loop"
	"github.com/Rorical/RoriBuddy/internal/render"
	"github.com/Rorical/RoriBuddy/internal/roaming"
)

func newTestApp(t *testing.T, mutate func(*config.Settings)) (*Application, *loop.ManualClock) {
	t.Helper()
	cfg, err := config.LoadConfigFrom(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	cfg.Settings.Renderer = config.Renderer2D
	cfg.Settings.HistoryEnabled = false
	if mutate != nil {
		mutate(&cfg.Settings)
	}

	clock := loop.NewManualClock(time.Unix(1700000000, 0))
	a, err := newApplication(cfg, clock, render.Environment{GOOS: "linux"})
	if err != nil {
		t.Fatalf("failed to create application: %v", err)
	}
	t.Cleanup(a.Stop)
	return a, clock
}

// nextEvent drains core events until one of type T shows up.
func nextEvent[T eventbus.CoreEvent](t *testing.T, eb *eventbus.EventBus) T {
	t.Helper()
	for {
		select {
		case ev := <-eb.CoreToUI():
			if v, ok := ev.(T); ok {
				return v
			}
		default:
			var zero T
			t.Fatalf("no %T event was sent", zero)
			return zero
		}
	}
}

func TestTerminalHostWithoutDisplay(t *testing.T) {
	a, _ := newTestApp(t, func(s *config.Settings) { s.Renderer = config.RendererAuto })
	if a.kind != render.Fallback2D {
		t.Fatalf("expected the 2d renderer without a display, got %s", a.kind)
	}
	if a.overlay != nil || a.virtual == nil {
		t.Error("expected a virtual window instead of the overlay")
	}
	if a.model.appModel.Character == nil {
		t.Error("the panel should draw the character")
	}
	if a.feed != nil || a.store != nil {
		t.Error("state feed and history should be off")
	}
}

func TestPetMakesHappyThenIdle(t *testing.T) {
	a, clock := newTestApp(t, nil)

	a.handleUIEvent(eventbus.PetEvent{})
	a.loop.RunDue()
	if a.machine.Current() != animation.Happy {
		t.Fatalf("expected happy, got %s", a.machine.Current())
	}
	if ev := nextEvent[eventbus.CharacterStateEvent](t, a.eventBus); ev.Snapshot.State != animation.Idle {
		t.Errorf("expected the initial idle snapshot first, got %s", ev.Snapshot.State)
	}
	if ev := nextEvent[eventbus.CharacterStateEvent](t, a.eventBus); ev.Snapshot.State != animation.Happy {
		t.Errorf("expected happy to reach the panel, got %s", ev.Snapshot.State)
	}

	clock.Advance(HappyHold)
	a.loop.RunDue()
	if a.machine.Current() != animation.Idle {
		t.Errorf("expected idle after the hold, got %s", a.machine.Current())
	}
}

func TestToggleRoaming(t *testing.T) {
	a, clock := newTestApp(t, func(s *config.Settings) { s.RoamingSpeed = 20 })

	a.handleUIEvent(eventbus.ToggleRoamingEvent{})
	a.loop.RunDue()
	if !a.roaming.Running() {
		t.Fatal("expected roaming to start")
	}
	if ev := nextEvent[eventbus.RoamingStateEvent](t, a.eventBus); !ev.Enabled || ev.Speed != 20 || ev.Error != nil {
		t.Errorf("unexpected roaming state %+v", ev)
	}

	clock.Step(a.loop, 2*roaming.TickInterval, roaming.TickInterval)
	moved := nextEvent[eventbus.CharacterMovedEvent](t, a.eventBus)
	if moved.Bounds.X != 2 || moved.Direction != geom.DiagonalDown {
		t.Errorf("expected a 2 cell step down-right, got %+v", moved)
	}
	if a.machine.Current() != animation.Moving {
		t.Errorf("expected moving, got %s", a.machine.Current())
	}

	a.handleUIEvent(eventbus.ToggleRoamingEvent{})
	a.loop.RunDue()
	if a.roaming.Running() {
		t.Fatal("expected roaming to stop")
	}
	if ev := nextEvent[eventbus.RoamingStateEvent](t, a.eventBus); ev.Enabled {
		t.Error("expected a disabled roaming state")
	}
}

func TestSendWithoutAPIKey(t *testing.T) {
	a, _ := newTestApp(t, nil)

	a.handleUIEvent(eventbus.SendMessageEvent{Message: "hello"})
	ev := nextEvent[eventbus.StateUpdateEvent](t, a.eventBus)
	if !errors.Is(ev.Error, chat.ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", ev.Error)
	}
	if a.machine.Current() != animation.Idle {
		t.Errorf("a rejected message must not start thinking, got %s", a.machine.Current())
	}
}

func TestOversizedMessageReported(t *testing.T) {
	a, _ := newTestApp(t, nil)

	a.handleUIEvent(eventbus.SendMessageEvent{Message: strings.Repeat("x", chat.MaxInputLength+1)})
	if ev := nextEvent[eventbus.StateUpdateEvent](t, a.eventBus); !errors.Is(ev.Error, chat.ErrTooLong) {
		t.Errorf("expected ErrTooLong, got %v", ev.Error)
	}
}

func TestToggleChatEcho(t *testing.T) {
	a, _ := newTestApp(t, nil)
	a.handleUIEvent(eventbus.ToggleChatEvent{})
	nextEvent[eventbus.ChatToggledEvent](t, a.eventBus)
}

func TestLoopSignalsDriveMachine(t *testing.T) {
	a, _ := newTestApp(t, nil)
	s := loopSignals{loop: a.loop, machine: a.machine}

	s.OnChatStart()
	if a.machine.Current() != animation.Idle {
		t.Fatal("signals must wait for the loop")
	}
	a.loop.RunDue()
	if a.machine.Current() != animation.Thinking {
		t.Fatalf("expected thinking, got %s", a.machine.Current())
	}

	s.OnChatError(errors.New("boom"))
	a.loop.RunDue()
	if a.machine.Current() != animation.Idle {
		t.Errorf("expected idle after an error, got %s", a.machine.Current())
	}

	s.OnChatStart()
	s.OnChatResponse()
	a.loop.RunDue()
	if a.machine.Current() != animation.Talking {
		t.Errorf("expected talking, got %s", a.machine.Current())
	}
}

func TestSaveWindowBoundsKeepsFileSettings(t *testing.T) {
	a, _ := newTestApp(t, nil)

	want := geom.Rect{X: 640, Y: 200, Width: 300, Height: 400}
	a.saveWindowBounds(want)

	cfg, err := config.LoadConfigFrom(a.config.Path())
	if err != nil {
		t.Fatalf("failed to reload config: %v", err)
	}
	if cfg.Settings.WindowBounds != want {
		t.Errorf("expected %+v, got %+v", want, cfg.Settings.WindowBounds)
	}
	if cfg.Settings.Renderer != config.RendererAuto || !cfg.Settings.HistoryEnabled {
		t.Error("in-memory overrides must not be written back")
	}
}

func TestHistoryStoreOpened(t *testing.T) {
	a, _ := newTestApp(t, func(s *config.Settings) { s.HistoryEnabled = true })
	if a.store == nil {
		t.Fatal("expected the history store to be open")
	}
}

func TestModelResizesPanel(t *testing.T) {
	a, _ := newTestApp(t, nil)

	a.model.Update(tea.WindowSizeMsg{Width: 60, Height: 30})
	area, err := a.virtual.WorkArea()
	if err != nil {
		t.Fatalf("work area: %v", err)
	}
	if area.Width != 58 {
		t.Errorf("expected the panel interior width, got %d", area.Width)
	}

	view := a.model.View()
	if !strings.Contains(view, "/2000") {
		t.Error("expected the input counter in the view")
	}
}
