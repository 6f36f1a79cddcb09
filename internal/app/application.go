package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Rorical/RoriBuddy/internal/animation"
	"github.com/Rorical/RoriBuddy/internal/chat"
	"github.com/Rorical/RoriBuddy/internal/config"
	"github.com/Rorical/RoriBuddy/internal/dispatcher"
	"github.com/Rorical/RoriBuddy/internal/eventbus"
	"github.com/Rorical/RoriBuddy/internal/geom"
	"github.com/Rorical/RoriBuddy/internal/history"
	"github.com/Rorical/RoriBuddy/internal/loop"
	"github.com/Rorical/RoriBuddy/internal/overlay"
	"github.com/Rorical/RoriBuddy/internal/render"
	"github.com/Rorical/RoriBuddy/internal/render/threed"
	"github.com/Rorical/RoriBuddy/internal/roaming"
	"github.com/Rorical/RoriBuddy/internal/statefeed"
)

// HappyHold is how long a pet keeps the character happy.
const HappyHold = 1500 * time.Millisecond

// cellScale converts the pixel roaming speed to terminal cells per tick.
const cellScale = 10.0

// Application manages the complete application lifecycle. It owns every
// long-lived component; nothing is reached through globals.
type Application struct {
	config     *config.Config
	eventBus   *eventbus.EventBus
	dispatcher *dispatcher.EventDispatcher
	service    *chat.ChatService
	loop       *loop.Loop
	machine    *animation.Machine
	roaming    *roaming.Controller
	kind       render.Kind
	overlay    *overlay.Overlay
	virtual    *roaming.VirtualWindow
	feed       *statefeed.Feed
	store      *history.Store
	model      *AppModel
	program    *tea.Program
	logger     *slog.Logger

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

func NewApplication(cfg *config.Config) (*Application, error) {
	return newApplication(cfg, nil, render.CurrentEnvironment())
}

func newApplication(cfg *config.Config, clock loop.Clock, env render.Environment) (*Application, error) {
	settings := cfg.Settings
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	eb := eventbus.NewEventBus()
	l := loop.New(clock)
	machine := animation.NewMachine(l)

	a := &Application{
		config:     cfg,
		eventBus:   eb,
		dispatcher: dispatcher.NewEventDispatcher(eb),
		loop:       l,
		machine:    machine,
		kind:       render.Detect(settings.Renderer, env),
		logger:     slog.Default().With("component", "app"),
		ctx:        ctx,
		cancel:     cancel,
	}
	eb.SetErrorCallback(func(err eventbus.EventBusError) {
		a.logger.Debug("event bus error", "op", err.Operation, "err", err.Err)
	})

	var character *render.Fallback
	var window roaming.Window
	if a.kind == render.ThreeD {
		b := settings.WindowBounds
		r := threed.New(b.Width, b.Height, time.Now().UnixNano())
		a.overlay = overlay.New(l, r, settings, overlay.Callbacks{
			Pet:        a.pet,
			ToggleChat: func() { a.sendToUI(eventbus.ChatToggledEvent{}) },
			Closed:     func() { a.logger.Info("overlay window closed") },
		})
		machine.Observe(r)
		window = a.overlay
	} else {
		character = render.NewFallback()
		a.virtual = roaming.NewVirtualWindow(
			geom.Rect{Width: defaultPanelWidth, Height: panelHeight(character)},
			geom.Rect{Width: character.Width(), Height: character.Height()},
		)
		window = a.virtual
	}

	a.roaming = roaming.NewController(window, l)
	a.roaming.OnMovement(machine.OnMovementUpdate)
	if a.virtual != nil {
		a.roaming.OnMovement(a.reportMoved)
	}

	machine.Observe(animation.ObserverFunc(func(s animation.Snapshot) {
		a.sendToUI(eventbus.CharacterStateEvent{Snapshot: s})
	}))
	if settings.StateFeedAddr != "" {
		a.feed = statefeed.New(slog.Default().With("component", "statefeed"))
		machine.Observe(a.feed)
	}

	opts := []chat.Option{
		chat.WithSignals(loopSignals{loop: l, machine: machine}),
		chat.WithLogger(slog.Default().With("component", "chat")),
	}
	if settings.HistoryEnabled {
		store, err := history.Open(cfg.HistoryPath())
		if err != nil {
			a.logger.Warn("chat history disabled", "path", cfg.HistoryPath(), "err", err)
		} else {
			profile := cfg.Profile()
			store.Bind(profile.Provider, profile.Model)
			a.store = store
			opts = append(opts, chat.WithRecorder(store))
		}
	}

	service, err := chat.NewChatService(cfg, eb, opts...)
	if err != nil {
		a.closeResources()
		return nil, err
	}
	a.service = service

	a.model = newAppModel(a, character)
	return a, nil
}

// Start runs the application until the user quits. With the 3D renderer it
// must be called from the main goroutine, which the overlay window needs.
func (a *Application) Start() error {
	a.wg.Add(1)
	go a.route()

	a.service.Start()
	if a.config.Settings.RoamingEnabled {
		a.loop.Post(a.startRoaming)
	}
	if a.feed != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := a.feed.Serve(a.ctx, a.config.Settings.StateFeedAddr); err != nil {
				a.logger.Warn("state feed stopped", "addr", a.config.Settings.StateFeedAddr, "err", err)
			}
		}()
	}

	a.program = tea.NewProgram(a.model, tea.WithAltScreen())
	if a.kind == render.ThreeD {
		return a.runWithOverlay()
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.loop.Run(a.ctx)
	}()
	_, err := a.program.Run()
	return err
}

// runWithOverlay keeps the overlay on the calling goroutine and the chat
// panel on another. Either one closing takes the other down.
func (a *Application) runWithOverlay() error {
	tuiDone := make(chan error, 1)
	go func() {
		_, err := a.program.Run()
		a.overlay.Quit()
		tuiDone <- err
	}()

	err := a.overlay.Run()
	a.program.Quit()
	tuiErr := <-tuiDone

	a.saveWindowBounds(a.overlay.LastBounds())
	if err != nil {
		return fmt.Errorf("overlay: %w", err)
	}
	return tuiErr
}

func (a *Application) Stop() {
	a.stopOnce.Do(func() {
		a.cancel()
		a.wg.Wait()
		a.service.Stop()
		a.closeResources()
	})
}

func (a *Application) closeResources() {
	if a.feed != nil {
		a.feed.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("failed to close chat history", "err", err)
		}
	}
	a.dispatcher.Stop()
	a.eventBus.Close()
}

// route delivers UI events to the chat service or onto the loop.
func (a *Application) route() {
	defer a.wg.Done()
	for {
		select {
		case <-a.ctx.Done():
			return
		case ev, ok := <-a.eventBus.UIToCore():
			if !ok {
				return
			}
			a.handleUIEvent(ev)
		}
	}
}

func (a *Application) handleUIEvent(ev eventbus.UIEvent) {
	switch ev := ev.(type) {
	case eventbus.SendMessageEvent:
		err := a.service.Send(ev.Message)
		if err != nil && !errors.Is(err, chat.ErrNotConfigured) {
			a.service.ReportError(err)
		}
	case eventbus.ClearHistoryEvent:
		a.service.Clear()
	case eventbus.PetEvent:
		a.loop.Post(a.pet)
	case eventbus.ToggleRoamingEvent:
		a.loop.Post(a.toggleRoaming)
	case eventbus.ToggleChatEvent:
		a.sendToUI(eventbus.ChatToggledEvent{})
	default:
		a.logger.Debug("unhandled UI event", "type", fmt.Sprintf("%T", ev))
	}
}

func (a *Application) pet() {
	a.machine.OnHappyFor(HappyHold)
}

func (a *Application) roamingSpeed() float64 {
	speed := a.config.Settings.RoamingSpeed
	if a.virtual != nil {
		speed /= cellScale
	}
	return speed
}

func (a *Application) startRoaming() {
	err := a.roaming.Start(a.roamingSpeed(), geom.Direction{})
	if err != nil {
		a.logger.Warn("failed to start roaming", "speed", a.config.Settings.RoamingSpeed, "err", err)
	}
	a.reportRoaming(err)
}

func (a *Application) toggleRoaming() {
	if a.roaming.Running() {
		a.roaming.Stop()
		a.reportRoaming(nil)
		return
	}
	a.startRoaming()
}

func (a *Application) reportRoaming(err error) {
	a.sendToUI(eventbus.RoamingStateEvent{
		Enabled: a.roaming.Running(),
		Speed:   a.config.Settings.RoamingSpeed,
		Error:   err,
	})
}

func (a *Application) reportMoved(dir geom.Direction) {
	b, err := a.virtual.Bounds()
	if err != nil {
		return
	}
	a.sendToUI(eventbus.CharacterMovedEvent{Bounds: b, Direction: dir})
}

func (a *Application) sendToUI(ev eventbus.CoreEvent) {
	if err := a.eventBus.SendToUI(ev); err != nil {
		a.logger.Debug("dropping core event", "type", fmt.Sprintf("%T", ev), "err", err)
	}
}

// saveWindowBounds persists the final overlay position. The file is reloaded
// so that command-line overrides held in memory are not written back.
func (a *Application) saveWindowBounds(b geom.Rect) {
	if b.Empty() || a.config.Path() == "" {
		return
	}
	cfg, err := config.LoadConfigFrom(a.config.Path())
	if err != nil {
		a.logger.Warn("failed to reload config", "err", err)
		return
	}
	cfg.Settings.WindowBounds = b
	if err := cfg.Save(); err != nil {
		a.logger.Warn("failed to save window bounds", "err", err)
		return
	}
	a.logger.Debug("window bounds saved", "x", b.X, "y", b.Y, "width", b.Width, "height", b.Height)
}
