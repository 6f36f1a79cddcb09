package app

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Rorical/RoriBuddy/internal/chat"
	"github.com/Rorical/RoriBuddy/internal/dispatcher"
	"github.com/Rorical/RoriBuddy/internal/geom"
	"github.com/Rorical/RoriBuddy/internal/models"
	"github.com/Rorical/RoriBuddy/internal/render"
	"github.com/Rorical/RoriBuddy/internal/roaming"
	"github.com/Rorical/RoriBuddy/internal/update"
	"github.com/Rorical/RoriBuddy/ui/components"
)

// defaultPanelWidth is used until the terminal reports its size.
const defaultPanelWidth = 78

// panelHeight leaves room for the art to bob inside the character panel.
func panelHeight(f *render.Fallback) int {
	return f.Height() + 3
}

type AppModel struct {
	appModel   models.AppModel
	dispatcher *dispatcher.EventDispatcher
	virtual    *roaming.VirtualWindow
}

func newAppModel(a *Application, character *render.Fallback) *AppModel {
	// No initial messages in UI - they come from core as single source of truth
	m := &AppModel{
		appModel: models.AppModel{
			Messages:         make([]models.Message, 0),
			Status:           "Ready",
			ChatServiceReady: a.service.IsReady(),
			ChatVisible:      true,
			CharacterState:   a.machine.Current(),
			Character:        character,
		},
		dispatcher: a.dispatcher,
		virtual:    a.virtual,
	}
	if a.virtual != nil {
		if b, err := a.virtual.Bounds(); err == nil {
			m.appModel.CharacterPos = b
		}
	}
	return m
}

func (m *AppModel) Init() tea.Cmd {
	return tea.Batch(
		update.TickCmd(),
		m.dispatcher.ListenForUIEvents(),
	)
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle core events and continue listening
	if coreEvent, ok := msg.(update.CoreEventMsg); ok {
		cmd := update.HandleCoreEvent(&m.appModel, coreEvent)
		return m, tea.Batch(cmd, m.dispatcher.ListenForUIEvents())
	}

	if size, ok := msg.(tea.WindowSizeMsg); ok && m.virtual != nil && m.appModel.Character != nil {
		m.virtual.SetWorkArea(geom.Rect{
			Width:  max(size.Width-2, 0),
			Height: panelHeight(m.appModel.Character),
		})
	}

	// Handle other events through the event bus
	eventBus := m.dispatcher.GetEventBus()
	chatReady := m.appModel.ChatServiceReady
	cmd := update.HandleUpdateWithEventBus(&m.appModel, msg, eventBus, chatReady)

	return m, cmd
}

func (m *AppModel) View() string {
	var b strings.Builder
	am := &m.appModel

	width := am.Width
	if width <= 0 {
		width = defaultPanelWidth + 2
	}

	used := 2
	if am.Character != nil {
		h := panelHeight(am.Character)
		b.WriteString(components.RenderCharacter(am.Character, am.CharacterPos, width-2, h))
		b.WriteString("\n")
		used += h + 2
	}
	if am.ChatVisible {
		b.WriteString(components.RenderMessages(am.Messages, am.Height-used-1))
		b.WriteString("\n")
	}
	b.WriteString(components.RenderInput(am.Input, chat.MaxInputLength, am.Loading, am.Width))
	b.WriteString("\n")
	b.WriteString(components.RenderStatus(am.Status, am.Loading, am.LoadingDots, am.Width, am.CharacterState, am.Roaming))

	return b.String()
}
