package update

import (
	"strings"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Rorical/RoriBuddy/internal/chat"
	"github.com/Rorical/RoriBuddy/internal/eventbus"
	"github.com/Rorical/RoriBuddy/internal/models"
)

// HandleKeyMsgWithEventBus handles keyboard input using event bus
func HandleKeyMsgWithEventBus(appModel *models.AppModel, keyMsg tea.KeyMsg, eb *eventbus.EventBus, chatReady bool) tea.Cmd {
	switch keyMsg.Type {
	case tea.KeyCtrlC:
		return tea.Quit
	case tea.KeyEsc:
		appModel.ChatVisible = !appModel.ChatVisible
		return nil
	case tea.KeyCtrlP:
		sendToCore(appModel, eb, eventbus.PetEvent{})
		return nil
	case tea.KeyCtrlR:
		sendToCore(appModel, eb, eventbus.ToggleRoamingEvent{})
		return nil
	case tea.KeyCtrlL:
		sendToCore(appModel, eb, eventbus.ClearHistoryEvent{})
		return nil
	}

	if !appModel.ChatVisible {
		return nil
	}

	switch keyMsg.Type {
	case tea.KeyEnter:
		if strings.TrimSpace(appModel.Input) == "" {
			return nil
		}
		if appModel.Loading {
			appModel.Status = "Still waiting for the last reply"
			return nil
		}
		if sendToCore(appModel, eb, eventbus.SendMessageEvent{Message: appModel.Input}) {
			appModel.Input = ""
			if !chatReady {
				// The core answers with setup instructions.
				appModel.Status = "Chat service not configured"
			}
		}
	case tea.KeyBackspace:
		if len(appModel.Input) > 0 {
			_, size := utf8.DecodeLastRuneInString(appModel.Input)
			appModel.Input = appModel.Input[:len(appModel.Input)-size]
		}
	case tea.KeySpace:
		appendInput(appModel, " ")
	case tea.KeyRunes:
		appendInput(appModel, string(keyMsg.Runes))
	}
	return nil
}

func appendInput(appModel *models.AppModel, s string) {
	room := chat.MaxInputLength - utf8.RuneCountInString(appModel.Input)
	if room <= 0 {
		return
	}
	if utf8.RuneCountInString(s) > room {
		s = string([]rune(s)[:room])
	}
	appModel.Input += s
}

func sendToCore(appModel *models.AppModel, eb *eventbus.EventBus, event eventbus.UIEvent) bool {
	if err := eb.SendToCore(event); err != nil {
		appModel.Status = "Error sending event: " + err.Error()
		return false
	}
	return true
}

// CoreEventMsg wraps core events for Bubble Tea
type CoreEventMsg struct {
	Event eventbus.CoreEvent
}

// HandleCoreEvent processes events from the core
func HandleCoreEvent(appModel *models.AppModel, coreEventMsg CoreEventMsg) tea.Cmd {
	switch event := coreEventMsg.Event.(type) {
	case eventbus.StateUpdateEvent:
		appModel.Messages = event.Messages
		appModel.Loading = event.IsProcessing

		if event.Error != nil {
			appModel.Status = "Error: " + event.Error.Error()
		} else if event.IsProcessing {
			appModel.Status = "Processing"
		} else {
			appModel.Status = "Ready"
		}
	case eventbus.CharacterStateEvent:
		appModel.CharacterState = event.Snapshot.State
		if appModel.Character != nil {
			appModel.Character.ApplyState(event.Snapshot)
		}
	case eventbus.CharacterMovedEvent:
		appModel.CharacterPos = event.Bounds
	case eventbus.RoamingStateEvent:
		appModel.Roaming = event.Enabled
		if event.Error != nil {
			appModel.Status = "Roaming: " + event.Error.Error()
		}
	case eventbus.ChatToggledEvent:
		appModel.ChatVisible = !appModel.ChatVisible
	}

	return nil
}

type TickMsg time.Time

func TickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func HandleWindowSizeMsg(appModel *models.AppModel, sizeMsg tea.WindowSizeMsg) {
	appModel.Width = sizeMsg.Width
	appModel.Height = sizeMsg.Height
}

func HandleTickMsg(appModel *models.AppModel) tea.Cmd {
	if appModel.Loading {
		appModel.LoadingDots = (appModel.LoadingDots + 1) % 4
	}
	if appModel.Character != nil {
		appModel.Character.Advance()
	}
	return TickCmd()
}
