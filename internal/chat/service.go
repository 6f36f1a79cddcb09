package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/sashabaranov/go-openai"

	"github.com/Rorical/RoriBuddy/internal/config"
	"github.com/Rorical/RoriBuddy/internal/eventbus"
	"github.com/Rorical/RoriBuddy/internal/models"
)

var (
	ErrNotConfigured = errors.New("no API key configured for the active profile")
	ErrBusy          = errors.New("still waiting for the previous reply")
	ErrEmptyResponse = errors.New("empty response from the chat-completion API")
	ErrTooLong       = fmt.Errorf("message longer than %d characters", MaxInputLength)
)

// MaxInputLength is the longest message the panel accepts, in characters.
const MaxInputLength = 2000

const Persona = `You are a cute, friendly AI dog assistant that lives on the user's desktop! You have a playful, loyal and enthusiastic personality like a happy puppy, and you love to help your human with anything they need.

Key traits:
- Express excitement with dog-like enthusiasm ("Woof!", "Tail wagging!")
- Be loyal, affectionate and eager to please
- Occasionally mention dog behaviors (sniffing, playing, treats, walks)
- Stay helpful and intelligent while keeping your dog personality
- Keep responses conversational but not too long

You can help with tasks, answer questions and keep your human company.`

const greeting = `Woof woof! Hello there, human! I'm your desktop dog and I'm SO happy to see you! *tail wagging*
Ask me anything, chat with me, or give me a pet with Ctrl+P!`

// Signals receives the chat lifecycle. OnChatStart is always followed by
// exactly one of OnChatResponse or OnChatError.
type Signals interface {
	OnChatStart()
	OnChatResponse()
	OnChatError(err error)
}

// Recorder persists the transcript.
type Recorder interface {
	Record(role, content string) error
	NewSession() error
}

type Option func(*ChatService)

func WithSignals(s Signals) Option {
	return func(cs *ChatService) { cs.signals = s }
}

func WithRecorder(r Recorder) Option {
	return func(cs *ChatService) { cs.recorder = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(cs *ChatService) { cs.logger = l }
}

type ChatService struct {
	client          *openai.Client
	config          *config.Config
	profile         config.Profile
	state           *ChatState
	eventBus        *eventbus.EventBus
	signals         Signals
	recorder        Recorder
	logger          *slog.Logger
	contextMessages int
	ctx             context.Context
	cancel          context.CancelFunc
	reqMu           sync.Mutex
	reqCancel       context.CancelFunc
	wg              sync.WaitGroup
}

// NewChatService creates a ChatService regardless of config validity so the
// panel always has state to show. Sends fail with ErrNotConfigured until the
// active profile has an API key.
func NewChatService(cfg *config.Config, eb *eventbus.EventBus, opts ...Option) (*ChatService, error) {
	profile := cfg.Profile()
	client, err := NewClient(profile)
	if err != nil && !errors.Is(err, ErrNotConfigured) {
		return nil, fmt.Errorf("failed to create chat client: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	service := &ChatService{
		client:          client,
		config:          cfg,
		profile:         profile,
		state:           NewChatState(cfg.Settings.MaxMessages),
		eventBus:        eb,
		logger:          slog.Default(),
		contextMessages: cfg.Settings.ContextMessages,
		ctx:             ctx,
		cancel:          cancel,
	}
	for _, opt := range opts {
		opt(service)
	}

	service.addWelcomeMessages()
	return service, nil
}

// Start pushes the initial state to the UI.
func (cs *ChatService) Start() {
	cs.pushStateToUI()
}

// Stop cancels any request in flight and waits for it to unwind.
func (cs *ChatService) Stop() {
	cs.cancel()
	cs.wg.Wait()
}

func (cs *ChatService) IsReady() bool {
	return cs.client != nil
}

func (cs *ChatService) State() *ChatState {
	return cs.state
}

// Send records the user's message and requests a reply in the background.
// Blank messages are ignored.
func (cs *ChatService) Send(message string) error {
	text := strings.TrimSpace(message)
	if text == "" {
		return nil
	}
	if utf8.RuneCountInString(text) > MaxInputLength {
		return ErrTooLong
	}
	if cs.client == nil {
		cs.state.SetError(ErrNotConfigured)
		cs.state.AddProgramMessage(fmt.Sprintf("Add an API key first: roribuddy profile edit %s", cs.config.ActiveProfile))
		cs.pushStateToUI()
		return ErrNotConfigured
	}

	generation, ok := cs.state.StartProcessingWithUserMessage(text)
	if !ok {
		return ErrBusy
	}
	cs.record(openai.ChatMessageRoleUser, text)
	cs.pushStateToUI()

	if cs.signals != nil {
		cs.signals.OnChatStart()
	}

	reqCtx, cancel := context.WithCancel(cs.ctx)
	cs.reqMu.Lock()
	cs.reqCancel = cancel
	cs.reqMu.Unlock()

	cs.wg.Add(1)
	go cs.complete(reqCtx, cancel, generation)
	return nil
}

func (cs *ChatService) complete(ctx context.Context, cancel context.CancelFunc, generation int) {
	defer cs.wg.Done()
	defer cancel()

	reply, err := cs.requestCompletion(ctx)
	if err == nil && !cs.state.FinishProcessingWithAssistantMessage(generation, reply) {
		err = context.Canceled
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			cs.state.FinishProcessingWithError(nil)
		} else {
			cs.logger.Warn("chat completion failed", "provider", cs.profile.Provider, "model", cs.profile.Model, "err", err)
			cs.state.FinishProcessingWithError(err)
			cs.state.AddProgramMessage("Error: " + err.Error())
		}
		if cs.signals != nil {
			cs.signals.OnChatError(err)
		}
		cs.pushStateToUI()
		return
	}

	cs.record(openai.ChatMessageRoleAssistant, reply)
	if cs.signals != nil {
		cs.signals.OnChatResponse()
	}
	cs.pushStateToUI()
}

func (cs *ChatService) requestCompletion(ctx context.Context) (string, error) {
	prompt := cs.profile.SystemPrompt
	if prompt == "" {
		prompt = Persona
	}

	req := openai.ChatCompletionRequest{
		Model:       cs.profile.Model,
		Messages:    cs.state.ContextWindow(prompt, cs.contextMessages),
		MaxTokens:   cs.profile.MaxTokens,
		Temperature: cs.profile.Temperature,
	}

	resp, err := cs.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}

// ReportError shows err on the panel's status line.
func (cs *ChatService) ReportError(err error) {
	cs.state.SetError(err)
	cs.pushStateToUI()
}

// Clear drops the conversation, cancelling any reply still on its way.
func (cs *ChatService) Clear() {
	cs.reqMu.Lock()
	if cs.reqCancel != nil {
		cs.reqCancel()
		cs.reqCancel = nil
	}
	cs.reqMu.Unlock()

	cs.state.Clear()
	if cs.recorder != nil {
		if err := cs.recorder.NewSession(); err != nil {
			cs.logger.Warn("failed to start history session", "err", err)
		}
	}
	cs.addWelcomeMessages()
	cs.state.AddProgramMessage("Chat history cleared")
	cs.pushStateToUI()
}

func (cs *ChatService) record(role, content string) {
	if cs.recorder == nil {
		return
	}
	if err := cs.recorder.Record(role, content); err != nil {
		cs.logger.Warn("failed to record chat message", "role", role, "err", err)
	}
}

func (cs *ChatService) pushStateToUI() {
	if cs.eventBus == nil {
		return
	}
	if err := cs.eventBus.SendToUI(eventbus.StateUpdateEvent{
		Messages:     cs.state.GetMessages(),
		IsProcessing: cs.state.IsProcessing(),
		Error:        cs.state.GetLastError(),
	}); err != nil {
		cs.logger.Debug("dropping chat state update", "err", err)
	}
}

// GetInitialMessages returns the welcome messages.
func (cs *ChatService) GetInitialMessages() []models.Message {
	return cs.state.GetMessages()
}

func (cs *ChatService) addWelcomeMessages() {
	cs.state.AddProgramMessage("-- RORIBUDDY --")

	if cs.IsReady() {
		cs.state.AddProgramMessage(fmt.Sprintf("Active Profile: %s (%s, %s) [OK]", cs.config.ActiveProfile, cs.profile.Provider, cs.profile.Model))
		cs.state.AddGreeting(greeting)
	} else {
		cs.state.AddProgramMessage(fmt.Sprintf("Active Profile: %s [NOT CONFIGURED]", cs.config.ActiveProfile))
		cs.state.AddProgramMessage("Configure your profile to start chatting:")
		cs.state.AddProgramMessage("• Run: roribuddy profile add <name>")
		cs.state.AddProgramMessage("• Or edit: ~/.roribuddy/config.json")
	}

	cs.state.AddProgramMessage("Enter send · Esc hide chat · Ctrl+P pet · Ctrl+R roam · Ctrl+L clear · Ctrl+C quit")
}
