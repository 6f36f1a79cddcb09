package chat

import (
	"sync"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/Rorical/RoriBuddy/internal/models"
)

// ChatState holds the conversation. chatHistory is what the model sees,
// programMessages are local notices shown above it.
type ChatState struct {
	mu              sync.RWMutex
	chatHistory     []openai.ChatCompletionMessage
	stamps          []time.Time
	programMessages []models.Message
	isProcessing    bool
	lastError       error
	maxMessages     int
	generation      int
}

func NewChatState(maxMessages int) *ChatState {
	if maxMessages <= 0 {
		maxMessages = 50
	}
	return &ChatState{
		chatHistory:     make([]openai.ChatCompletionMessage, 0),
		programMessages: make([]models.Message, 0),
		maxMessages:     maxMessages,
	}
}

func (cs *ChatState) GetChatHistory() []openai.ChatCompletionMessage {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	result := make([]openai.ChatCompletionMessage, len(cs.chatHistory))
	copy(result, cs.chatHistory)
	return result
}

// ContextWindow returns the system prompt followed by the last n messages.
func (cs *ChatState) ContextWindow(systemPrompt string, n int) []openai.ChatCompletionMessage {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	start := 0
	if n > 0 && len(cs.chatHistory) > n {
		start = len(cs.chatHistory) - n
	}
	result := make([]openai.ChatCompletionMessage, 0, len(cs.chatHistory)-start+1)
	result = append(result, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	return append(result, cs.chatHistory[start:]...)
}

func (cs *ChatState) GetMessages() []models.Message {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	result := make([]models.Message, 0, len(cs.programMessages)+len(cs.chatHistory))
	result = append(result, cs.programMessages...)

	for i, msg := range cs.chatHistory {
		m := models.Message{Content: msg.Content, Time: cs.stamps[i]}
		switch msg.Role {
		case openai.ChatMessageRoleUser:
			m.Type = models.User
		case openai.ChatMessageRoleAssistant:
			m.Type = models.Assistant
		default:
			continue
		}
		result = append(result, m)
	}
	return result
}

func (cs *ChatState) IsProcessing() bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.isProcessing
}

func (cs *ChatState) GetLastError() error {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.lastError
}

func (cs *ChatState) SetError(err error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.lastError = err
}

// AddProgramMessage adds a local notice.
func (cs *ChatState) AddProgramMessage(content string) {
	cs.addLocal(content, models.Program)
}

// AddGreeting shows an assistant-styled message that is never sent upstream.
func (cs *ChatState) AddGreeting(content string) {
	cs.addLocal(content, models.Assistant)
}

func (cs *ChatState) addLocal(content string, t models.MessageType) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.programMessages = append(cs.programMessages, models.Message{
		Content: content,
		Type:    t,
		Time:    time.Now(),
	})
}

// StartProcessingWithUserMessage marks a request in flight and records the
// user's message. It reports false, changing nothing, when a request is
// already in flight. The returned generation identifies the conversation.
func (cs *ChatState) StartProcessingWithUserMessage(content string) (int, bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.isProcessing {
		return cs.generation, false
	}
	cs.isProcessing = true
	cs.lastError = nil
	cs.appendLocked(openai.ChatMessageRoleUser, content)
	return cs.generation, true
}

// FinishProcessingWithAssistantMessage records the reply. Replies to a
// conversation that was cleared in the meantime are dropped.
func (cs *ChatState) FinishProcessingWithAssistantMessage(generation int, content string) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.isProcessing = false
	cs.lastError = nil
	if generation != cs.generation {
		return false
	}
	cs.appendLocked(openai.ChatMessageRoleAssistant, content)
	return true
}

func (cs *ChatState) FinishProcessingWithError(err error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.isProcessing = false
	cs.lastError = err
}

func (cs *ChatState) appendLocked(role, content string) {
	cs.chatHistory = append(cs.chatHistory, openai.ChatCompletionMessage{
		Role:    role,
		Content: content,
	})
	cs.stamps = append(cs.stamps, time.Now())
	if over := len(cs.chatHistory) - cs.maxMessages; over > 0 {
		cs.chatHistory = append([]openai.ChatCompletionMessage(nil), cs.chatHistory[over:]...)
		cs.stamps = append([]time.Time(nil), cs.stamps[over:]...)
	}
}

// Clear drops the conversation and the local notices and starts a new
// generation.
func (cs *ChatState) Clear() {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.chatHistory = cs.chatHistory[:0]
	cs.stamps = cs.stamps[:0]
	cs.programMessages = cs.programMessages[:0]
	cs.lastError = nil
	cs.generation++
}

func (cs *ChatState) Len() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.chatHistory)
}
