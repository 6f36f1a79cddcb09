package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time {
		now = now.Add(time.Second)
		return now
	}
	return s
}

func TestRecordStartsSessionLazily(t *testing.T) {
	s := openStore(t)
	s.Bind("openai", "gpt-3.5-turbo")

	sessions, err := s.Sessions()
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 0 {
		t.Fatalf("expected no sessions yet, got %d", len(sessions))
	}

	if err := s.Record("user", "hello"); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := s.Record("assistant", "woof"); err != nil {
		t.Fatalf("record: %v", err)
	}

	sessions, err = s.Sessions()
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected one session, got %d", len(sessions))
	}
	if sessions[0].MessageCount != 2 || sessions[0].Provider != "openai" {
		t.Errorf("unexpected session %+v", sessions[0])
	}

	messages, err := s.Messages(sessions[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(messages) != 2 || messages[0].Content != "hello" || messages[1].Role != "assistant" {
		t.Errorf("unexpected messages %+v", messages)
	}
}

func TestNewSessionSplitsTranscripts(t *testing.T) {
	s := openStore(t)
	s.Record("user", "first")
	s.NewSession()
	s.Record("user", "second")

	sessions, err := s.Sessions()
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected two sessions, got %d", len(sessions))
	}
	latest, err := s.Session("")
	if err != nil {
		t.Fatal(err)
	}
	if latest.ID != sessions[0].ID {
		t.Error("the empty id should resolve to the newest session")
	}
	msgs, _ := s.Messages(latest.ID)
	if len(msgs) != 1 || msgs[0].Content != "second" {
		t.Errorf("unexpected newest transcript %+v", msgs)
	}
}

func TestSessionPrefix(t *testing.T) {
	s := openStore(t)
	id, err := s.StartSession("openrouter", "openai/gpt-3.5-turbo")
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.Session(id[:8])
	if err != nil {
		t.Fatalf("prefix lookup: %v", err)
	}
	if got.ID != id {
		t.Errorf("expected %s, got %s", id, got.ID)
	}
	if _, err := s.Session("zzzz"); !errors.Is(err, ErrNoSession) {
		t.Errorf("expected ErrNoSession, got %v", err)
	}
}

func TestExportFormats(t *testing.T) {
	s := openStore(t)
	s.Bind("openai", "gpt-3.5-turbo")
	s.Record("user", "hi")
	s.Record("assistant", "Woof!")

	var buf bytes.Buffer
	if err := s.Export(&buf, "", "json"); err != nil {
		t.Fatalf("json export: %v", err)
	}
	var doc struct {
		Timestamp time.Time `json:"timestamp"`
		Provider  string    `json:"provider"`
		Model     string    `json:"model"`
		Messages  []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("decode json export: %v", err)
	}
	if doc.Provider != "openai" || doc.Model != "gpt-3.5-turbo" || len(doc.Messages) != 2 {
		t.Errorf("unexpected json export %+v", doc)
	}
	if doc.Timestamp.IsZero() {
		t.Error("expected a timestamp")
	}

	buf.Reset()
	if err := s.Export(&buf, "", "yaml"); err != nil {
		t.Fatalf("yaml export: %v", err)
	}
	var y map[string]interface{}
	if err := yaml.Unmarshal(buf.Bytes(), &y); err != nil {
		t.Fatalf("decode yaml export: %v", err)
	}
	if y["model"] != "gpt-3.5-turbo" {
		t.Errorf("unexpected yaml export %v", y)
	}

	buf.Reset()
	if err := s.Export(&buf, "", "txt"); err != nil {
		t.Fatalf("txt export: %v", err)
	}
	if !strings.Contains(buf.String(), "assistant: Woof!") {
		t.Errorf("unexpected text export:\n%s", buf.String())
	}

	if err := s.Export(&buf, "", "csv"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestClear(t *testing.T) {
	s := openStore(t)
	s.Record("user", "hello")
	if err := s.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	sessions, _ := s.Sessions()
	if len(sessions) != 0 {
		t.Errorf("expected no sessions, got %d", len(sessions))
	}
	if _, err := s.Session(""); !errors.Is(err, ErrNoSession) {
		t.Errorf("expected ErrNoSession, got %v", err)
	}

	if err := s.Record("user", "again"); err != nil {
		t.Fatalf("record after clear: %v", err)
	}
	if sessions, _ := s.Sessions(); len(sessions) != 1 {
		t.Errorf("expected a fresh session after clear, got %d", len(sessions))
	}
}
