package history

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Formats lists the supported export formats.
var Formats = []string{"json", "txt", "yaml"}

type exportMessage struct {
	Role      string    `json:"role" yaml:"role"`
	Content   string    `json:"content" yaml:"content"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

type exportDoc struct {
	Timestamp time.Time       `json:"timestamp" yaml:"timestamp"`
	Session   string          `json:"session" yaml:"session"`
	Provider  string          `json:"provider" yaml:"provider"`
	Model     string          `json:"model" yaml:"model"`
	Messages  []exportMessage `json:"messages" yaml:"messages"`
}

// Export writes a session in the given format. sessionID may be a unique
// prefix, or empty for the newest session.
func (s *Store) Export(w io.Writer, sessionID, format string) error {
	format = strings.ToLower(format)
	switch format {
	case "json", "txt", "yaml", "yml":
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}

	session, err := s.Session(sessionID)
	if err != nil {
		return err
	}
	messages, err := s.Messages(session.ID)
	if err != nil {
		return err
	}

	doc := exportDoc{
		Timestamp: session.StartedAt.UTC(),
		Session:   session.ID,
		Provider:  session.Provider,
		Model:     session.Model,
		Messages:  make([]exportMessage, len(messages)),
	}
	for i, m := range messages {
		doc.Messages[i] = exportMessage{Role: m.Role, Content: m.Content, CreatedAt: m.CreatedAt.UTC()}
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	}

	fmt.Fprintf(w, "Session %s (%s, %s) started %s\n\n", doc.Session, doc.Provider, doc.Model, doc.Timestamp.Format(time.RFC3339))
	for _, m := range doc.Messages {
		if _, err := fmt.Fprintf(w, "[%s] %s: %s\n", m.CreatedAt.Format("15:04:05"), m.Role, m.Content); err != nil {
			return err
		}
	}
	return nil
}
