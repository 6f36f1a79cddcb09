package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/Rorical/RoriBuddy/internal/geom"
)

var ErrUnknownSetting = errors.New("unknown setting")

const (
	RendererAuto = "auto"
	Renderer3D   = "3d"
	Renderer2D   = "2d"
)

// Settings are the app-wide options shared by every profile.
type Settings struct {
	RoamingEnabled  bool      `json:"roaming_enabled"`
	RoamingSpeed    float64   `json:"roaming_speed" jsonschema:"minimum=0,default=2"`
	WindowBounds    geom.Rect `json:"window_bounds"`
	AlwaysOnTop     bool      `json:"always_on_top"`
	Transparency    float64   `json:"transparency" jsonschema:"minimum=0,maximum=1,default=0.9"`
	ChatPosition    string    `json:"chat_position" jsonschema:"enum=left,enum=right"`
	Renderer        string    `json:"renderer" jsonschema:"enum=auto,enum=3d,enum=2d"`
	StateFeedAddr   string    `json:"state_feed_addr,omitempty"`
	MaxMessages     int       `json:"max_messages" jsonschema:"minimum=1,default=50"`
	ContextMessages int       `json:"context_messages" jsonschema:"minimum=1,default=10"`
	HistoryEnabled  bool      `json:"history_enabled"`
}

func DefaultSettings() Settings {
	return Settings{
		RoamingEnabled:  false,
		RoamingSpeed:    2,
		WindowBounds:    geom.Rect{X: 100, Y: 100, Width: 300, Height: 400},
		AlwaysOnTop:     true,
		Transparency:    0.9,
		ChatPosition:    "right",
		Renderer:        RendererAuto,
		MaxMessages:     50,
		ContextMessages: 10,
		HistoryEnabled:  true,
	}
}

func (s Settings) Validate() error {
	if s.RoamingSpeed <= 0 {
		return fmt.Errorf("roaming_speed must be positive, got %v", s.RoamingSpeed)
	}
	if s.Transparency < 0 || s.Transparency > 1 {
		return fmt.Errorf("transparency must be within [0, 1], got %v", s.Transparency)
	}
	switch s.ChatPosition {
	case "left", "right":
	default:
		return fmt.Errorf("chat_position must be left or right, got %q", s.ChatPosition)
	}
	switch s.Renderer {
	case RendererAuto, Renderer3D, Renderer2D:
	default:
		return fmt.Errorf("renderer must be auto, 3d or 2d, got %q", s.Renderer)
	}
	if s.WindowBounds.Width <= 0 || s.WindowBounds.Height <= 0 {
		return fmt.Errorf("window_bounds must have a positive size")
	}
	if s.MaxMessages <= 0 || s.ContextMessages <= 0 {
		return fmt.Errorf("max_messages and context_messages must be positive")
	}
	return nil
}

func (s Settings) fields() (map[string]json.RawMessage, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	// Keep omitted fields addressable.
	fields := map[string]json.RawMessage{"state_feed_addr": json.RawMessage(`""`)}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// Keys lists the setting names, sorted.
func (s Settings) Keys() []string {
	fields, _ := s.fields()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns a setting as JSON text.
func (s Settings) Get(key string) (string, error) {
	fields, err := s.fields()
	if err != nil {
		return "", err
	}
	raw, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownSetting, key)
	}
	return string(raw), nil
}

// Set parses value as JSON (bare words are taken as strings) and stores it
// under key. The settings are left untouched when the result is invalid.
func (s *Settings) Set(key, value string) error {
	fields, err := s.fields()
	if err != nil {
		return err
	}
	if _, ok := fields[key]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSetting, key)
	}

	raw := json.RawMessage(strings.TrimSpace(value))
	if !json.Valid(raw) {
		quoted, _ := json.Marshal(value)
		raw = quoted
	}
	fields[key] = raw

	data, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	next := *s
	if err := json.Unmarshal(data, &next); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*s = next
	return nil
}

// Schema describes the config file.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}
	schema := reflector.Reflect(new(Config))
	schema.Title = "RoriBuddy configuration"
	schema.Description = "Validates ~/.roribuddy/config.json"
	return schema
}
