package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"

	DefaultModel           = "gpt-3.5-turbo"
	DefaultOpenRouterModel = "openai/gpt-3.5-turbo"
)

var ErrNoProfiles = errors.New("no profiles defined")

type Profile struct {
	Provider     string  `json:"provider,omitempty" jsonschema:"enum=openai,enum=openrouter"`
	APIKey       string  `json:"api_key"`
	BaseURL      string  `json:"base_url,omitempty"`
	Model        string  `json:"model"`
	SystemPrompt string  `json:"system_prompt,omitempty"`
	MaxTokens    int     `json:"max_tokens,omitempty"`
	Temperature  float32 `json:"temperature,omitempty"`
}

type Config struct {
	Profiles       map[string]Profile `json:"profiles"`
	ActiveProfile  string             `json:"active_profile"`
	Settings       Settings           `json:"settings"`
	currentProfile *Profile
	path           string
}

// LoadConfig reads the config file, creating it with defaults on first run.
func LoadConfig() (*Config, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}
	return LoadConfigFrom(configPath)
}

// LoadConfigFrom is LoadConfig for an explicit file path.
func LoadConfigFrom(configPath string) (*Config, error) {
	if err := ensureConfigDir(configPath); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	config, err := loadConfigFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	config.path = configPath

	if err := config.setCurrentProfile(); err != nil {
		return nil, fmt.Errorf("failed to set current profile: %w", err)
	}

	return config, nil
}

func (c *Config) IsValid() bool {
	return c.currentProfile != nil && c.currentProfile.APIKey != ""
}

// Profile returns the active profile with provider defaults filled in.
func (c *Config) Profile() Profile {
	if c.currentProfile == nil {
		return withDefaults(Profile{})
	}
	return withDefaults(*c.currentProfile)
}

func (c *Config) GetAPIKey() string {
	return c.Profile().APIKey
}

func (c *Config) GetModel() string {
	return c.Profile().Model
}

func (c *Config) GetBaseURL() string {
	return c.Profile().BaseURL
}

// Path returns the config file location.
func (c *Config) Path() string {
	return c.path
}

// Dir returns the directory holding the config file.
func (c *Config) Dir() string {
	return filepath.Dir(c.path)
}

// LogPath is where the running app writes its log.
func (c *Config) LogPath() string {
	return filepath.Join(c.Dir(), "roribuddy.log")
}

// HistoryPath is the chat transcript database.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Dir(), "history.db")
}

// WithDefaults fills in whatever the profile leaves to the provider.
func (p Profile) WithDefaults() Profile {
	return withDefaults(p)
}

func withDefaults(p Profile) Profile {
	if p.Provider == "" {
		p.Provider = ProviderOpenAI
	}
	if p.Model == "" {
		p.Model = DefaultModel
		if p.Provider == ProviderOpenRouter {
			p.Model = DefaultOpenRouterModel
		}
	}
	if p.MaxTokens <= 0 {
		p.MaxTokens = 500
	}
	if p.Temperature <= 0 {
		p.Temperature = 0.7
	}
	return p
}

func getConfigPath() (string, error) {
	var configDir string

	// Use RORIBUDDY_HOME if set, otherwise use user's home directory
	if home := os.Getenv("RORIBUDDY_HOME"); home != "" {
		configDir = home
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = homeDir
	}

	return filepath.Join(configDir, ".roribuddy", "config.json"), nil
}

func ensureConfigDir(configPath string) error {
	configDir := filepath.Dir(configPath)
	return os.MkdirAll(configDir, 0755)
}

func loadConfigFile(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return createDefaultConfig(configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Start from defaults so keys missing from older files keep them.
	config := defaultConfig()
	config.Profiles = nil
	if err := json.Unmarshal(data, config); err != nil {
		return nil, err
	}

	return config, nil
}

func defaultConfig() *Config {
	return &Config{
		Profiles: map[string]Profile{
			"default": {
				Provider: ProviderOpenAI,
				Model:    DefaultModel,
			},
		},
		ActiveProfile: "default",
		Settings:      DefaultSettings(),
	}
}

func createDefaultConfig(configPath string) (*Config, error) {
	config := defaultConfig()
	if err := saveConfig(config, configPath); err != nil {
		return nil, err
	}
	return config, nil
}

func saveConfig(config *Config, configPath string) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0600)
}

func (c *Config) Save() error {
	if c.path == "" {
		configPath, err := getConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
		c.path = configPath
	}
	if err := c.Settings.Validate(); err != nil {
		return err
	}
	return saveConfig(c, c.path)
}

func (c *Config) setCurrentProfile() error {
	if len(c.Profiles) == 0 {
		return ErrNoProfiles
	}

	profile, exists := c.Profiles[c.ActiveProfile]
	if !exists {
		// If active profile doesn't exist, try to use the first available profile
		for name, p := range c.Profiles {
			c.ActiveProfile = name
			profile = p
			exists = true
			break
		}
	}

	if !exists {
		return fmt.Errorf("no valid profiles found")
	}

	c.currentProfile = &profile
	return nil
}

// UseProfile makes name the active profile.
func (c *Config) UseProfile(name string) error {
	if _, ok := c.Profiles[name]; !ok {
		return fmt.Errorf("profile '%s' does not exist", name)
	}
	c.ActiveProfile = name
	return c.setCurrentProfile()
}
