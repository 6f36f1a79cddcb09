package cmd

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strconv"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/Rorical/RoriBuddy/internal/config"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage API profiles",
	Long:  `Manage API profiles for different providers and configurations.`,
}

var listProfilesCmd = &cobra.Command{
	Use:   "list",
	Short: "List all profiles",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()

		fmt.Printf("Active Profile: %s\n\n", cfg.ActiveProfile)
		fmt.Println("Available Profiles:")
		for _, name := range profileNames(cfg, "") {
			profile := cfg.Profiles[name]
			marker := ""
			if name == cfg.ActiveProfile {
				marker = " (active)"
			}
			fmt.Printf("  %s%s\n", name, marker)
			printProfile("    ", profile)
			fmt.Println()
		}
	},
}

var showProfileCmd = &cobra.Command{
	Use:   "show [profile-name]",
	Short: "Show profile details",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()

		profileName := args[0]
		profile, exists := cfg.Profiles[profileName]
		if !exists {
			log.Fatalf("Profile '%s' does not exist", profileName)
		}

		fmt.Printf("Profile: %s\n", profileName)
		printProfile("", profile)
	},
}

var addProfileCmd = &cobra.Command{
	Use:   "add [profile-name]",
	Short: "Add a new profile",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()

		var profileName string
		if len(args) > 0 {
			profileName = args[0]
		} else {
			prompt := promptui.Prompt{
				Label:    "Profile name",
				Validate: notEmpty,
			}
			var err error
			profileName, err = prompt.Run()
			if err != nil {
				log.Fatalf("Prompt failed: %v", err)
			}
		}

		if _, exists := cfg.Profiles[profileName]; exists {
			log.Fatalf("Profile '%s' already exists", profileName)
		}

		profile, err := promptProfile(config.Profile{})
		if err != nil {
			log.Fatalf("Prompt failed: %v", err)
		}

		if cfg.Profiles == nil {
			cfg.Profiles = make(map[string]config.Profile)
		}
		cfg.Profiles[profileName] = profile

		if err := cfg.Save(); err != nil {
			log.Fatalf("Failed to save config: %v", err)
		}

		fmt.Printf("Profile '%s' added successfully!\n", profileName)
	},
}

var editProfileCmd = &cobra.Command{
	Use:   "edit [profile-name]",
	Short: "Edit an existing profile",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		profileName := pickProfile(cfg, args, "Select profile to edit", "")

		profile, exists := cfg.Profiles[profileName]
		if !exists {
			log.Fatalf("Profile '%s' does not exist", profileName)
		}

		profile, err := promptProfile(profile)
		if err != nil {
			log.Fatalf("Prompt failed: %v", err)
		}
		cfg.Profiles[profileName] = profile

		if err := cfg.Save(); err != nil {
			log.Fatalf("Failed to save config: %v", err)
		}

		fmt.Printf("Profile '%s' updated successfully!\n", profileName)
	},
}

var deleteProfileCmd = &cobra.Command{
	Use:   "delete [profile-name]",
	Short: "Delete a profile",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		profileName := pickProfile(cfg, args, "Select profile to delete", "")

		if _, exists := cfg.Profiles[profileName]; !exists {
			log.Fatalf("Profile '%s' does not exist", profileName)
		}

		confirmPrompt := promptui.Prompt{
			Label:     fmt.Sprintf("Delete profile '%s'? (y/N)", profileName),
			IsConfirm: true,
		}
		if _, err := confirmPrompt.Run(); err != nil {
			fmt.Println("Deletion cancelled")
			return
		}

		delete(cfg.Profiles, profileName)
		if len(cfg.Profiles) == 0 {
			// Keep at least one profile around so the app can start.
			cfg.Profiles["default"] = config.Profile{Provider: config.ProviderOpenAI, Model: config.DefaultModel}
		}
		if cfg.ActiveProfile == profileName {
			cfg.ActiveProfile = profileNames(cfg, "")[0]
		}

		if err := cfg.Save(); err != nil {
			log.Fatalf("Failed to save config: %v", err)
		}

		fmt.Printf("Profile '%s' deleted successfully!\n", profileName)
	},
}

var switchProfileCmd = &cobra.Command{
	Use:   "switch [profile-name]",
	Short: "Switch to a different profile",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		if len(args) == 0 && len(profileNames(cfg, cfg.ActiveProfile)) == 0 {
			fmt.Println("No other profiles available to switch to")
			return
		}
		profileName := pickProfile(cfg, args, "Select profile to switch to", cfg.ActiveProfile)

		if err := cfg.UseProfile(profileName); err != nil {
			log.Fatalf("%v", err)
		}

		if err := cfg.Save(); err != nil {
			log.Fatalf("Failed to save config: %v", err)
		}

		fmt.Printf("Switched to profile '%s'\n", profileName)
	},
}

func mustLoadConfig() *config.Config {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

// profileNames returns the sorted profile names, leaving out skip.
func profileNames(cfg *config.Config, skip string) []string {
	names := make([]string, 0, len(cfg.Profiles))
	for name := range cfg.Profiles {
		if name != skip {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// pickProfile takes the name from args or lets the user select one.
func pickProfile(cfg *config.Config, args []string, label, skip string) string {
	if len(args) > 0 {
		return args[0]
	}
	names := profileNames(cfg, skip)
	if len(names) == 0 {
		log.Fatalf("No profiles available")
	}
	prompt := promptui.Select{
		Label: label,
		Items: names,
	}
	_, name, err := prompt.Run()
	if err != nil {
		log.Fatalf("Selection failed: %v", err)
	}
	return name
}

func printProfile(indent string, p config.Profile) {
	full := p.WithDefaults()
	fmt.Printf("%sProvider: %s\n", indent, full.Provider)
	fmt.Printf("%sModel: %s\n", indent, full.Model)
	if p.BaseURL != "" {
		fmt.Printf("%sBase URL: %s\n", indent, p.BaseURL)
	}
	hasKey := "Not set"
	if p.APIKey != "" {
		hasKey = "Set (hidden for security)"
	}
	fmt.Printf("%sAPI Key: %s\n", indent, hasKey)
	fmt.Printf("%sMax tokens: %d, temperature: %.2f\n", indent, full.MaxTokens, full.Temperature)
	if p.SystemPrompt != "" {
		fmt.Printf("%sSystem prompt: custom (%d characters)\n", indent, len([]rune(p.SystemPrompt)))
	}
}

func promptProfile(p config.Profile) (config.Profile, error) {
	providers := []string{config.ProviderOpenAI, config.ProviderOpenRouter}
	cursor := 0
	if p.Provider == config.ProviderOpenRouter {
		cursor = 1
	}
	providerPrompt := promptui.Select{
		Label:     "Provider",
		Items:     providers,
		CursorPos: cursor,
	}
	_, provider, err := providerPrompt.Run()
	if err != nil {
		return p, err
	}
	if p.Provider != "" && provider != p.Provider {
		// Model ids are provider specific.
		p.Model = ""
	}
	p.Provider = provider

	defaultModel := config.DefaultModel
	if provider == config.ProviderOpenRouter {
		defaultModel = config.DefaultOpenRouterModel
	}
	if p.Model == "" {
		p.Model = defaultModel
	}

	steps := []struct {
		prompt promptui.Prompt
		set    func(string) error
	}{
		{
			prompt: promptui.Prompt{Label: "API Key", Default: p.APIKey, Mask: '*'},
			set:    func(v string) error { p.APIKey = v; return nil },
		},
		{
			prompt: promptui.Prompt{Label: "Model", Default: p.Model, Validate: notEmpty},
			set:    func(v string) error { p.Model = v; return nil },
		},
		{
			prompt: promptui.Prompt{Label: "Base URL (optional)", Default: p.BaseURL},
			set:    func(v string) error { p.BaseURL = v; return nil },
		},
		{
			prompt: promptui.Prompt{Label: "System prompt (empty for the dog persona)", Default: p.SystemPrompt},
			set:    func(v string) error { p.SystemPrompt = v; return nil },
		},
		{
			prompt: promptui.Prompt{Label: "Max tokens", Default: numberDefault(p.MaxTokens, "500"), Validate: positiveInt},
			set: func(v string) error {
				n, err := strconv.Atoi(v)
				p.MaxTokens = n
				return err
			},
		},
		{
			prompt: promptui.Prompt{Label: "Temperature", Default: floatDefault(p.Temperature, "0.7"), Validate: temperature},
			set: func(v string) error {
				f, err := strconv.ParseFloat(v, 32)
				p.Temperature = float32(f)
				return err
			},
		},
	}
	for _, step := range steps {
		v, err := step.prompt.Run()
		if err != nil {
			return p, err
		}
		if err := step.set(v); err != nil {
			return p, err
		}
	}
	return p, nil
}

func numberDefault(n int, fallback string) string {
	if n <= 0 {
		return fallback
	}
	return strconv.Itoa(n)
}

func floatDefault(f float32, fallback string) string {
	if f <= 0 {
		return fallback
	}
	return strconv.FormatFloat(float64(f), 'f', -1, 32)
}

func notEmpty(s string) error {
	if s == "" {
		return errors.New("value required")
	}
	return nil
}

func positiveInt(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return errors.New("enter a positive whole number")
	}
	return nil
}

func temperature(s string) error {
	f, err := strconv.ParseFloat(s, 32)
	if err != nil || f < 0 || f > 2 {
		return errors.New("enter a number between 0 and 2")
	}
	return nil
}

func init() {
	profileCmd.AddCommand(listProfilesCmd)
	profileCmd.AddCommand(showProfileCmd)
	profileCmd.AddCommand(addProfileCmd)
	profileCmd.AddCommand(editProfileCmd)
	profileCmd.AddCommand(deleteProfileCmd)
	profileCmd.AddCommand(switchProfileCmd)
}
