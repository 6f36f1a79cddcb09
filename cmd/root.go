package cmd

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Rorical/RoriBuddy/internal/app"
	"github.com/Rorical/RoriBuddy/internal/config"
)

var (
	flagRenderer string
	flagRoam     bool
	flagSpeed    float64
	flagDebug    bool
)

var rootCmd = &cobra.Command{
	Use:   "roribuddy",
	Short: "A desktop dog that roams your screen and chats",
	Long: `RoriBuddy is a small desktop companion. The dog wanders around the
screen, reacts when you pet it and answers through an OpenAI-compatible
chat-completion API.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		runApp(cmd, cfg)
	},
}

// runApp applies the command-line overrides in memory and runs the
// application until the user quits.
func runApp(cmd *cobra.Command, cfg *config.Config) {
	if err := applyFlags(cmd, &cfg.Settings); err != nil {
		log.Fatalf("Invalid flags: %v", err)
	}

	closeLog, err := setupLogging(cfg.LogPath(), flagDebug)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer closeLog()

	slog.Info("starting", "profile", cfg.ActiveProfile, "renderer", cfg.Settings.Renderer, "roaming", cfg.Settings.RoamingEnabled)

	application, err := app.NewApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}
	defer application.Stop()

	if err := application.Start(); err != nil {
		slog.Error("application error", "err", err)
		fmt.Fprintf(os.Stderr, "Application error: %v\n", err)
	}
}

func applyFlags(cmd *cobra.Command, s *config.Settings) error {
	flags := cmd.Flags()
	if flags.Changed("renderer") {
		s.Renderer = flagRenderer
	}
	if flags.Changed("roam") {
		s.RoamingEnabled = flagRoam
	}
	if flags.Changed("speed") {
		s.RoamingSpeed = flagSpeed
	}
	return s.Validate()
}

// setupLogging sends slog output to path while the terminal UI owns stdout.
func setupLogging(path string, debug bool) (func(), error) {
	f, err := tea.LogToFile(path, "roribuddy")
	if err != nil {
		return nil, err
	}
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})))
	return func() { f.Close() }, nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution error: %v", err)
		os.Exit(1)
	}
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, useCmd} {
		c.Flags().StringVar(&flagRenderer, "renderer", config.RendererAuto, "character renderer: auto, 3d or 2d")
		c.Flags().BoolVar(&flagRoam, "roam", false, "start roaming right away")
		c.Flags().Float64Var(&flagSpeed, "speed", 2, "roaming speed in pixels per tick")
		c.Flags().BoolVar(&flagDebug, "debug", false, "log at debug level")
	}

	// Add subcommands
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(historyCmd)
}
