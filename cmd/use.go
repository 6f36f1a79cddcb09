package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/Rorical/RoriBuddy/internal/config"
)

var useCmd = &cobra.Command{
	Use:   "use [profile-name]",
	Short: "Switch to a profile and start RoriBuddy",
	Long:  `Switch to the specified profile and immediately start the desktop companion.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		if err := cfg.UseProfile(args[0]); err != nil {
			log.Fatalf("%v", err)
		}

		// Save config with new active profile
		if err := cfg.Save(); err != nil {
			log.Fatalf("Failed to save config: %v", err)
		}

		runApp(cmd, cfg)
	},
}

func init() {
	rootCmd.AddCommand(useCmd)
}
