package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Rorical/RoriBuddy/internal/config"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show and change app settings",
	Long:  `Read and write the settings shared by every profile, addressed by key.`,
}

var listSettingsCmd = &cobra.Command{
	Use:   "list",
	Short: "List every setting with its value",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, key := range cfg.Settings.Keys() {
			value, err := cfg.Settings.Get(key)
			if err != nil {
				log.Fatalf("Failed to read %s: %v", key, err)
			}
			fmt.Fprintf(w, "%s\t%s\n", key, value)
		}
		w.Flush()
	},
}

var getSettingCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		value, err := cfg.Settings.Get(args[0])
		if err != nil {
			log.Fatalf("%v", err)
		}
		fmt.Println(value)
	},
}

var setSettingCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change one setting",
	Long: `Change one setting. Values are JSON; bare words are taken as strings.

Examples:
  roribuddy settings set roaming_speed 3.5
  roribuddy settings set renderer 2d
  roribuddy settings set window_bounds '{"x":0,"y":0,"width":320,"height":420}'`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		if err := cfg.Settings.Set(args[0], args[1]); err != nil {
			log.Fatalf("%v", err)
		}
		if err := cfg.Save(); err != nil {
			log.Fatalf("Failed to save config: %v", err)
		}

		value, _ := cfg.Settings.Get(args[0])
		fmt.Printf("%s = %s\n", args[0], value)
	},
}

var schemaSettingsCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the config file",
	Run: func(cmd *cobra.Command, args []string) {
		data, err := json.MarshalIndent(config.Schema(), "", "  ")
		if err != nil {
			log.Fatalf("Failed to encode schema: %v", err)
		}
		fmt.Println(string(data))
	},
}

func init() {
	settingsCmd.AddCommand(listSettingsCmd)
	settingsCmd.AddCommand(getSettingCmd)
	settingsCmd.AddCommand(setSettingCmd)
	settingsCmd.AddCommand(schemaSettingsCmd)
}
