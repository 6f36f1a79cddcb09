package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/Rorical/RoriBuddy/internal/history"
)

var (
	exportFormat string
	exportOutput string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse and export saved conversations",
}

var listHistoryCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved conversations, newest first",
	Run: func(cmd *cobra.Command, args []string) {
		store := mustOpenHistory()
		defer store.Close()

		sessions, err := store.Sessions()
		if err != nil {
			log.Fatalf("Failed to list sessions: %v", err)
		}
		if len(sessions) == 0 {
			fmt.Println("No saved conversations yet")
			return
		}
		for _, s := range sessions {
			fmt.Printf("%s  %-14s %3d messages  %s/%s\n",
				s.ID[:8], humanize.Time(s.StartedAt), s.MessageCount, s.Provider, s.Model)
		}
	},
}

var exportHistoryCmd = &cobra.Command{
	Use:   "export [session-id]",
	Short: "Export a conversation",
	Long: `Export a conversation as json, txt or yaml. The session id may be a
unique prefix; without one the newest conversation is exported.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store := mustOpenHistory()
		defer store.Close()

		var id string
		if len(args) > 0 {
			id = args[0]
		}

		var w io.Writer = os.Stdout
		if exportOutput != "" {
			f, err := os.Create(exportOutput)
			if err != nil {
				log.Fatalf("Failed to create %s: %v", exportOutput, err)
			}
			defer f.Close()
			w = f
		}

		if err := store.Export(w, id, exportFormat); err != nil {
			log.Fatalf("Export failed: %v", err)
		}
		if exportOutput != "" {
			fmt.Printf("Exported to %s\n", exportOutput)
		}
	},
}

var clearHistoryCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every saved conversation",
	Run: func(cmd *cobra.Command, args []string) {
		confirmPrompt := promptui.Prompt{
			Label:     "Delete all saved conversations? (y/N)",
			IsConfirm: true,
		}
		if _, err := confirmPrompt.Run(); err != nil {
			fmt.Println("Nothing deleted")
			return
		}

		store := mustOpenHistory()
		defer store.Close()
		if err := store.Clear(); err != nil {
			log.Fatalf("Failed to clear history: %v", err)
		}
		fmt.Println("History cleared")
	},
}

func mustOpenHistory() *history.Store {
	cfg := mustLoadConfig()
	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		log.Fatalf("Failed to open history: %v", err)
	}
	return store
}

func init() {
	exportHistoryCmd.Flags().StringVarP(&exportFormat, "format", "f", "json",
		"export format: "+strings.Join(history.Formats, ", "))
	exportHistoryCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write to a file instead of stdout")

	historyCmd.AddCommand(listHistoryCmd)
	historyCmd.AddCommand(exportHistoryCmd)
	historyCmd.AddCommand(clearHistoryCmd)
}
