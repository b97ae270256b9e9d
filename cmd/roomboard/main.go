// Command roomboard edits room/card board documents in the terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/abelbrown/roomboard/internal/cli"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "roomboard",
		Short:   "roomboard - terminal board editor with cross-room drag coordination",
		Version: version,
		Long: `roomboard edits a YAML document of rooms holding cards.

Dragging a card between rooms is reported by each room separately; the
coordinator pairs the two halves within a short window so the document sees
one move instead of a delete and an insert.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&cli.ConfigFile, "config", "", "Config file (default ~/.roomboard/config.json)")

	rootCmd.AddCommand(cli.EditCmd())
	rootCmd.AddCommand(cli.JournalCmd())
	rootCmd.AddCommand(cli.EventsCmd())
	rootCmd.AddCommand(cli.SimulateCmd())
	rootCmd.AddCommand(cli.ConfigCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
