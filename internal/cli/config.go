package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/abelbrown/roomboard/internal/config"
)

// ConfigCmd returns the config command
func ConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Show the configuration after defaults, the config file and
ROOMBOARD_* environment variables have been applied.

Examples:
  roomboard config
  ROOMBOARD_COORDINATION_WINDOW=300ms roomboard config
  roomboard config init          # write a default config file`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			printConfig(cmd.OutOrStdout(), cfg)
			return nil
		},
	}
	cmd.AddCommand(configInitCmd())
	return cmd
}

func configInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ConfigFile
			if path == "" {
				path = config.ConfigPath()
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.DefaultConfig().SaveTo(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.New(color.FgGreen).Sprint("✓ wrote"), path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}

func printConfig(w io.Writer, cfg *config.Config) {
	key := color.New(color.FgCyan).SprintFunc()
	fmt.Fprintf(w, "%s %s\n", key("coordination.window:"), cfg.Coordination.Window)
	fmt.Fprintf(w, "%s %s\n", key("coordination.policy:"), cfg.MovePolicy())
	fmt.Fprintf(w, "%s %s\n", key("document.path:      "), cfg.Document.Path)
	fmt.Fprintf(w, "%s %s\n", key("journal.path:       "), cfg.Journal.Path)
	fmt.Fprintf(w, "%s %s\n", key("events.path:        "), cfg.Events.Path)
	fmt.Fprintf(w, "%s %s\n", key("ui.theme:           "), cfg.UI.Theme)
}
