package config

import (
	"io"
	"os"

	"github.com/markusressel/fancontrol/internal/configuration"
	"github.com/markusressel/fancontrol/internal/ui"
	"github.com/spf13/cobra"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a board profile from JSON",
	Long: `Reads a complete board profile as JSON from stdin, validates it and
atomically replaces the configuration file. The previous file is kept
untouched when the payload is rejected.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return err
		}

		configPath := configuration.CurrentDaemonConfig.ConfigPath
		applied, err := configuration.ApplyJSON(configPath, data)
		if err != nil {
			ui.Error("Apply failed: %v", err)
			os.Exit(1)
		}

		ui.Success("Wrote board profile with %d source(s) to: %s", len(applied.Sources), configPath)
		return nil
	},
}

func init() {
	Command.AddCommand(applyCmd)
}
