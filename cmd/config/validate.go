package config

import (
	"os"

	"github.com/markusressel/fancontrol/internal/configuration"
	"github.com/markusressel/fancontrol/internal/ui"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Validates a board profile",
	Long: `Validates the given board profile, or the configured one when no path
is given, so a candidate file can be checked before installing it`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := configuration.CurrentDaemonConfig.ConfigPath
		if len(args) > 0 {
			configPath = args[0]
		}
		ui.Info("Using board profile at: %s", configPath)

		if _, err := configuration.LoadFile(configPath); err != nil {
			ui.Error("Validation failed: %v", err)
			os.Exit(1)
		}

		ui.Success("Config looks good! :)")
		return nil
	},
}

func init() {
	Command.AddCommand(validateCmd)
}
