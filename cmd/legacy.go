package cmd

import (
	"os"

	"github.com/markusressel/fancontrol/internal"
	"github.com/markusressel/fancontrol/internal/configuration"
	"github.com/markusressel/fancontrol/internal/ui"
	"github.com/spf13/cobra"
)

var legacyConfigPath string

var legacyCmd = &cobra.Command{
	Use:   "legacy",
	Short: "Run in classic fancontrol mode",
	Long: `Drives one or more PWM outputs from a classic /etc/fancontrol
configuration file as written by pwmconfig`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setupUi()

		if len(args) > 0 {
			legacyConfigPath = args[0]
		}
		ui.Info("Using legacy configuration file at: %s", legacyConfigPath)

		os.Exit(internal.RunLegacyDaemon(legacyConfigPath))
	},
}

func init() {
	legacyCmd.Flags().StringVarP(&legacyConfigPath, "file", "f", configuration.LegacyConfigPath, "legacy configuration file")
	rootCmd.AddCommand(legacyCmd)
}
