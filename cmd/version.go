package cmd

import (
	"github.com/markusressel/fancontrol/internal/ui"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of fancontrol",
	Long:  `All software has versions. This is fancontrol's`,
	Run: func(cmd *cobra.Command, args []string) {
		ui.Printfln("1.0.0")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
