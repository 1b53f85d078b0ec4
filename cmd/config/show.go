package config

import (
	"github.com/markusressel/fancontrol/internal/configuration"
	"github.com/markusressel/fancontrol/internal/ui"
	"github.com/qdm12/reprint"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:     "show",
	Aliases: []string{"json", "effective"},
	Short:   "Print the current board profile as JSON",
	Long: `Prints the parsed board profile, with all defaults resolved, in the
JSON shape accepted by 'config apply'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		current, err := configuration.LoadFile(configuration.CurrentDaemonConfig.ConfigPath)
		if err != nil {
			return err
		}

		copied := reprint.This(*current).(configuration.Config)
		data, err := configuration.ToJSON(&copied)
		if err != nil {
			return err
		}

		ui.Printfln("%s", string(data))
		return nil
	},
}

func init() {
	Command.AddCommand(showCmd)
}
