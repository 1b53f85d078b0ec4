package config

import (
	"encoding/json"

	"github.com/markusressel/fancontrol/internal/configuration"
	"github.com/markusressel/fancontrol/internal/ui"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the configuration schema",
	Long: `Prints field names, types, ranges and source templates as consumed by
the external configuration UI`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := configuration.Schema()
		if err != nil {
			return err
		}

		data, err := json.MarshalIndent(schema, "", "  ")
		if err != nil {
			return err
		}

		ui.Printfln("%s", string(data))
		return nil
	},
}

func init() {
	Command.AddCommand(schemaCmd)
}
