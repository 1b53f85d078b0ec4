package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/markusressel/fancontrol/internal/board"
	"github.com/markusressel/fancontrol/internal/configuration"
	"github.com/markusressel/fancontrol/internal/ui"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the runtime status of the running daemon",
	Long:  `Reads the runtime status document published by the control loop`,
	RunE: func(cmd *cobra.Command, args []string) error {
		statusPath := configuration.CurrentDaemonConfig.StatusPath

		data, err := os.ReadFile(statusPath)
		if err != nil {
			return fmt.Errorf("no runtime status at %s, is fancontrol running?", statusPath)
		}

		var status board.RuntimeStatus
		if err := json.Unmarshal(data, &status); err != nil {
			return fmt.Errorf("cannot parse runtime status at %s: %w", statusPath, err)
		}

		pretty, err := json.MarshalIndent(status, "", "  ")
		if err != nil {
			return err
		}
		ui.Printfln("%s", string(pretty))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
