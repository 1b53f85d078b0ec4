package source

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/markusressel/fancontrol/cmd/global"
	"github.com/markusressel/fancontrol/internal/configuration"
	"github.com/markusressel/fancontrol/internal/sources"
	"github.com/markusressel/fancontrol/internal/ui"
	"github.com/mgutz/ansi"
	"github.com/spf13/cobra"
	"github.com/tomlazar/table"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the configured temperature sources to console",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := configuration.CurrentDaemonConfig.ConfigPath
		ui.Info("Using board profile at: %s", configPath)

		config, err := configuration.LoadFile(configPath)
		if err != nil {
			return err
		}

		var rows [][]string
		for _, sourceConfig := range config.Sources {
			resource := sourceConfig.Path
			if sourceConfig.Type == configuration.SourceTypeUbus {
				resource = fmt.Sprintf("%s.%s[%s]", sourceConfig.Object, sourceConfig.Method, sourceConfig.Key)
			}

			tempText := "N/A"
			if source, err := sources.NewSource(sourceConfig); err == nil {
				if tempMilliC, err := source.Read(); err == nil {
					tempText = fmt.Sprintf("%.1f°C", float64(tempMilliC)/1000.0)
				}
			}

			rows = append(rows, []string{
				sourceConfig.ID,
				string(sourceConfig.Type),
				resource,
				tempText,
				fmt.Sprintf("%.1f°C", float64(sourceConfig.TStartMilliC)/1000.0),
				fmt.Sprintf("%.1f°C", float64(sourceConfig.TFullMilliC)/1000.0),
				fmt.Sprintf("%.1f°C", float64(sourceConfig.TCritMilliC)/1000.0),
				strconv.Itoa(sourceConfig.Weight),
			})
		}

		tab := table.Table{
			Headers: []string{"ID", "Type", "Resource", "Temp", "Start", "Full", "Crit", "Weight"},
			Rows:    rows,
		}
		var buf bytes.Buffer
		tableErr := tab.WriteTable(&buf, &table.Config{
			ShowIndex:       false,
			Color:           !global.NoColor,
			AlternateColors: true,
			TitleColorCode:  ansi.ColorCode("white+buf"),
			AltColorCodes: []string{
				ansi.ColorCode("white"),
				ansi.ColorCode("white:236"),
			},
		})
		if tableErr != nil {
			panic(tableErr)
		}
		ui.Printfln(buf.String())

		return nil
	},
}

func init() {
	Command.AddCommand(listCmd)
}
