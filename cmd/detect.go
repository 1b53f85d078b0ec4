package cmd

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/markusressel/fancontrol/cmd/global"
	"github.com/markusressel/fancontrol/internal/configuration"
	"github.com/markusressel/fancontrol/internal/hwmon"
	"github.com/markusressel/fancontrol/internal/persistence"
	"github.com/markusressel/fancontrol/internal/ui"
	"github.com/mgutz/ansi"
	"github.com/spf13/cobra"
	"github.com/tomlazar/table"
)

var detectSave bool

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect devices",
	Long:  `Detects all PWM outputs, temperature inputs and thermal zones and prints them as a list`,
	RunE: func(cmd *cobra.Command, args []string) error {
		controllers := hwmon.GetControllers(hwmon.DefaultHwmonPath)
		zones := hwmon.GetThermalZones(hwmon.DefaultThermalPath)

		// === Print detected devices ===
		tableConfig := &table.Config{
			ShowIndex:       false,
			Color:           !global.NoColor,
			AlternateColors: true,
			TitleColorCode:  ansi.ColorCode("white+buf"),
			AltColorCodes: []string{
				ansi.ColorCode("white"),
				ansi.ColorCode("white:236"),
			},
		}

		for _, controller := range controllers {
			ui.Printfln("> %s (%s)", controller.Name, controller.Path)

			var pwmRows [][]string
			for _, pwm := range controller.Pwms {
				enableText := "N/A"
				if len(pwm.EnablePath) > 0 {
					enableText = pwm.EnablePath
				}
				pwmRows = append(pwmRows, []string{
					"", pwm.Name, strconv.Itoa(pwm.Value), enableText,
				})
			}
			pwmTable := table.Table{
				Headers: []string{"PWMs   ", "Name", "Value", "Enable"},
				Rows:    pwmRows,
			}

			var tempRows [][]string
			for _, temp := range controller.Temps {
				label := temp.Label
				if len(label) <= 0 {
					label = temp.Name
				}
				tempRows = append(tempRows, []string{
					"", temp.Name, label, fmt.Sprintf("%.1f°C", float64(temp.TempMilliC)/1000.0),
				})
			}
			tempTable := table.Table{
				Headers: []string{"Temps  ", "Name", "Label", "Value"},
				Rows:    tempRows,
			}

			printTables(tableConfig, pwmTable, tempTable)
		}

		if len(zones) > 0 {
			ui.Printfln("> thermal zones")

			var zoneRows [][]string
			for _, zone := range zones {
				modeText := "N/A"
				if len(zone.ModePath) > 0 {
					modeText = zone.ModePath
				}
				zoneRows = append(zoneRows, []string{
					"", zone.Name, zone.Type, fmt.Sprintf("%.1f°C", float64(zone.TempMilliC)/1000.0), modeText,
				})
			}
			zoneTable := table.Table{
				Headers: []string{"Zones  ", "Name", "Type", "Value", "Mode"},
				Rows:    zoneRows,
			}
			printTables(tableConfig, zoneTable)
		}

		if detectSave {
			p := persistence.NewPersistence(configuration.CurrentDaemonConfig.DbPath)
			if err := p.Init(); err != nil {
				return err
			}
			if err := p.SaveDetectedControllers(controllers); err != nil {
				return err
			}
			if err := p.SaveDetectedThermalZones(zones); err != nil {
				return err
			}
			ui.Success("Saved detected hardware to: %s", configuration.CurrentDaemonConfig.DbPath)
		}

		return nil
	},
}

func printTables(config *table.Config, tables ...table.Table) {
	for idx, tab := range tables {
		if tab.Rows == nil {
			continue
		}
		var buf bytes.Buffer
		tableErr := tab.WriteTable(&buf, config)
		if tableErr != nil {
			ui.Fatal("Error printing table: %v", tableErr)
		}
		tableString := buf.String()
		if idx < (len(tables) - 1) {
			ui.Printf(tableString)
		} else {
			ui.Printfln(tableString)
		}
	}
}

func init() {
	detectCmd.Flags().BoolVarP(&detectSave, "save", "s", false, "Save the detected hardware for the configuration wizard")
	rootCmd.AddCommand(detectCmd)
}
