package config

import (
	"github.com/markusressel/fancontrol/internal/configuration"
	"github.com/markusressel/fancontrol/internal/hwmon"
	"github.com/markusressel/fancontrol/internal/persistence"
	"github.com/markusressel/fancontrol/internal/ui"
	"github.com/spf13/cobra"
)

var defaultCmd = &cobra.Command{
	Use:   "default",
	Short: "Print the built-in default board profile",
	Long: `Prints the built-in board profile in the text format of the configuration
file. When hardware was saved with 'detect --save', the register paths are
pre-filled from the detected channels.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults := configuration.Default()
		prefillFromDetected(&defaults)

		if err := configuration.Validate(&defaults); err != nil {
			return err
		}

		ui.Printf("%s", configuration.Render(&defaults))
		return nil
	},
}

// prefillFromDetected replaces the built-in register paths with the first
// detected PWM channel and thermal zone, when a detection run was saved.
func prefillFromDetected(config *configuration.Config) {
	p := persistence.NewPersistence(configuration.CurrentDaemonConfig.DbPath)

	if controllers, err := p.LoadDetectedControllers(); err == nil {
		for _, controller := range controllers {
			if len(controller.Pwms) <= 0 {
				continue
			}
			pwm := controller.Pwms[0]
			config.PwmPath = pwm.Path
			config.PwmEnablePath = pwm.EnablePath
			ui.Debug("Pre-filled PWM path from detected %s", controller.Name)
			break
		}
	}

	if zones, err := p.LoadDetectedThermalZones(); err == nil {
		var zone hwmon.ThermalZone
		for _, candidate := range zones {
			if len(candidate.ModePath) > 0 {
				zone = candidate
				break
			}
		}
		if len(zone.ModePath) > 0 {
			config.ControlModePath = zone.ModePath
			for idx := range config.Sources {
				if config.Sources[idx].Type == configuration.SourceTypeSysfs && config.Sources[idx].ID == "soc" {
					config.Sources[idx].Path = zone.InputPath
				}
			}
			ui.Debug("Pre-filled control mode path from detected %s", zone.Name)
		}
	}
}

func init() {
	Command.AddCommand(defaultCmd)
}
