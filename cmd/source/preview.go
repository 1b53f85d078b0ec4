package source

import (
	"fmt"

	"github.com/guptarohit/asciigraph"
	"github.com/markusressel/fancontrol/internal/configuration"
	"github.com/markusressel/fancontrol/internal/policy"
	"github.com/markusressel/fancontrol/internal/ui"
	"github.com/spf13/cobra"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Print the demand curve of a source to console",
	Long: `Plots the PWM demand of one source over its temperature range, with
the hysteresis state engaged so the full ramp is visible`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, config, err := getSource(sourceId)
		if err != nil {
			return err
		}

		var sourceConfig configuration.SourceConfig
		for _, candidate := range config.Sources {
			if candidate.ID == sourceId {
				sourceConfig = candidate
				break
			}
		}

		start := sourceConfig.TStartMilliC - 5000
		stop := sourceConfig.TCritMilliC + 5000
		step := (stop - start) / 100
		if step < 1 {
			step = 1
		}

		// walking upwards from a cold start exercises the real activation
		// threshold, the plotted curve includes the hysteresis band
		active := false
		var values []float64
		for temp := start; temp <= stop; temp += step {
			demand, _ := policy.DemandFromSource(config, sourceConfig, temp, &active)
			values = append(values, float64(demand))
		}

		caption := fmt.Sprintf("PWM / temperature (%.0f°C .. %.0f°C)", float64(start)/1000.0, float64(stop)/1000.0)
		graph := asciigraph.Plot(values, asciigraph.Height(15), asciigraph.Width(100), asciigraph.Caption(caption))
		ui.Printfln(graph)

		return nil
	},
}

func init() {
	Command.AddCommand(previewCmd)
}
