package source

import (
	"fmt"

	"github.com/markusressel/fancontrol/internal/configuration"
	"github.com/markusressel/fancontrol/internal/sources"
	"github.com/markusressel/fancontrol/internal/ui"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var sourceId string

var Command = &cobra.Command{
	Use:              "source",
	Short:            "Temperature source related commands",
	Long:             ``,
	TraverseChildren: true,
	Args:             cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pterm.DisableOutput()

		source, _, err := getSource(sourceId)
		if err != nil {
			return err
		}

		tempMilliC, err := source.Read()
		if err != nil {
			return err
		}
		fmt.Printf("%d", tempMilliC)
		return nil
	},
}

func init() {
	Command.PersistentFlags().StringVarP(
		&sourceId,
		"id", "i",
		"",
		"Source ID as specified in the config",
	)
	_ = Command.MarkPersistentFlagRequired("id")
}

func getSource(id string) (sources.Source, *configuration.Config, error) {
	configPath := configuration.CurrentDaemonConfig.ConfigPath
	ui.Info("Using board profile at: %s", configPath)

	config, err := configuration.LoadFile(configPath)
	if err != nil {
		return nil, nil, err
	}

	availableSourceIds := []string{}
	for _, sourceConfig := range config.Sources {
		availableSourceIds = append(availableSourceIds, sourceConfig.ID)
		if sourceConfig.ID == id {
			source, err := sources.NewSource(sourceConfig)
			if err != nil {
				return nil, nil, err
			}
			return source, config, nil
		}
	}

	return nil, nil, fmt.Errorf("no source with id found: %s, options: %s", id, availableSourceIds)
}
