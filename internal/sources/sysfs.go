package sources

import (
	"fmt"

	"github.com/markusressel/fancontrol/internal/configuration"
	"github.com/markusressel/fancontrol/internal/util"
)

type SysfsSource struct {
	Config configuration.SourceConfig `json:"configuration"`
}

func (source SysfsSource) GetId() string {
	return source.Config.ID
}

func (source SysfsSource) GetConfig() configuration.SourceConfig {
	return source.Config
}

// Read returns the temperature in milli-Celsius. Thermal zone and hwmon
// temp*_input files already report milli-Celsius, no scaling is applied.
func (source SysfsSource) Read() (int, error) {
	value, err := util.ReadIntFromFile(source.Config.Path)
	if err != nil {
		return 0, fmt.Errorf("source %s: %s", source.GetId(), err.Error())
	}
	return value, nil
}
