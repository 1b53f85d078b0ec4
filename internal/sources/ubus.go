package sources

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/markusressel/fancontrol/internal/configuration"
	"github.com/markusressel/fancontrol/internal/util"
)

const (
	ubusExecutable = "ubus"

	ubusMinTimeout = 1 * time.Second
	ubusMaxTimeout = 10 * time.Second
)

type UbusSource struct {
	Config configuration.SourceConfig `json:"configuration"`

	// CallFn replaces the ubus invocation in tests.
	CallFn func(timeout time.Duration, object string, method string, args string) (string, error)
}

func (source UbusSource) GetId() string {
	return source.Config.ID
}

func (source UbusSource) GetConfig() configuration.SourceConfig {
	return source.Config
}

func (source UbusSource) Read() (int, error) {
	timeout := source.callTimeout()

	call := source.CallFn
	if call == nil {
		call = ubusCall
	}

	output, err := call(timeout, source.Config.Object, source.Config.Method, source.Config.ArgsJSON)
	if err != nil {
		return 0, fmt.Errorf("source %s: %s", source.GetId(), err.Error())
	}

	var response map[string]interface{}
	if err = json.Unmarshal([]byte(output), &response); err != nil {
		return 0, fmt.Errorf("source %s: invalid ubus response: %s", source.GetId(), err.Error())
	}

	value, ok := response[source.Config.Key]
	if !ok {
		return 0, fmt.Errorf("source %s: key %s missing in ubus response", source.GetId(), source.Config.Key)
	}

	temp, err := toMilliCelsius(value)
	if err != nil {
		return 0, fmt.Errorf("source %s: %s", source.GetId(), err.Error())
	}
	return temp, nil
}

// callTimeout bounds a single ubus invocation by the polling interval so a
// wedged rpcd cannot pile up subprocesses, clamped to a sane window.
func (source UbusSource) callTimeout() time.Duration {
	timeout := time.Duration(source.Config.PollSec) * time.Second
	if timeout < ubusMinTimeout {
		timeout = ubusMinTimeout
	}
	if timeout > ubusMaxTimeout {
		timeout = ubusMaxTimeout
	}
	return timeout
}

func ubusCall(timeout time.Duration, object string, method string, args string) (string, error) {
	return util.ExecuteWithTimeout(timeout, ubusExecutable, "call", object, method, args)
}

// toMilliCelsius converts a ubus payload value to milli-Celsius. Numbers are
// taken as milli-Celsius already. Strings cover the formats seen in the wild:
// "45.2°C" and bare decimals are degrees, a "mC" suffix and bare integers are
// milli-Celsius.
func toMilliCelsius(value interface{}) (int, error) {
	switch v := value.(type) {
	case float64:
		return int(math.Round(v)), nil
	case string:
		text := strings.TrimSpace(v)

		if strings.HasSuffix(text, "mC") {
			number, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(text, "mC")), 64)
			if err != nil {
				return 0, fmt.Errorf("unparseable temperature value: %s", v)
			}
			return int(math.Round(number)), nil
		}

		degrees := false
		for _, suffix := range []string{"°C", "°", "C"} {
			if strings.HasSuffix(text, suffix) {
				text = strings.TrimSpace(strings.TrimSuffix(text, suffix))
				degrees = true
				break
			}
		}

		number, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return 0, fmt.Errorf("unparseable temperature value: %s", v)
		}

		if degrees || strings.ContainsRune(text, '.') {
			return int(math.Round(number * 1000)), nil
		}
		return int(math.Round(number)), nil
	}

	return 0, fmt.Errorf("unsupported temperature value type: %T", value)
}
