package legacy

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	PwmMax = 255

	hwmonBaseDir = "/sys/class/hwmon"
)

// Channel couples one PWM output to the temperature input that drives it, in
// the classic lm-sensors fancontrol configuration model.
type Channel struct {
	PwmKey string

	PwmPath  string
	TempPath string
	FanPaths []string

	MinTempC    int
	MaxTempC    int
	MinStartPwm int
	MinStopPwm  int
	MinPwm      int
	MaxPwm      int
	Average     int
}

type Config struct {
	IntervalSec int
	Channels    []Channel
}

// LoadConfig parses a classic fancontrol configuration file as written by
// pwmconfig. Both absolute device paths and hwmon-relative paths are
// accepted, relative paths are resolved against the hwmon class directory.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open config file: %s: %w", path, err)
	}
	return parseConfig(string(data))
}

func parseConfig(text string) (*Config, error) {
	settings := map[string]string{}
	for _, rawLine := range strings.Split(text, "\n") {
		line := rawLine
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if len(line) <= 0 {
			continue
		}
		eq := strings.IndexByte(line, '=')
		if eq <= 0 {
			continue
		}
		settings[strings.TrimSpace(line[:eq])] = strings.TrimSpace(line[eq+1:])
	}

	for _, key := range []string{"INTERVAL", "FCTEMPS", "MINTEMP", "MAXTEMP", "MINSTART", "MINSTOP"} {
		if len(settings[key]) <= 0 {
			return nil, fmt.Errorf("missing mandatory setting: %s", key)
		}
	}

	config := &Config{}
	interval, err := strconv.Atoi(settings["INTERVAL"])
	if err != nil {
		return nil, fmt.Errorf("invalid INTERVAL value")
	}
	if interval < 1 {
		return nil, fmt.Errorf("INTERVAL must be at least 1")
	}
	config.IntervalSec = interval

	fctemps, err := parsePairList(settings["FCTEMPS"], "FCTEMPS")
	if err != nil {
		return nil, err
	}
	mintemp, err := parseIntPairs(settings["MINTEMP"], "MINTEMP")
	if err != nil {
		return nil, err
	}
	maxtemp, err := parseIntPairs(settings["MAXTEMP"], "MAXTEMP")
	if err != nil {
		return nil, err
	}
	minstart, err := parseIntPairs(settings["MINSTART"], "MINSTART")
	if err != nil {
		return nil, err
	}
	minstop, err := parseIntPairs(settings["MINSTOP"], "MINSTOP")
	if err != nil {
		return nil, err
	}
	minpwm, err := parseIntPairs(settings["MINPWM"], "MINPWM")
	if err != nil {
		return nil, err
	}
	maxpwm, err := parseIntPairs(settings["MAXPWM"], "MAXPWM")
	if err != nil {
		return nil, err
	}
	average, err := parseIntPairs(settings["AVERAGE"], "AVERAGE")
	if err != nil {
		return nil, err
	}
	fcfans, err := parsePairs(settings["FCFANS"], "FCFANS")
	if err != nil {
		return nil, err
	}

	for _, pair := range fctemps {
		pwmKey := pair.key
		channel := Channel{
			PwmKey:   pwmKey,
			PwmPath:  resolveDevicePath(pwmKey),
			TempPath: resolveDevicePath(pair.value),
			MinPwm:   0,
			MaxPwm:   PwmMax,
			Average:  1,
		}

		var ok bool
		if channel.MinTempC, ok = mintemp[pwmKey]; !ok {
			return nil, fmt.Errorf("incomplete settings for %s", pwmKey)
		}
		if channel.MaxTempC, ok = maxtemp[pwmKey]; !ok {
			return nil, fmt.Errorf("incomplete settings for %s", pwmKey)
		}
		if channel.MinStartPwm, ok = minstart[pwmKey]; !ok {
			return nil, fmt.Errorf("incomplete settings for %s", pwmKey)
		}
		if channel.MinStopPwm, ok = minstop[pwmKey]; !ok {
			return nil, fmt.Errorf("incomplete settings for %s", pwmKey)
		}
		if value, ok := minpwm[pwmKey]; ok {
			channel.MinPwm = value
		}
		if value, ok := maxpwm[pwmKey]; ok {
			channel.MaxPwm = value
		}
		if value, ok := average[pwmKey]; ok {
			channel.Average = value
		}

		if channel.MinTempC >= channel.MaxTempC {
			return nil, fmt.Errorf("MINTEMP must be less than MAXTEMP for %s", pwmKey)
		}
		if channel.MaxPwm < 0 || channel.MaxPwm > PwmMax {
			return nil, fmt.Errorf("MAXPWM must be between 0 and 255 for %s", pwmKey)
		}
		if channel.MinStopPwm >= channel.MaxPwm {
			return nil, fmt.Errorf("MINSTOP must be less than MAXPWM for %s", pwmKey)
		}
		if channel.MinStopPwm < channel.MinPwm {
			return nil, fmt.Errorf("MINSTOP must be >= MINPWM for %s", pwmKey)
		}
		if channel.MinPwm < 0 {
			return nil, fmt.Errorf("MINPWM must be >= 0 for %s", pwmKey)
		}
		if channel.Average < 1 {
			return nil, fmt.Errorf("AVERAGE must be >= 1 for %s", pwmKey)
		}

		if fans, ok := fcfans[pwmKey]; ok {
			for _, fan := range strings.Split(fans, "+") {
				fan = strings.TrimSpace(fan)
				if len(fan) > 0 {
					channel.FanPaths = append(channel.FanPaths, resolveDevicePath(fan))
				}
			}
		}

		config.Channels = append(config.Channels, channel)
	}

	return config, nil
}

func resolveDevicePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(hwmonBaseDir, path)
}

type pair struct {
	key   string
	value string
}

// parsePairList parses "a=b c=d" preserving order.
func parsePairList(value string, name string) ([]pair, error) {
	var list []pair
	for _, token := range strings.Fields(value) {
		eq := strings.IndexByte(token, '=')
		if eq <= 0 || eq+1 >= len(token) {
			return nil, fmt.Errorf("invalid %s entry: %s", name, token)
		}
		list = append(list, pair{key: token[:eq], value: token[eq+1:]})
	}
	if len(list) <= 0 {
		return nil, fmt.Errorf("invalid %s value: %s", name, value)
	}
	return list, nil
}

func parsePairs(value string, name string) (map[string]string, error) {
	out := map[string]string{}
	if len(strings.TrimSpace(value)) <= 0 {
		return out, nil
	}

	list, err := parsePairList(value, name)
	if err != nil {
		return nil, err
	}
	for _, entry := range list {
		out[entry.key] = entry.value
	}
	return out, nil
}

func parseIntPairs(value string, name string) (map[string]int, error) {
	pairs, err := parsePairs(value, name)
	if err != nil {
		return nil, err
	}

	out := map[string]int{}
	for key, text := range pairs {
		number, err := strconv.Atoi(text)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value for %s: %s", name, key, text)
		}
		out[key] = number
	}
	return out, nil
}
