package configuration

import (
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"strings"
)

var sourceIdRegex = regexp.MustCompile(SourceIdPattern)

// Validate normalizes and checks a board profile in place. It is called on
// every load and before any write, so a Config that reached the control loop
// is always canonical: trimmed paths, lower-case enums, JSON args in their
// round-tripped form.
func Validate(config *Config) error {
	spec := Spec()

	config.ControlMode = ControlMode(strings.ToLower(strings.TrimSpace(string(config.ControlMode))))
	switch config.ControlMode {
	case ControlModeKernel, ControlModeUser:
	default:
		return fmt.Errorf("%s must be one of: %s", spec.ControlMode.Key, strings.Join(spec.ControlMode.Values, ", "))
	}

	config.PwmPath = strings.TrimSpace(config.PwmPath)
	config.PwmEnablePath = strings.TrimSpace(config.PwmEnablePath)
	config.ControlModePath = strings.TrimSpace(config.ControlModePath)
	if len(config.PwmPath) <= 0 {
		return fmt.Errorf("%s must not be empty", spec.PwmPath.Key)
	}
	if len(config.ControlModePath) <= 0 {
		return fmt.Errorf("%s must not be empty", spec.ControlModePath.Key)
	}
	// an empty enable path defaults to the conventional sibling register, so
	// every validated profile renders and reloads to the same document
	if len(config.PwmEnablePath) <= 0 {
		config.PwmEnablePath = config.PwmPath + "_enable"
	}

	rangeChecks := []struct {
		field IntField
		value int
	}{
		{spec.Interval, config.IntervalSec},
		{spec.PwmMin, config.PwmMin},
		{spec.PwmMax, config.PwmMax},
		{spec.PwmStartup, config.PwmStartup},
		{spec.RampUp, config.RampUp},
		{spec.RampDown, config.RampDown},
		{spec.Hysteresis, config.HysteresisMilliC},
		{spec.FailsafePwm, config.FailsafePwm},
	}
	for _, check := range rangeChecks {
		if err := checkRange(check.field, check.value); err != nil {
			return err
		}
	}

	if config.PwmMin > config.PwmMax {
		return fmt.Errorf("%s must not exceed %s", spec.PwmMin.Key, spec.PwmMax.Key)
	}

	seenIds := map[string]bool{}
	seenResources := map[string]string{}

	for i := range config.Sources {
		src := &config.Sources[i]

		src.ID = strings.TrimSpace(src.ID)
		if !sourceIdRegex.MatchString(src.ID) {
			return fmt.Errorf("invalid source id: %q", src.ID)
		}
		if seenIds[src.ID] {
			return fmt.Errorf("duplicate source id: %s", src.ID)
		}
		seenIds[src.ID] = true

		sourceRanges := []struct {
			field IntField
			value int
		}{
			{spec.SourcePoll, src.PollSec},
			{spec.SourceTTL, src.TTLSec},
			{spec.SourceWeight, src.Weight},
			{spec.SourceTStart, src.TStartMilliC},
			{spec.SourceTFull, src.TFullMilliC},
			{spec.SourceTCrit, src.TCritMilliC},
		}
		for _, check := range sourceRanges {
			if err := checkRange(check.field, check.value); err != nil {
				return fmt.Errorf("SOURCE_%s: %w", src.ID, err)
			}
		}

		if src.TTLSec < src.PollSec {
			return fmt.Errorf("SOURCE_%s: ttl must be >= poll", src.ID)
		}
		if !(src.TStartMilliC < src.TFullMilliC && src.TFullMilliC <= src.TCritMilliC) {
			return fmt.Errorf("SOURCE_%s: thresholds must satisfy t_start < t_full <= t_crit", src.ID)
		}

		switch src.Type {
		case SourceTypeSysfs:
			src.Path = strings.TrimSpace(src.Path)
			if len(src.Path) <= 0 {
				return fmt.Errorf("SOURCE_%s: sysfs source requires a path", src.ID)
			}
			canonical := path.Clean(src.Path)
			if !path.IsAbs(canonical) {
				return fmt.Errorf("SOURCE_%s: sysfs path must be absolute: %s", src.ID, src.Path)
			}
			src.Path = canonical
			src.Object = ""
			src.Method = ""
			src.Key = ""
			src.ArgsJSON = ""
		case SourceTypeUbus:
			src.Object = strings.TrimSpace(src.Object)
			src.Method = strings.TrimSpace(src.Method)
			src.Key = strings.TrimSpace(src.Key)
			if len(src.Object) <= 0 || len(src.Method) <= 0 || len(src.Key) <= 0 {
				return fmt.Errorf("SOURCE_%s: ubus source requires object, method and key", src.ID)
			}
			canonical, err := canonicalJSONObject(src.ArgsJSON)
			if err != nil {
				return fmt.Errorf("SOURCE_%s: invalid args JSON: %w", src.ID, err)
			}
			src.ArgsJSON = canonical
			src.Path = ""
		default:
			return fmt.Errorf("SOURCE_%s: unsupported source type: %s", src.ID, src.Type)
		}

		resource := src.ResourceKey()
		if other, ok := seenResources[resource]; ok {
			return fmt.Errorf("SOURCE_%s reads the same resource as SOURCE_%s", src.ID, other)
		}
		seenResources[resource] = src.ID
	}

	if len(config.Sources) <= 0 {
		return fmt.Errorf("at least one temperature source is required")
	}

	return nil
}

func checkRange(field IntField, value int) error {
	if value < field.Min {
		return fmt.Errorf("%s must be >= %d, got %d", field.Key, field.Min, value)
	}
	if field.HasMax && value > field.Max {
		return fmt.Errorf("%s must be <= %d, got %d", field.Key, field.Max, value)
	}
	return nil
}

// canonicalJSONObject round-trips an args payload through encoding/json so
// equivalent spellings (whitespace, key order handled by the marshaller)
// compare equal in ResourceKey.
func canonicalJSONObject(in string) (string, error) {
	trimmed := strings.TrimSpace(in)
	if len(trimmed) <= 0 {
		return "{}", nil
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		return "", err
	}

	out, err := json.Marshal(parsed)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
