package configuration

import (
	"fmt"
	"strings"
)

// Render serializes a board profile back into the text format understood by
// Parse. Rendering a parsed profile and parsing it again yields the same
// Config, which is what keeps the apply path honest: the file on disk is
// always re-validated in its final form before it replaces the old one.
func Render(config *Config) string {
	var out strings.Builder

	out.WriteString("# Configuration file generated by fancontrol\n")
	out.WriteString("\n")

	spec := Spec()
	writeKey := func(key string, value interface{}) {
		out.WriteString(fmt.Sprintf("%s=%v\n", key, value))
	}

	writeKey(spec.Interval.Key, config.IntervalSec)
	writeKey(spec.ControlMode.Key, string(config.ControlMode))
	writeKey(spec.PwmPath.Key, config.PwmPath)
	if len(config.PwmEnablePath) > 0 {
		writeKey(spec.PwmEnablePath.Key, config.PwmEnablePath)
	}
	writeKey(spec.ControlModePath.Key, config.ControlModePath)
	writeKey(spec.PwmMin.Key, config.PwmMin)
	writeKey(spec.PwmMax.Key, config.PwmMax)
	writeKey(spec.PwmInverted.Key, boolValue(config.PwmInverted))
	writeKey(spec.PwmStartup.Key, config.PwmStartup)
	writeKey(spec.RampUp.Key, config.RampUp)
	writeKey(spec.RampDown.Key, config.RampDown)
	writeKey(spec.Hysteresis.Key, config.HysteresisMilliC)
	writeKey(spec.FailsafePwm.Key, config.FailsafePwm)

	if len(config.Sources) > 0 {
		out.WriteString("\n")
	}
	for _, src := range config.Sources {
		out.WriteString(fmt.Sprintf("SOURCE_%s=%s\n", src.ID, renderSourceFields(src)))
	}

	return out.String()
}

func renderSourceFields(src SourceConfig) string {
	fields := []string{"type=" + string(src.Type)}

	switch src.Type {
	case SourceTypeSysfs:
		fields = append(fields, "path="+src.Path)
	case SourceTypeUbus:
		fields = append(fields,
			"object="+src.Object,
			"method="+src.Method,
			"key="+src.Key)
		if src.ArgsJSON != "{}" && len(src.ArgsJSON) > 0 {
			fields = append(fields, "args="+src.ArgsJSON)
		}
	}

	fields = append(fields,
		fmt.Sprintf("t_start=%d", src.TStartMilliC),
		fmt.Sprintf("t_full=%d", src.TFullMilliC),
		fmt.Sprintf("t_crit=%d", src.TCritMilliC),
		fmt.Sprintf("ttl=%d", src.TTLSec),
		fmt.Sprintf("poll=%d", src.PollSec),
		fmt.Sprintf("weight=%d", src.Weight))

	return strings.Join(fields, ",")
}

func boolValue(value bool) int {
	if value {
		return 1
	}
	return 0
}
