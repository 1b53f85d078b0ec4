package configuration

// IntField describes one numeric configuration key: its text-format key,
// default and allowed range. The same table drives parsing, validation and
// the schema document consumed by the configuration UI, so both sides of the
// seam share a single source of range truth.
type IntField struct {
	Key         string `json:"key"`
	Default     int    `json:"default"`
	Min         int    `json:"min"`
	Max         int    `json:"max"`
	HasMax      bool   `json:"-"`
	Description string `json:"description"`
}

type StringField struct {
	Key         string `json:"key"`
	Default     string `json:"default"`
	Required    bool   `json:"required"`
	Description string `json:"description"`
}

type EnumField struct {
	Key         string   `json:"key"`
	Default     string   `json:"default"`
	Values      []string `json:"values"`
	Description string   `json:"description"`
}

type BoolField struct {
	Key         string `json:"key"`
	Default     bool   `json:"default"`
	Description string `json:"description"`
}

type ConfigSpec struct {
	Interval        IntField
	ControlMode     EnumField
	PwmPath         StringField
	PwmEnablePath   StringField
	ControlModePath StringField
	PwmMin          IntField
	PwmMax          IntField
	PwmInverted     BoolField
	PwmStartup      IntField
	RampUp          IntField
	RampDown        IntField
	Hysteresis      IntField
	FailsafePwm     IntField

	SourceTStart IntField
	SourceTFull  IntField
	SourceTCrit  IntField
	SourceTTL    IntField
	SourcePoll   IntField
	SourceWeight IntField

	SourceIdPattern string
	SourceTypes     []SourceType
	SourceTemplates []SourceConfig
}

// Spec returns the closed set of board configuration fields.
func Spec() ConfigSpec {
	return ConfigSpec{
		Interval:        IntField{Key: "INTERVAL", Default: 1, Min: 1, Description: "Main control loop interval in seconds"},
		ControlMode:     EnumField{Key: "CONTROL_MODE", Default: "kernel", Values: []string{"kernel", "user"}, Description: "PWM owner: kernel or fancontrol user-mode"},
		PwmPath:         StringField{Key: "PWM_PATH", Default: DefaultPwmPath, Required: true, Description: "Target PWM sysfs path"},
		PwmEnablePath:   StringField{Key: "PWM_ENABLE_PATH", Default: DefaultPwmEnablePath, Description: "PWM enable sysfs path"},
		ControlModePath: StringField{Key: "CONTROL_MODE_PATH", Default: DefaultControlModePath, Required: true, Description: "Control mode sysfs path"},
		PwmMin:          IntField{Key: "PWM_MIN", Default: 0, Min: 0, Max: 255, HasMax: true, Description: "Minimum PWM register value"},
		PwmMax:          IntField{Key: "PWM_MAX", Default: 255, Min: 0, Max: 255, HasMax: true, Description: "Maximum PWM register value"},
		PwmInverted:     BoolField{Key: "PWM_INVERTED", Default: false, Description: "Set when a lower PWM register value means stronger cooling"},
		PwmStartup:      IntField{Key: "PWM_STARTUP", Default: -1, Min: -1, Max: 255, HasMax: true, Description: "Startup kick PWM value, -1 disables"},
		RampUp:          IntField{Key: "RAMP_UP", Default: 5, Min: 1, Description: "Seconds from PWM_MIN to PWM_MAX (stronger cooling)"},
		RampDown:        IntField{Key: "RAMP_DOWN", Default: 10, Min: 1, Description: "Seconds from PWM_MAX to PWM_MIN (weaker cooling)"},
		Hysteresis:      IntField{Key: "HYSTERESIS_MC", Default: 2000, Min: 0, Description: "Per-source hysteresis in milli-Celsius"},
		FailsafePwm:     IntField{Key: "FAILSAFE_PWM", Default: 64, Min: 0, Max: 255, HasMax: true, Description: "Failsafe PWM clamp when a source times out"},

		SourceTStart: IntField{Key: "t_start", Default: 60000, Min: -273150, Max: 300000, HasMax: true, Description: "Source demand ramp start temperature (mC)"},
		SourceTFull:  IntField{Key: "t_full", Default: 80000, Min: -273150, Max: 300000, HasMax: true, Description: "Source full-demand temperature (mC)"},
		SourceTCrit:  IntField{Key: "t_crit", Default: 90000, Min: -273150, Max: 300000, HasMax: true, Description: "Source critical temperature (mC)"},
		SourceTTL:    IntField{Key: "ttl", Default: 10, Min: 1, Description: "Source sample TTL in seconds"},
		SourcePoll:   IntField{Key: "poll", Default: 2, Min: 1, Description: "Source polling interval in seconds"},
		SourceWeight: IntField{Key: "weight", Default: 100, Min: 1, Max: 200, HasMax: true, Description: "Source demand weight percentage"},

		SourceIdPattern: SourceIdPattern,
		SourceTypes:     []SourceType{SourceTypeSysfs, SourceTypeUbus},
		SourceTemplates: []SourceConfig{
			{
				ID:           "soc",
				Type:         SourceTypeSysfs,
				Path:         "/sys/class/thermal/thermal_zone0/temp",
				TStartMilliC: 60000,
				TFullMilliC:  82000,
				TCritMilliC:  90000,
				TTLSec:       6,
				PollSec:      1,
				Weight:       100,
			},
			{
				ID:           "nvme",
				Type:         SourceTypeSysfs,
				Path:         "/sys/class/nvme/nvme0/hwmon1/temp1_input",
				TStartMilliC: 50000,
				TFullMilliC:  70000,
				TCritMilliC:  80000,
				TTLSec:       6,
				PollSec:      1,
				Weight:       120,
			},
			{
				ID:           "rm500q-gl",
				Type:         SourceTypeUbus,
				Object:       "qmodem",
				Method:       "get_temperature",
				Key:          "temp_mC",
				ArgsJSON:     `{"config_section":"2_1"}`,
				TStartMilliC: 58000,
				TFullMilliC:  76000,
				TCritMilliC:  85000,
				TTLSec:       20,
				PollSec:      10,
				Weight:       130,
			},
		},
	}
}

func (f IntField) toSchema() map[string]interface{} {
	out := map[string]interface{}{
		"key":         f.Key,
		"type":        "integer",
		"default":     f.Default,
		"min":         f.Min,
		"description": f.Description,
	}
	if f.HasMax {
		out["max"] = f.Max
	}
	return out
}

func (f StringField) toSchema() map[string]interface{} {
	required := 0
	if f.Required {
		required = 1
	}
	return map[string]interface{}{
		"key":         f.Key,
		"type":        "string",
		"default":     f.Default,
		"required":    required,
		"description": f.Description,
	}
}

func (f EnumField) toSchema() map[string]interface{} {
	return map[string]interface{}{
		"key":         f.Key,
		"type":        "enum",
		"default":     f.Default,
		"values":      f.Values,
		"description": f.Description,
	}
}

func (f BoolField) toSchema() map[string]interface{} {
	return map[string]interface{}{
		"key":         f.Key,
		"type":        "boolean",
		"default":     f.Default,
		"description": f.Description,
	}
}

// Schema exposes field names, types, ranges and source templates for the
// external configuration UI. The UI renders its form controls from this
// document instead of maintaining its own copy of the limits.
func Schema() (map[string]interface{}, error) {
	spec := Spec()

	defaults := Default()
	if err := Validate(&defaults); err != nil {
		return nil, err
	}

	templates := map[string]interface{}{}
	for _, src := range defaults.Sources {
		if _, ok := templates[string(src.Type)]; !ok {
			templates[string(src.Type)] = src
		}
	}

	types := make([]string, 0, len(spec.SourceTypes))
	for _, t := range spec.SourceTypes {
		types = append(types, string(t))
	}

	return map[string]interface{}{
		"ok": 1,
		"constants": map[string]interface{}{
			"config_path":               DefaultConfigPath,
			"pidfile_path":              PidfilePath,
			"runtime_status_path":       RuntimeStatusPath,
			"default_pwm_path":          DefaultPwmPath,
			"default_pwm_enable_path":   DefaultPwmEnablePath,
			"default_control_mode_path": DefaultControlModePath,
		},
		"limits": map[string]interface{}{
			"interval":      map[string]interface{}{"min": spec.Interval.Min},
			"pwm":           map[string]interface{}{"min": spec.PwmMin.Min, "max": spec.PwmMax.Max},
			"ramp":          map[string]interface{}{"min": spec.RampUp.Min},
			"hysteresis_mC": map[string]interface{}{"min": spec.Hysteresis.Min},
			"source_weight": map[string]interface{}{"min": spec.SourceWeight.Min, "max": spec.SourceWeight.Max},
			"source_poll":   map[string]interface{}{"min": spec.SourcePoll.Min},
		},
		"config_spec": map[string]interface{}{
			"top_level": []interface{}{
				spec.Interval.toSchema(),
				spec.ControlMode.toSchema(),
				spec.PwmPath.toSchema(),
				spec.PwmEnablePath.toSchema(),
				spec.ControlModePath.toSchema(),
				spec.PwmMin.toSchema(),
				spec.PwmMax.toSchema(),
				spec.PwmInverted.toSchema(),
				spec.PwmStartup.toSchema(),
				spec.RampUp.toSchema(),
				spec.RampDown.toSchema(),
				spec.Hysteresis.toSchema(),
				spec.FailsafePwm.toSchema(),
			},
			"source_common": []interface{}{
				spec.SourceTStart.toSchema(),
				spec.SourceTFull.toSchema(),
				spec.SourceTCrit.toSchema(),
				spec.SourceTTL.toSchema(),
				spec.SourcePoll.toSchema(),
				spec.SourceWeight.toSchema(),
			},
		},
		"source": map[string]interface{}{
			"id_pattern": spec.SourceIdPattern,
			"types":      types,
			"fields": map[string]interface{}{
				"common": []string{"type", "t_start", "t_full", "t_crit", "ttl", "poll", "weight"},
				"sysfs":  []string{"path"},
				"ubus":   []string{"object", "method", "key", "args"},
			},
			"templates": templates,
		},
		"defaults": defaults,
	}, nil
}
