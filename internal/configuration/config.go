package configuration

const (
	DefaultConfigPath      = "/etc/fancontrol.conf"
	PidfilePath            = "/var/run/fancontrol.pid"
	RuntimeStatusPath      = "/var/run/fancontrol.status.json"
	DefaultPwmPath         = "/sys/class/hwmon/hwmon2/pwm1"
	DefaultPwmEnablePath   = "/sys/class/hwmon/hwmon2/pwm1_enable"
	DefaultControlModePath = "/sys/class/thermal/thermal_zone0/mode"
	SourceIdPattern        = "^[A-Za-z0-9_-]+$"
	LegacyConfigPath       = "/etc/fancontrol"
)

type ControlMode string

const (
	// ControlModeKernel leaves the PWM register to the kernel thermal governor,
	// the daemon only observes and publishes telemetry.
	ControlModeKernel ControlMode = "kernel"
	// ControlModeUser makes this daemon the exclusive writer of the PWM register.
	ControlModeUser ControlMode = "user"
)

type SourceType string

const (
	SourceTypeSysfs SourceType = "sysfs"
	SourceTypeUbus  SourceType = "ubus"
)

// SourceConfig describes one temperature input of the board profile.
type SourceConfig struct {
	ID   string     `json:"id"`
	Type SourceType `json:"type"`

	// sysfs only
	Path string `json:"path"`

	// ubus only
	Object   string `json:"object"`
	Method   string `json:"method"`
	Key      string `json:"key"`
	ArgsJSON string `json:"args"`

	TStartMilliC int `json:"t_start"`
	TFullMilliC  int `json:"t_full"`
	TCritMilliC  int `json:"t_crit"`
	TTLSec       int `json:"ttl"`
	PollSec      int `json:"poll"`
	Weight       int `json:"weight"`
}

// ResourceKey identifies the physical resource behind a source. Two sources
// sharing the same key would sample the same thing, which is rejected at
// validation time.
func (s SourceConfig) ResourceKey() string {
	switch s.Type {
	case SourceTypeSysfs:
		return "sysfs:" + s.Path
	case SourceTypeUbus:
		return "ubus:" + s.Object + "|" + s.Method + "|" + s.Key + "|" + s.ArgsJSON
	}
	return string(s.Type) + ":"
}

// Config is the complete board profile driving the control loop.
type Config struct {
	IntervalSec int         `json:"interval"`
	ControlMode ControlMode `json:"control_mode"`

	PwmPath         string `json:"pwm_path"`
	PwmEnablePath   string `json:"pwm_enable_path"`
	ControlModePath string `json:"control_mode_path"`

	PwmMin      int  `json:"pwm_min"`
	PwmMax      int  `json:"pwm_max"`
	PwmInverted bool `json:"pwm_inverted"`
	// PwmStartup is an optional kick value applied when cooling becomes
	// active while the fan may still be standing. Negative disables it.
	PwmStartup int `json:"pwm_startup"`

	RampUp           int `json:"ramp_up"`
	RampDown         int `json:"ramp_down"`
	HysteresisMilliC int `json:"hysteresis_mC"`
	FailsafePwm      int `json:"failsafe_pwm"`

	Sources []SourceConfig `json:"sources"`
}

// Default returns the built-in board profile, used when no configuration file
// exists yet and as the base for the configuration wizard.
func Default() Config {
	spec := Spec()

	cfg := Config{
		IntervalSec:      spec.Interval.Default,
		ControlMode:      ControlMode(spec.ControlMode.Default),
		PwmPath:          spec.PwmPath.Default,
		PwmEnablePath:    spec.PwmEnablePath.Default,
		ControlModePath:  spec.ControlModePath.Default,
		PwmMin:           spec.PwmMin.Default,
		PwmMax:           spec.PwmMax.Default,
		PwmInverted:      false,
		PwmStartup:       spec.PwmStartup.Default,
		RampUp:           spec.RampUp.Default,
		RampDown:         spec.RampDown.Default,
		HysteresisMilliC: spec.Hysteresis.Default,
		FailsafePwm:      spec.FailsafePwm.Default,
	}

	cfg.Sources = make([]SourceConfig, len(spec.SourceTemplates))
	copy(cfg.Sources, spec.SourceTemplates)

	return cfg
}
