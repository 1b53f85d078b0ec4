package policy

import (
	"math"

	"github.com/markusressel/fancontrol/internal/configuration"
	"github.com/markusressel/fancontrol/internal/util"
)

// The PWM direction helpers isolate the inverted-hardware case. Everything
// above them reasons in terms of cooling strength, never raw register order.

func MinCoolingPwm(config *configuration.Config) int {
	if config.PwmInverted {
		return config.PwmMax
	}
	return config.PwmMin
}

func MaxCoolingPwm(config *configuration.Config) int {
	if config.PwmInverted {
		return config.PwmMin
	}
	return config.PwmMax
}

// IsStrongerCooling reports whether candidate cools harder than baseline.
func IsStrongerCooling(config *configuration.Config, candidate int, baseline int) bool {
	if config.PwmInverted {
		return candidate < baseline
	}
	return candidate > baseline
}

func StrongerCooling(config *configuration.Config, lhs int, rhs int) int {
	if IsStrongerCooling(config, rhs, lhs) {
		return rhs
	}
	return lhs
}

func ClampPwm(config *configuration.Config, pwm int) int {
	return util.CoerceInt(pwm, config.PwmMin, config.PwmMax)
}

// DemandFromSource computes the PWM demand of a single source. The active
// flag is the hysteresis state of the source and is updated in place: the
// demand ramp engages at t_start plus hysteresis and disengages at t_start
// minus hysteresis, so a temperature hovering around t_start does not toggle
// the fan.
func DemandFromSource(
	config *configuration.Config,
	source configuration.SourceConfig,
	tempMilliC int,
	active *bool,
) (demand int, critical bool) {
	idlePwm := MinCoolingPwm(config)
	fullPwm := MaxCoolingPwm(config)

	if tempMilliC >= source.TCritMilliC {
		*active = true
		return fullPwm, true
	}

	onThreshold := source.TStartMilliC + config.HysteresisMilliC
	offThreshold := source.TStartMilliC - config.HysteresisMilliC

	if !*active {
		if tempMilliC < onThreshold {
			return idlePwm, false
		}
		*active = true
	} else {
		if tempMilliC <= offThreshold {
			*active = false
			return idlePwm, false
		}
	}

	ratio := util.Coerce(
		util.Ratio(float64(tempMilliC), float64(source.TStartMilliC), float64(source.TFullMilliC)),
		0.0, 1.0)
	ratio *= float64(source.Weight) / 100.0
	ratio = util.Coerce(ratio, 0.0, 1.0)

	span := config.PwmMax - config.PwmMin
	if config.PwmInverted {
		demand = config.PwmMax - int(math.Round(ratio*float64(span)))
	} else {
		demand = config.PwmMin + int(math.Round(ratio*float64(span)))
	}
	return ClampPwm(config, demand), false
}
