package pwm

import (
	"github.com/markusressel/fancontrol/internal/configuration"
	"github.com/markusressel/fancontrol/internal/policy"
)

// RampController limits how fast the PWM output may move. The rate is
// expressed as "sweep the full span in ramp_up/ramp_down seconds", evaluated
// once per control-loop tick. Fractional progress is carried between ticks in
// an accumulator, otherwise short intervals would truncate the per-tick step
// to zero and the effective rate would fall below the configured one.
type RampController struct {
	config *configuration.Config

	accumulator      float64
	hasDirection     bool
	lastStrengthened bool
}

func NewRampController(config *configuration.Config) *RampController {
	return &RampController{
		config: config,
	}
}

// Reconfigure swaps the profile and resets the accumulated progress. Ramp
// targets may have jumped discontinuously, carrying the remainder over would
// attribute old progress to the new rate.
func (r *RampController) Reconfigure(config *configuration.Config) {
	r.config = config
	r.Reset()
}

func (r *RampController) Reset() {
	r.accumulator = 0
	r.hasDirection = false
}

// Next returns the PWM value to apply this tick while moving toward target.
func (r *RampController) Next(currentPwm int, targetPwm int) int {
	if targetPwm == currentPwm {
		r.Reset()
		return currentPwm
	}

	strengthening := policy.IsStrongerCooling(r.config, targetPwm, currentPwm)
	if !r.hasDirection || r.lastStrengthened != strengthening {
		// direction change, accumulated progress belongs to the old sweep
		r.accumulator = 0
		r.hasDirection = true
		r.lastStrengthened = strengthening
	}

	rampSec := r.config.RampDown
	if strengthening {
		rampSec = r.config.RampUp
	}

	span := r.config.PwmMax - r.config.PwmMin
	r.accumulator += float64(span) * float64(r.config.IntervalSec) / float64(rampSec)

	step := int(r.accumulator)
	if step <= 0 {
		return currentPwm
	}
	r.accumulator -= float64(step)

	distance := targetPwm - currentPwm
	if distance < 0 {
		distance = -distance
	}
	if step > distance {
		step = distance
	}

	if targetPwm > currentPwm {
		return currentPwm + step
	}
	return currentPwm - step
}

// StartupBoost substitutes a stronger kick value for a weak target when the
// fan is asked to spin up from a standstill. Some fans need more than the
// minimum active PWM to overcome static friction.
func StartupBoost(config *configuration.Config, targetPwm int, currentPwm int) int {
	if config.PwmStartup < 0 {
		return targetPwm
	}

	startupPwm := policy.ClampPwm(config, config.PwmStartup)
	idlePwm := policy.MinCoolingPwm(config)

	requestingActiveCooling := policy.IsStrongerCooling(config, targetPwm, idlePwm)
	startupStrongerThanTarget := policy.IsStrongerCooling(config, startupPwm, targetPwm)
	currentWeakerThanStartup := policy.IsStrongerCooling(config, startupPwm, currentPwm)

	if requestingActiveCooling && startupStrongerThanTarget && currentWeakerThanStartup {
		return startupPwm
	}
	return targetPwm
}
