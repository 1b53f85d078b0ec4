package board

import (
	"fmt"

	"github.com/markusressel/fancontrol/internal/configuration"
	"github.com/markusressel/fancontrol/internal/policy"
	"github.com/markusressel/fancontrol/internal/ui"
	"github.com/markusressel/fancontrol/internal/util"
)

// ThermalHandover tells the kernel thermal governor to stand down while this
// daemon owns the fan, and hands control back on the way out.
type ThermalHandover struct {
	Path string

	origMode string
	acquired bool
}

func NewThermalHandover(path string) *ThermalHandover {
	return &ThermalHandover{
		Path: path,
	}
}

func (h *ThermalHandover) Acquire() error {
	if mode, err := util.ReadTextFromFile(h.Path); err == nil {
		h.origMode = mode
		ui.Debug("Saving %s original value as %s", h.Path, mode)
	}

	if err := util.WriteTextToFile("disabled", h.Path); err != nil {
		return fmt.Errorf("failed to disable kernel thermal control: %s", err.Error())
	}

	ui.Debug("Set %s to disabled (fancontrol owns PWM)", h.Path)
	h.acquired = true
	return nil
}

// Restore hands the governor back. Without a captured original value the
// governor is re-enabled, never left disabled.
func (h *ThermalHandover) Restore() {
	if !h.acquired {
		return
	}

	targetMode := "enabled"
	if len(h.origMode) > 0 {
		targetMode = h.origMode
	}

	ui.Debug("Restoring %s to %s", h.Path, targetMode)
	if err := util.WriteTextToFile(targetMode, h.Path); err != nil {
		ui.Warning("Failed to restore %s to %s: %v", h.Path, targetMode, err)
	}
	h.acquired = false
}

// PwmHandover switches the PWM register to manual control, primes it with
// full cooling and restores the pre-daemon state on release. Priming with
// full cooling means a crash between acquire and the first tick errs on the
// loud side, not the hot side.
type PwmHandover struct {
	config *configuration.Config

	origPwm    *int
	origEnable *int
	hasEnable  bool
	acquired   bool
}

func NewPwmHandover(config *configuration.Config) *PwmHandover {
	return &PwmHandover{
		config: config,
	}
}

func (h *PwmHandover) Acquire() error {
	if pwm, err := util.ReadIntFromFile(h.config.PwmPath); err == nil {
		h.origPwm = &pwm
		ui.Debug("Saving %s original value as %d", h.config.PwmPath, pwm)
	}

	h.hasEnable = util.FileExists(h.config.PwmEnablePath)
	if h.hasEnable {
		if enable, err := util.ReadIntFromFile(h.config.PwmEnablePath); err == nil {
			h.origEnable = &enable
		}

		// 1 = manual control
		if err := util.WriteIntToFile(1, h.config.PwmEnablePath); err != nil {
			return fmt.Errorf("failed to enable manual PWM control: %s", err.Error())
		}
	}

	if err := util.WriteIntToFile(policy.MaxCoolingPwm(h.config), h.config.PwmPath); err != nil {
		return fmt.Errorf("failed to prime PWM register: %s", err.Error())
	}

	h.acquired = true
	return nil
}

func (h *PwmHandover) Restore() {
	if !h.acquired {
		return
	}

	if h.origPwm != nil {
		ui.Debug("Restoring %s original value of %d", h.config.PwmPath, *h.origPwm)
		_ = util.WriteIntToFile(*h.origPwm, h.config.PwmPath)
	} else {
		_ = util.WriteIntToFile(policy.MaxCoolingPwm(h.config), h.config.PwmPath)
	}

	if h.hasEnable {
		targetEnable := 1
		if h.origEnable != nil {
			targetEnable = *h.origEnable
		}
		ui.Debug("Restoring %s to %d", h.config.PwmEnablePath, targetEnable)
		if err := util.WriteIntToFile(targetEnable, h.config.PwmEnablePath); err != nil {
			// last resort, leave the fan at full speed under manual control
			_ = util.WriteIntToFile(1, h.config.PwmEnablePath)
			_ = util.WriteIntToFile(policy.MaxCoolingPwm(h.config), h.config.PwmPath)
		}
	}
	h.acquired = false
}
