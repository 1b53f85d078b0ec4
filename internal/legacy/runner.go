package legacy

import (
	"context"
	"fmt"
	"time"

	"github.com/asecurityteam/rolling"
	"github.com/markusressel/fancontrol/internal/ui"
	"github.com/markusressel/fancontrol/internal/util"
)

// channelState tracks one PWM channel across update cycles. The rolling
// window smooths temperature readings when AVERAGE is configured, matching
// the smoothing window of the classic fancontrol script.
type channelState struct {
	config Channel

	window  *rolling.PointPolicy
	primed  bool
	lastPwm int

	origPwm    int
	origEnable int
	hasEnable  bool
	enabled    bool
}

// Runner drives a set of classic fancontrol channels. It takes manual
// control of each PWM output on start and restores the previous hardware
// state on shutdown or failure.
type Runner struct {
	config   *Config
	channels []*channelState
}

func NewRunner(config *Config) *Runner {
	runner := &Runner{
		config: config,
	}
	for _, channel := range config.Channels {
		runner.channels = append(runner.channels, &channelState{
			config:  channel,
			window:  util.CreateRollingWindow(channel.Average),
			lastPwm: -1,
		})
	}
	return runner
}

// Run enables all channels, updates them once per interval and restores the
// hardware state when the context is cancelled or an update fails.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.enableAll(); err != nil {
		r.restoreAll()
		return err
	}
	defer r.restoreAll()

	ticker := time.NewTicker(time.Duration(r.config.IntervalSec) * time.Second)
	defer ticker.Stop()

	for {
		if err := r.updateAll(); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (r *Runner) enableAll() error {
	for _, channel := range r.channels {
		if err := channel.enable(); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) updateAll() error {
	for _, channel := range r.channels {
		if err := channel.update(); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) restoreAll() {
	for _, channel := range r.channels {
		channel.restore()
	}
}

// enable switches the PWM output to manual mode, remembering the previous
// enable mode and duty cycle so they can be restored later.
func (c *channelState) enable() error {
	pwm, err := util.ReadIntFromFile(c.config.PwmPath)
	if err != nil {
		return fmt.Errorf("cannot read PWM value from %s: %w", c.config.PwmPath, err)
	}
	c.origPwm = pwm

	enablePath := c.config.PwmPath + "_enable"
	if util.FileExists(enablePath) {
		enable, err := util.ReadIntFromFile(enablePath)
		if err != nil {
			return fmt.Errorf("cannot read PWM enable mode from %s: %w", enablePath, err)
		}
		c.origEnable = enable
		c.hasEnable = true

		if err := util.WriteIntToFile(1, enablePath); err != nil {
			return fmt.Errorf("cannot enable manual PWM mode on %s: %w", enablePath, err)
		}
	}

	// run at full speed until the first update computes a real target
	if err := util.WriteIntToFile(PwmMax, c.config.PwmPath); err != nil {
		return fmt.Errorf("cannot write PWM value to %s: %w", c.config.PwmPath, err)
	}

	c.enabled = true
	return nil
}

func (c *channelState) update() error {
	tempMilliC, err := util.ReadIntFromFile(c.config.TempPath)
	if err != nil {
		return fmt.Errorf("cannot read temperature from %s: %w", c.config.TempPath, err)
	}

	if !c.primed {
		util.FillWindow(c.window, c.config.Average, float64(tempMilliC))
		c.primed = true
	} else {
		c.window.Append(float64(tempMilliC))
	}
	avgMilliC := int(util.GetWindowAvg(c.window))

	target := c.targetPwm(avgMilliC)

	if target > 0 && c.needsKickstart() {
		ui.Debug("Fan on %s stalled, kickstarting with PWM %d", c.config.PwmPath, c.config.MinStartPwm)
		if err := util.WriteIntToFile(c.config.MinStartPwm, c.config.PwmPath); err != nil {
			return fmt.Errorf("cannot write PWM value to %s: %w", c.config.PwmPath, err)
		}
		time.Sleep(1 * time.Second)
	}

	if err := util.WriteIntToFile(target, c.config.PwmPath); err != nil {
		return fmt.Errorf("cannot write PWM value to %s: %w", c.config.PwmPath, err)
	}
	c.lastPwm = target
	return nil
}

// targetPwm maps an averaged temperature to a duty cycle. Temperatures are
// milli-Celsius, MINTEMP and MAXTEMP are whole degrees.
func (c *channelState) targetPwm(avgMilliC int) int {
	minTemp := c.config.MinTempC * 1000
	maxTemp := c.config.MaxTempC * 1000

	if avgMilliC < minTemp {
		return c.config.MinPwm
	}
	if avgMilliC >= maxTemp {
		return c.config.MaxPwm
	}
	pwm := (avgMilliC-minTemp)*(c.config.MaxPwm-c.config.MinStopPwm)/(maxTemp-minTemp) + c.config.MinStopPwm
	return util.CoerceInt(pwm, 0, PwmMax)
}

// needsKickstart reports whether the fan must be restarted with MINSTART
// before applying the regular target. A fan counts as stalled when the last
// written duty cycle was zero or every monitored tach input reads zero RPM.
func (c *channelState) needsKickstart() bool {
	if c.lastPwm == 0 {
		return true
	}
	if c.lastPwm < 0 || len(c.config.FanPaths) <= 0 {
		return false
	}
	for _, fanPath := range c.config.FanPaths {
		rpm, err := util.ReadIntFromFile(fanPath)
		if err != nil {
			continue
		}
		if rpm == 0 {
			return true
		}
	}
	return false
}

// restore puts the PWM output back into the state it had before enable. If
// the original enable mode cannot be restored the output falls back to
// manual mode at full speed, so a broken shutdown never leaves a fan off.
func (c *channelState) restore() {
	if !c.enabled {
		return
	}
	c.enabled = false

	if err := util.WriteIntToFile(c.origPwm, c.config.PwmPath); err != nil {
		ui.Warning("Cannot restore PWM value on %s: %v", c.config.PwmPath, err)
	}

	if !c.hasEnable {
		return
	}
	enablePath := c.config.PwmPath + "_enable"
	if err := util.WriteIntToFile(c.origEnable, enablePath); err == nil {
		if readBack, readErr := util.ReadIntFromFile(enablePath); readErr == nil && readBack == c.origEnable {
			return
		}
	}

	ui.Warning("Cannot restore enable mode on %s, forcing manual full speed", enablePath)
	_ = util.WriteIntToFile(1, enablePath)
	_ = util.WriteIntToFile(PwmMax, c.config.PwmPath)
}
