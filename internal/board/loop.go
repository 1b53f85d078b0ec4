package board

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/markusressel/fancontrol/internal/configuration"
	"github.com/markusressel/fancontrol/internal/policy"
	"github.com/markusressel/fancontrol/internal/pwm"
	"github.com/markusressel/fancontrol/internal/sources"
	"github.com/markusressel/fancontrol/internal/ui"
	"github.com/markusressel/fancontrol/internal/util"
)

var (
	latestStatusMu sync.Mutex
	latestStatus   *RuntimeStatus
)

// LatestStatus returns the most recently published runtime status, or nil if
// the control loop has not completed a tick yet.
func LatestStatus() *RuntimeStatus {
	latestStatusMu.Lock()
	defer latestStatusMu.Unlock()
	return latestStatus
}

func setLatestStatus(status RuntimeStatus) {
	latestStatusMu.Lock()
	defer latestStatusMu.Unlock()
	latestStatus = &status
}

func clearLatestStatus() {
	latestStatusMu.Lock()
	defer latestStatusMu.Unlock()
	latestStatus = nil
}

// ControlLoop is the single writer of the PWM register. Per tick it reads the
// hardware back, folds the source snapshots into a target, ramps toward it
// (user mode only) and publishes telemetry.
type ControlLoop struct {
	config  *configuration.Config
	manager *sources.Manager
	engine  *policy.Engine
	ramp    *pwm.RampController

	statusPath string
	ownsPwm    bool
	currentPwm int
}

func NewControlLoop(
	config *configuration.Config,
	manager *sources.Manager,
	statusPath string,
) *ControlLoop {
	loop := &ControlLoop{
		config:     config,
		manager:    manager,
		engine:     policy.NewEngine(config),
		ramp:       pwm.NewRampController(config),
		statusPath: statusPath,
		ownsPwm:    config.ControlMode == configuration.ControlModeUser,
	}

	if value, err := util.ReadIntFromFile(config.PwmPath); err == nil {
		loop.currentPwm = value
	} else {
		loop.currentPwm = policy.MaxCoolingPwm(config)
	}

	return loop
}

func (loop *ControlLoop) Run(ctx context.Context) error {
	interval := time.Duration(loop.config.IntervalSec) * time.Second

	ui.Info("Starting board-mode fan control (%s mode, tick every %v)...", loop.config.ControlMode, interval)

	defer func() {
		RemoveRuntimeStatus(loop.statusPath)
		clearLatestStatus()
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := loop.tick(); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (loop *ControlLoop) tick() error {
	// read the register back, the kernel or another process may have moved it
	if value, err := util.ReadIntFromFile(loop.config.PwmPath); err == nil {
		loop.currentPwm = value
	} else {
		ui.Warning("Unable to read current PWM value from %s: %v", loop.config.PwmPath, err)
	}
	currentPwm := loop.currentPwm

	decision, telemetry := loop.engine.ComputeTargetDecision(loop.manager.Snapshots(), time.Now())

	appliedPwm := currentPwm
	if loop.ownsPwm {
		nextPwm := loop.ramp.Next(currentPwm, decision.TargetPwm)
		nextPwm = pwm.StartupBoost(loop.config, nextPwm, currentPwm)

		if nextPwm != currentPwm {
			if err := util.WriteIntToFile(nextPwm, loop.config.PwmPath); err != nil {
				return fmt.Errorf("error writing PWM value to %s: %s", loop.config.PwmPath, err.Error())
			}
			loop.currentPwm = nextPwm
			ui.Debug("board pwm target=%d applied=%d", decision.TargetPwm, nextPwm)
		}
		appliedPwm = nextPwm
	}

	status := BuildRuntimeStatus(loop.config, decision, currentPwm, decision.TargetPwm, appliedPwm, telemetry)
	setLatestStatus(status)
	if err := WriteRuntimeStatus(loop.statusPath, status); err != nil {
		ui.Warning("Unable to write runtime status to %s: %v", loop.statusPath, err)
	}

	return nil
}
