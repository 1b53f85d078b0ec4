package board

import (
	"encoding/json"
	"os"
	"time"

	"github.com/markusressel/fancontrol/internal/configuration"
	"github.com/markusressel/fancontrol/internal/policy"
	"github.com/markusressel/fancontrol/internal/util"
)

type PwmStatus struct {
	Current int `json:"current"`
	Target  int `json:"target"`
	Applied int `json:"applied"`
}

type SafetyStatus struct {
	AnyValid   bool `json:"any_valid"`
	AnyTimeout bool `json:"any_timeout"`
	Critical   bool `json:"critical"`
}

// RuntimeStatus is the telemetry document published after every tick. It is
// the read-only feed for dashboards and the REST API, kernel mode publishes
// it too so observers can see demand without the daemon owning the fan.
type RuntimeStatus struct {
	Ok          int                      `json:"ok"`
	Timestamp   int64                    `json:"timestamp"`
	ControlMode string                   `json:"control_mode"`
	Pwm         PwmStatus                `json:"pwm"`
	Safety      SafetyStatus             `json:"safety"`
	Sources     []policy.SourceTelemetry `json:"sources"`
}

func BuildRuntimeStatus(
	config *configuration.Config,
	decision policy.TargetDecision,
	currentPwm int,
	targetPwm int,
	appliedPwm int,
	telemetry []policy.SourceTelemetry,
) RuntimeStatus {
	if telemetry == nil {
		telemetry = []policy.SourceTelemetry{}
	}
	return RuntimeStatus{
		Ok:          1,
		Timestamp:   time.Now().Unix(),
		ControlMode: string(config.ControlMode),
		Pwm: PwmStatus{
			Current: currentPwm,
			Target:  targetPwm,
			Applied: appliedPwm,
		},
		Safety: SafetyStatus{
			AnyValid:   decision.AnyValid,
			AnyTimeout: decision.AnyTimeout,
			Critical:   decision.Critical,
		},
		Sources: telemetry,
	}
}

// WriteRuntimeStatus publishes the document atomically so a reader never sees
// a torn file.
func WriteRuntimeStatus(path string, status RuntimeStatus) error {
	payload, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return util.WriteFileAtomic(path, append(payload, '\n'))
}

// RemoveRuntimeStatus deletes the document on shutdown, stale telemetry must
// not be mistaken for live data.
func RemoveRuntimeStatus(path string) {
	_ = os.Remove(path)
}
