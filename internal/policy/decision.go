package policy

import (
	"time"

	"github.com/markusressel/fancontrol/internal/configuration"
	"github.com/markusressel/fancontrol/internal/sources"
)

// SourceTelemetry is the per-source view published with every decision, both
// in the runtime status file and over the REST API.
type SourceTelemetry struct {
	Id            string `json:"id"`
	HasPolled     bool   `json:"has_polled"`
	Ok            bool   `json:"ok"`
	Stale         bool   `json:"stale"`
	UsingLastGood bool   `json:"using_last_good"`
	Active        bool   `json:"active"`
	Critical      bool   `json:"critical"`
	TempMilliC    int    `json:"temp_mC"`
	AgeSec        int    `json:"age_s"`
	TtlSec        int    `json:"ttl_s"`
	DemandPwm     int    `json:"demand_pwm"`
	Error         string `json:"error"`
}

type TargetDecision struct {
	TargetPwm  int  `json:"target_pwm"`
	AnyValid   bool `json:"any_valid"`
	AnyTimeout bool `json:"any_timeout"`
	Critical   bool `json:"critical"`
}

// Engine arbitrates all source demands into one PWM target. It owns the
// per-source hysteresis state, which is why decisions must come from a single
// Engine instance for the lifetime of a profile.
type Engine struct {
	config *configuration.Config

	configById  map[string]configuration.SourceConfig
	activeState map[string]bool
}

func NewEngine(config *configuration.Config) *Engine {
	engine := &Engine{}
	engine.Reconfigure(config)
	return engine
}

// Reconfigure swaps the profile and drops all hysteresis state.
func (e *Engine) Reconfigure(config *configuration.Config) {
	e.config = config
	e.configById = map[string]configuration.SourceConfig{}
	for _, source := range config.Sources {
		e.configById[source.ID] = source
	}
	e.activeState = map[string]bool{}
}

// ComputeTargetDecision folds the source snapshots into a single target.
// Failure handling is asymmetric on purpose: a failed poll rides through on
// the last good temperature until the TTL expires, an expired source pins the
// target to at least the failsafe floor, and no usable source at all means
// full cooling.
func (e *Engine) ComputeTargetDecision(snapshots []sources.Snapshot, now time.Time) (TargetDecision, []SourceTelemetry) {
	decision := TargetDecision{
		TargetPwm: MinCoolingPwm(e.config),
	}
	telemetry := make([]SourceTelemetry, 0, len(snapshots))

	for _, snapshot := range snapshots {
		item := SourceTelemetry{
			Id: snapshot.ID,
		}

		source, ok := e.configById[snapshot.ID]
		if !ok {
			item.Error = "source id missing in config"
			telemetry = append(telemetry, item)
			continue
		}
		item.TtlSec = source.TTLSec
		item.HasPolled = snapshot.HasPolled

		if snapshot.HasPolled {
			item.Ok = snapshot.LastOK
			item.Error = snapshot.LastErr
			if snapshot.LastOK {
				item.TempMilliC = snapshot.LastTempMilliC
			}
		}

		timeout := false
		if snapshot.HasGood {
			item.AgeSec = int(now.Sub(snapshot.GoodAt) / time.Second)
			item.Stale = item.AgeSec > source.TTLSec
			timeout = item.Stale

			if !snapshot.LastOK {
				item.UsingLastGood = true
				item.TempMilliC = snapshot.GoodTempMilliC
			}
		} else {
			timeout = snapshot.HasPolled
		}

		if timeout {
			decision.AnyTimeout = true
			telemetry = append(telemetry, item)
			continue
		}

		if !snapshot.HasGood {
			telemetry = append(telemetry, item)
			continue
		}

		decision.AnyValid = true
		active := e.activeState[snapshot.ID]
		demand, critical := DemandFromSource(e.config, source, snapshot.GoodTempMilliC, &active)
		e.activeState[snapshot.ID] = active

		item.Active = active
		item.Critical = critical
		item.DemandPwm = demand
		decision.Critical = decision.Critical || critical
		decision.TargetPwm = StrongerCooling(e.config, decision.TargetPwm, demand)

		telemetry = append(telemetry, item)
	}

	if decision.Critical {
		decision.TargetPwm = MaxCoolingPwm(e.config)
	}
	if !decision.AnyValid {
		decision.TargetPwm = MaxCoolingPwm(e.config)
	}
	if decision.AnyTimeout {
		decision.TargetPwm = StrongerCooling(e.config, decision.TargetPwm, ClampPwm(e.config, e.config.FailsafePwm))
	}

	decision.TargetPwm = ClampPwm(e.config, decision.TargetPwm)
	return decision, telemetry
}
