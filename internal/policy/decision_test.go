package policy

import (
	"testing"
	"time"

	"github.com/markusressel/fancontrol/internal/configuration"
	"github.com/markusressel/fancontrol/internal/sources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decisionTestConfig() *configuration.Config {
	config := configuration.Default()
	config.PwmMin = 0
	config.PwmMax = 255
	config.FailsafePwm = 64
	config.Sources = []configuration.SourceConfig{
		demandTestSource(),
		{
			ID:           "modem",
			Type:         configuration.SourceTypeUbus,
			Object:       "qmodem",
			Method:       "get_temperature",
			Key:          "temp_mC",
			ArgsJSON:     "{}",
			TStartMilliC: 58000,
			TFullMilliC:  76000,
			TCritMilliC:  85000,
			TTLSec:       20,
			PollSec:      10,
			Weight:       100,
		},
	}
	return &config
}

func goodSnapshot(id string, tempMilliC int, at time.Time) sources.Snapshot {
	return sources.Snapshot{
		ID:             id,
		HasPolled:      true,
		LastOK:         true,
		LastTempMilliC: tempMilliC,
		LastAt:         at,
		HasGood:        true,
		GoodTempMilliC: tempMilliC,
		GoodAt:         at,
	}
}

func TestComputeTargetDecision_Idle(t *testing.T) {
	engine := NewEngine(decisionTestConfig())
	now := time.Now()

	decision, telemetry := engine.ComputeTargetDecision([]sources.Snapshot{
		goodSnapshot("soc", 40000, now),
		goodSnapshot("modem", 40000, now),
	}, now)

	assert.True(t, decision.AnyValid)
	assert.False(t, decision.AnyTimeout)
	assert.False(t, decision.Critical)
	assert.Equal(t, 0, decision.TargetPwm)
	require.Len(t, telemetry, 2)
	assert.False(t, telemetry[0].Active)
}

func TestComputeTargetDecision_MaxOfDemands(t *testing.T) {
	// GIVEN one warm and one hot source
	engine := NewEngine(decisionTestConfig())
	now := time.Now()

	// WHEN
	decision, telemetry := engine.ComputeTargetDecision([]sources.Snapshot{
		goodSnapshot("soc", 63000, now),
		goodSnapshot("modem", 76000, now),
	}, now)

	// THEN the hotter source wins the arbitration
	require.Len(t, telemetry, 2)
	assert.Equal(t, 255, decision.TargetPwm)
	assert.Equal(t, 255, telemetry[1].DemandPwm)
	assert.Greater(t, telemetry[1].DemandPwm, telemetry[0].DemandPwm)
}

func TestComputeTargetDecision_CriticalForcesFullCooling(t *testing.T) {
	engine := NewEngine(decisionTestConfig())
	now := time.Now()

	decision, _ := engine.ComputeTargetDecision([]sources.Snapshot{
		goodSnapshot("soc", 90000, now),
		goodSnapshot("modem", 40000, now),
	}, now)

	assert.True(t, decision.Critical)
	assert.Equal(t, 255, decision.TargetPwm)
}

func TestComputeTargetDecision_NoUsableSourceForcesFullCooling(t *testing.T) {
	// GIVEN sources that have never produced a good sample
	engine := NewEngine(decisionTestConfig())
	now := time.Now()

	decision, _ := engine.ComputeTargetDecision([]sources.Snapshot{
		{ID: "soc", HasPolled: true, LastOK: false, LastErr: "read failed"},
		{ID: "modem", HasPolled: true, LastOK: false, LastErr: "Connection failed"},
	}, now)

	assert.False(t, decision.AnyValid)
	assert.True(t, decision.AnyTimeout)
	assert.Equal(t, 255, decision.TargetPwm)
}

func TestComputeTargetDecision_NotYetPolledIsNotATimeout(t *testing.T) {
	engine := NewEngine(decisionTestConfig())
	now := time.Now()

	decision, _ := engine.ComputeTargetDecision([]sources.Snapshot{
		{ID: "soc"},
		{ID: "modem"},
	}, now)

	// before the first poll completes nothing is valid, but nothing timed
	// out either, full cooling comes from the no-valid-source rule
	assert.False(t, decision.AnyValid)
	assert.False(t, decision.AnyTimeout)
	assert.Equal(t, 255, decision.TargetPwm)
}

func TestComputeTargetDecision_StaleSourceRaisesFailsafeFloor(t *testing.T) {
	// GIVEN one healthy cold source and one source beyond its TTL
	engine := NewEngine(decisionTestConfig())
	now := time.Now()

	stale := goodSnapshot("modem", 70000, now.Add(-30*time.Second))
	decision, telemetry := engine.ComputeTargetDecision([]sources.Snapshot{
		goodSnapshot("soc", 40000, now),
		stale,
	}, now)

	// THEN the stale source is excluded and the failsafe floor applies
	assert.True(t, decision.AnyValid)
	assert.True(t, decision.AnyTimeout)
	assert.Equal(t, 64, decision.TargetPwm)
	assert.True(t, telemetry[1].Stale)
	assert.Equal(t, 0, telemetry[1].DemandPwm)
}

func TestComputeTargetDecision_FailsafeFloorPersistsWhileStale(t *testing.T) {
	engine := NewEngine(decisionTestConfig())
	now := time.Now()

	for tick := 0; tick < 3; tick++ {
		at := now.Add(time.Duration(tick) * time.Second)
		decision, _ := engine.ComputeTargetDecision([]sources.Snapshot{
			goodSnapshot("soc", 40000, at),
			goodSnapshot("modem", 70000, at.Add(-60*time.Second)),
		}, at)

		assert.GreaterOrEqual(t, decision.TargetPwm, 64, "tick %d", tick)
	}
}

func TestComputeTargetDecision_FailedPollRidesOnLastGood(t *testing.T) {
	// GIVEN a source whose latest poll failed but whose last good sample
	// is still within the TTL
	engine := NewEngine(decisionTestConfig())
	now := time.Now()

	snapshot := sources.Snapshot{
		ID:             "soc",
		HasPolled:      true,
		LastOK:         false,
		LastErr:        "read failed",
		HasGood:        true,
		GoodTempMilliC: 82000,
		GoodAt:         now.Add(-2 * time.Second),
	}

	// WHEN
	decision, telemetry := engine.ComputeTargetDecision([]sources.Snapshot{
		snapshot,
		goodSnapshot("modem", 40000, now),
	}, now)

	// THEN the last good temperature still drives the demand
	assert.True(t, decision.AnyValid)
	assert.False(t, decision.AnyTimeout)
	assert.Equal(t, 255, decision.TargetPwm)
	assert.True(t, telemetry[0].UsingLastGood)
	assert.Equal(t, 82000, telemetry[0].TempMilliC)
}

func TestComputeTargetDecision_HysteresisStatePersistsAcrossTicks(t *testing.T) {
	engine := NewEngine(decisionTestConfig())
	now := time.Now()

	// activate
	_, telemetry := engine.ComputeTargetDecision([]sources.Snapshot{
		goodSnapshot("soc", 63000, now),
		goodSnapshot("modem", 40000, now),
	}, now)
	require.True(t, telemetry[0].Active)

	// dropping into the dead band keeps it active
	decision, telemetry := engine.ComputeTargetDecision([]sources.Snapshot{
		goodSnapshot("soc", 60000, now),
		goodSnapshot("modem", 40000, now),
	}, now)
	assert.True(t, telemetry[0].Active)
	assert.Equal(t, 0, decision.TargetPwm)
}

func TestComputeTargetDecision_ReconfigureResetsHysteresis(t *testing.T) {
	config := decisionTestConfig()
	engine := NewEngine(config)
	now := time.Now()

	_, telemetry := engine.ComputeTargetDecision([]sources.Snapshot{
		goodSnapshot("soc", 63000, now),
		goodSnapshot("modem", 40000, now),
	}, now)
	require.True(t, telemetry[0].Active)

	engine.Reconfigure(config)

	_, telemetry = engine.ComputeTargetDecision([]sources.Snapshot{
		goodSnapshot("soc", 60000, now),
		goodSnapshot("modem", 40000, now),
	}, now)
	assert.False(t, telemetry[0].Active)
}

func TestComputeTargetDecision_UnknownSourceIdReported(t *testing.T) {
	engine := NewEngine(decisionTestConfig())
	now := time.Now()

	_, telemetry := engine.ComputeTargetDecision([]sources.Snapshot{
		goodSnapshot("ghost", 40000, now),
		goodSnapshot("soc", 40000, now),
	}, now)

	require.Len(t, telemetry, 2)
	assert.Equal(t, "source id missing in config", telemetry[0].Error)
}
