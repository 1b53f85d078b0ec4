package policy

import (
	"math"
	"testing"

	"github.com/markusressel/fancontrol/internal/configuration"
	"github.com/stretchr/testify/assert"
)

func demandTestConfig() *configuration.Config {
	config := configuration.Default()
	config.PwmMin = 0
	config.PwmMax = 255
	config.HysteresisMilliC = 2000
	return &config
}

func demandTestSource() configuration.SourceConfig {
	return configuration.SourceConfig{
		ID:           "soc",
		Type:         configuration.SourceTypeSysfs,
		TStartMilliC: 60000,
		TFullMilliC:  82000,
		TCritMilliC:  90000,
		TTLSec:       6,
		PollSec:      1,
		Weight:       100,
	}
}

func TestCoolingDirection(t *testing.T) {
	config := demandTestConfig()
	assert.Equal(t, 0, MinCoolingPwm(config))
	assert.Equal(t, 255, MaxCoolingPwm(config))
	assert.True(t, IsStrongerCooling(config, 200, 100))
	assert.Equal(t, 200, StrongerCooling(config, 100, 200))

	config.PwmInverted = true
	assert.Equal(t, 255, MinCoolingPwm(config))
	assert.Equal(t, 0, MaxCoolingPwm(config))
	assert.True(t, IsStrongerCooling(config, 100, 200))
	assert.Equal(t, 100, StrongerCooling(config, 100, 200))
}

func TestDemandFromSource_BelowOnThresholdStaysIdle(t *testing.T) {
	// GIVEN an inactive source at 61000 mC, on threshold 62000 mC
	config := demandTestConfig()
	source := demandTestSource()
	active := false

	// WHEN
	demand, critical := DemandFromSource(config, source, 61000, &active)

	// THEN the source stays idle
	assert.False(t, active)
	assert.False(t, critical)
	assert.Equal(t, 0, demand)
}

func TestDemandFromSource_ActivatesAboveOnThreshold(t *testing.T) {
	// GIVEN
	config := demandTestConfig()
	source := demandTestSource()
	active := false

	// WHEN the temperature passes t_start + hysteresis
	demand, critical := DemandFromSource(config, source, 63000, &active)

	// THEN the source is active with the proportional demand
	assert.True(t, active)
	assert.False(t, critical)
	expected := int(math.Round((63000.0 - 60000.0) / (82000.0 - 60000.0) * 255.0))
	assert.Equal(t, expected, demand)
}

func TestDemandFromSource_HysteresisDoesNotToggle(t *testing.T) {
	config := demandTestConfig()
	source := demandTestSource()
	active := true

	// temperatures inside the dead band keep the source active
	for _, temp := range []int{61000, 60000, 58500, 61900} {
		DemandFromSource(config, source, temp, &active)
		assert.True(t, active, "temp %d must not deactivate", temp)
	}

	// dropping to t_start - hysteresis deactivates
	demand, _ := DemandFromSource(config, source, 58000, &active)
	assert.False(t, active)
	assert.Equal(t, 0, demand)
}

func TestDemandFromSource_CriticalOverridesHysteresis(t *testing.T) {
	config := demandTestConfig()
	source := demandTestSource()
	active := false

	demand, critical := DemandFromSource(config, source, 90000, &active)

	assert.True(t, critical)
	assert.True(t, active)
	assert.Equal(t, 255, demand)
}

func TestDemandFromSource_WeightScalesDemand(t *testing.T) {
	config := demandTestConfig()
	source := demandTestSource()
	source.Weight = 50
	active := true

	demand, _ := DemandFromSource(config, source, 82000, &active)

	// full ratio halved by the weight
	assert.Equal(t, 128, demand)
}

func TestDemandFromSource_WeightAboveHundredSaturates(t *testing.T) {
	config := demandTestConfig()
	source := demandTestSource()
	source.Weight = 200
	active := true

	demand, _ := DemandFromSource(config, source, 71000, &active)

	// ratio 0.5 * 2.0 caps at full demand
	assert.Equal(t, 255, demand)
}

func TestDemandFromSource_InvertedMapping(t *testing.T) {
	config := demandTestConfig()
	config.PwmInverted = true
	source := demandTestSource()
	active := true

	demand, _ := DemandFromSource(config, source, 82000, &active)
	assert.Equal(t, 0, demand)

	demand, critical := DemandFromSource(config, source, 90000, &active)
	assert.True(t, critical)
	assert.Equal(t, 0, demand)
}

func TestDemandFromSource_RespectsPwmBounds(t *testing.T) {
	config := demandTestConfig()
	config.PwmMin = 40
	config.PwmMax = 200
	source := demandTestSource()
	active := true

	demand, _ := DemandFromSource(config, source, 82000, &active)
	assert.Equal(t, 200, demand)

	demand, _ = DemandFromSource(config, source, 60000, &active)
	assert.Equal(t, 40, demand)
}
