package configuration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTestConfig() Config {
	config := Default()
	config.Sources = []SourceConfig{
		{
			ID:           "soc",
			Type:         SourceTypeSysfs,
			Path:         "/sys/class/thermal/thermal_zone0/temp",
			TStartMilliC: 60000,
			TFullMilliC:  80000,
			TCritMilliC:  90000,
			TTLSec:       6,
			PollSec:      1,
			Weight:       100,
		},
	}
	return config
}

func TestValidate_Ok(t *testing.T) {
	config := validTestConfig()

	err := Validate(&config)

	assert.NoError(t, err)
}

func TestValidate_NormalizesControlMode(t *testing.T) {
	config := validTestConfig()
	config.ControlMode = " Kernel "

	err := Validate(&config)

	require.NoError(t, err)
	assert.Equal(t, ControlModeKernel, config.ControlMode)
}

func TestValidate_DefaultsEmptyPwmEnablePath(t *testing.T) {
	// GIVEN a profile without an enable register path
	config := validTestConfig()
	config.PwmEnablePath = "   "

	// WHEN
	err := Validate(&config)

	// THEN the conventional sibling register is filled in
	require.NoError(t, err)
	assert.Equal(t, config.PwmPath+"_enable", config.PwmEnablePath)
}

func TestValidate_RejectsUnknownControlMode(t *testing.T) {
	config := validTestConfig()
	config.ControlMode = "auto"

	err := Validate(&config)

	assert.Error(t, err)
}

func TestValidate_RejectsPwmMinAboveMax(t *testing.T) {
	config := validTestConfig()
	config.PwmMin = 200
	config.PwmMax = 100

	err := Validate(&config)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "PWM_MIN")
}

func TestValidate_RejectsIdWithSpace(t *testing.T) {
	config := validTestConfig()
	config.Sources[0].ID = "soc temp"

	err := Validate(&config)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid source id")
}

func TestValidate_RejectsDuplicateId(t *testing.T) {
	config := validTestConfig()
	second := config.Sources[0]
	second.Path = "/sys/class/thermal/thermal_zone1/temp"
	config.Sources = append(config.Sources, second)

	err := Validate(&config)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate source id")
}

func TestValidate_RejectsSharedResource(t *testing.T) {
	// GIVEN two sources reading the same sysfs file
	config := validTestConfig()
	second := config.Sources[0]
	second.ID = "soc2"
	config.Sources = append(config.Sources, second)

	// WHEN
	err := Validate(&config)

	// THEN
	require.Error(t, err)
	assert.Contains(t, err.Error(), "same resource")
}

func TestValidate_SharedUbusResourceDetectedAcrossArgsSpelling(t *testing.T) {
	config := validTestConfig()
	config.Sources = append(config.Sources,
		SourceConfig{
			ID: "m1", Type: SourceTypeUbus,
			Object: "qmodem", Method: "get_temperature", Key: "temp_mC",
			ArgsJSON:     `{"config_section":"2_1"}`,
			TStartMilliC: 58000, TFullMilliC: 76000, TCritMilliC: 85000,
			TTLSec: 20, PollSec: 10, Weight: 100,
		},
		SourceConfig{
			ID: "m2", Type: SourceTypeUbus,
			Object: "qmodem", Method: "get_temperature", Key: "temp_mC",
			ArgsJSON:     `{ "config_section" : "2_1" }`,
			TStartMilliC: 58000, TFullMilliC: 76000, TCritMilliC: 85000,
			TTLSec: 20, PollSec: 10, Weight: 100,
		})

	err := Validate(&config)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "same resource")
}

func TestValidate_RejectsTtlBelowPoll(t *testing.T) {
	config := validTestConfig()
	config.Sources[0].TTLSec = 1
	config.Sources[0].PollSec = 5

	err := Validate(&config)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ttl must be >= poll")
}

func TestValidate_RejectsBadThresholdOrder(t *testing.T) {
	config := validTestConfig()
	config.Sources[0].TStartMilliC = 80000
	config.Sources[0].TFullMilliC = 80000

	err := Validate(&config)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "t_start < t_full <= t_crit")
}

func TestValidate_CanonicalizesSysfsPath(t *testing.T) {
	config := validTestConfig()
	config.Sources[0].Path = "/sys/class/thermal/../thermal/thermal_zone0/temp"

	err := Validate(&config)

	require.NoError(t, err)
	assert.Equal(t, "/sys/class/thermal/thermal_zone0/temp", config.Sources[0].Path)
}

func TestValidate_RejectsRelativeSysfsPath(t *testing.T) {
	config := validTestConfig()
	config.Sources[0].Path = "thermal_zone0/temp"

	err := Validate(&config)

	assert.Error(t, err)
}

func TestValidate_UbusRequiresObjectMethodKey(t *testing.T) {
	config := validTestConfig()
	config.Sources[0] = SourceConfig{
		ID: "m", Type: SourceTypeUbus,
		Object: "qmodem", Method: "", Key: "temp_mC",
		TStartMilliC: 58000, TFullMilliC: 76000, TCritMilliC: 85000,
		TTLSec: 20, PollSec: 10, Weight: 100,
	}

	err := Validate(&config)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "object, method and key")
}

func TestValidate_ClearsCrossTypeFields(t *testing.T) {
	config := validTestConfig()
	config.Sources[0].Object = "leftover"

	err := Validate(&config)

	require.NoError(t, err)
	assert.Empty(t, config.Sources[0].Object)
}

func TestValidate_RejectsEmptySourceList(t *testing.T) {
	config := validTestConfig()
	config.Sources = nil

	err := Validate(&config)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one temperature source")
}

func TestValidate_RejectsWeightOutOfRange(t *testing.T) {
	config := validTestConfig()
	config.Sources[0].Weight = 500

	err := Validate(&config)

	assert.Error(t, err)
}
