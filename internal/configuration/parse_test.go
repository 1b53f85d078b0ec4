package configuration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exampleConfig = `
# Board profile for testing
INTERVAL=2
CONTROL_MODE=user
PWM_PATH=/sys/class/hwmon/hwmon2/pwm1
PWM_ENABLE_PATH=/sys/class/hwmon/hwmon2/pwm1_enable
CONTROL_MODE_PATH=/sys/class/thermal/thermal_zone0/mode
PWM_MIN=0
PWM_MAX=255
PWM_INVERTED=0
PWM_STARTUP=96
RAMP_UP=5
RAMP_DOWN=10
HYSTERESIS_MC=2000
FAILSAFE_PWM=64

SOURCE_soc=type=sysfs,path=/sys/class/thermal/thermal_zone0/temp,t_start=60000,t_full=82000,t_crit=90000,ttl=6,poll=1,weight=100
SOURCE_modem=type=ubus,object=qmodem,method=get_temperature,key=temp_mC,args={"config_section":"2_1"},t_start=58000,t_full=76000,t_crit=85000,ttl=20,poll=10,weight=130
`

func TestParse(t *testing.T) {
	// GIVEN
	// WHEN
	config, err := Parse(exampleConfig)

	// THEN
	require.NoError(t, err)
	assert.Equal(t, 2, config.IntervalSec)
	assert.Equal(t, ControlModeUser, config.ControlMode)
	assert.Equal(t, 96, config.PwmStartup)
	require.Len(t, config.Sources, 2)

	soc := config.Sources[0]
	assert.Equal(t, "soc", soc.ID)
	assert.Equal(t, SourceTypeSysfs, soc.Type)
	assert.Equal(t, "/sys/class/thermal/thermal_zone0/temp", soc.Path)
	assert.Equal(t, 100, soc.Weight)

	modem := config.Sources[1]
	assert.Equal(t, SourceTypeUbus, modem.Type)
	assert.Equal(t, "qmodem", modem.Object)
	assert.Equal(t, "get_temperature", modem.Method)
	assert.Equal(t, "temp_mC", modem.Key)
	assert.JSONEq(t, `{"config_section":"2_1"}`, modem.ArgsJSON)
}

func TestParse_ArgsWithCommaSurvivesSplit(t *testing.T) {
	config, err := Parse(`
PWM_PATH=/sys/class/hwmon/hwmon2/pwm1
SOURCE_m=type=ubus,object=o,method=m,key=k,args={"a":1,"b":"x#y"},ttl=4,poll=2
`)

	require.NoError(t, err)
	require.Len(t, config.Sources, 1)
	assert.JSONEq(t, `{"a":1,"b":"x#y"}`, config.Sources[0].ArgsJSON)
}

func TestParse_InlineComment(t *testing.T) {
	config, err := Parse(`
PWM_PATH=/sys/class/hwmon/hwmon2/pwm1 # the fan header
SOURCE_soc=type=sysfs,path=/sys/class/thermal/thermal_zone0/temp # soc zone
`)

	require.NoError(t, err)
	assert.Equal(t, "/sys/class/hwmon/hwmon2/pwm1", config.PwmPath)
}

func TestParse_UnknownKey(t *testing.T) {
	_, err := Parse("PWM_PTH=/sys/class/hwmon/hwmon2/pwm1\nSOURCE_soc=type=sysfs,path=/tmp/t\n")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown top-level key")
}

func TestParse_DuplicateKey(t *testing.T) {
	_, err := Parse(`
PWM_PATH=/sys/class/hwmon/hwmon2/pwm1
INTERVAL=1
INTERVAL=2
SOURCE_soc=type=sysfs,path=/sys/class/thermal/thermal_zone0/temp
`)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate top-level key")
}

func TestParse_DuplicateSourceField(t *testing.T) {
	_, err := Parse(`
PWM_PATH=/sys/class/hwmon/hwmon2/pwm1
SOURCE_soc=type=sysfs,path=/tmp/a,path=/tmp/b
`)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate source field")
}

func TestParse_TtlFallback(t *testing.T) {
	// GIVEN a source without ttl, poll 10s and a 2s loop interval
	config, err := Parse(`
INTERVAL=2
PWM_PATH=/sys/class/hwmon/hwmon2/pwm1
SOURCE_a=type=sysfs,path=/tmp/a,poll=10
SOURCE_b=type=sysfs,path=/tmp/b
`)

	// THEN ttl falls back to twice the larger of poll and interval
	require.NoError(t, err)
	assert.Equal(t, 20, config.Sources[0].TTLSec)
	assert.Equal(t, 2, config.Sources[1].PollSec)
	assert.Equal(t, 4, config.Sources[1].TTLSec)
}

func TestParse_MissingType(t *testing.T) {
	_, err := Parse(`
PWM_PATH=/sys/class/hwmon/hwmon2/pwm1
SOURCE_soc=path=/tmp/a
`)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required field: type")
}

func TestParse_UnknownSourceField(t *testing.T) {
	_, err := Parse(`
PWM_PATH=/sys/class/hwmon/hwmon2/pwm1
SOURCE_soc=type=sysfs,path=/tmp/a,object=nope
`)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown field")
}

func TestRender_RoundTrip(t *testing.T) {
	// GIVEN
	original, err := Parse(exampleConfig)
	require.NoError(t, err)

	// WHEN
	rendered := Render(original)
	reparsed, err := Parse(rendered)

	// THEN
	require.NoError(t, err)
	assert.Equal(t, original, reparsed)
}

func TestRender_RoundTripStableWithoutEnablePath(t *testing.T) {
	// GIVEN a validated profile that was created without an enable register
	config := Default()
	config.PwmEnablePath = ""
	require.NoError(t, Validate(&config))

	// WHEN rendering, reloading and rendering again
	rendered := Render(&config)
	reparsed, err := Parse(rendered)
	require.NoError(t, err)
	rerendered := Render(reparsed)

	// THEN the documents are identical
	assert.Equal(t, rendered, rerendered)
	assert.Equal(t, config.PwmPath+"_enable", reparsed.PwmEnablePath)
}

func TestDefault_IsValid(t *testing.T) {
	config := Default()

	err := Validate(&config)

	require.NoError(t, err)
	assert.Len(t, config.Sources, 3)
}
