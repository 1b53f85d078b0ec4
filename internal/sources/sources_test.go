package sources

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/markusressel/fancontrol/internal/configuration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sysfsTestConfig(t *testing.T, content string) configuration.SourceConfig {
	t.Helper()
	path := filepath.Join(t.TempDir(), "temp1_input")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return configuration.SourceConfig{
		ID:      "soc",
		Type:    configuration.SourceTypeSysfs,
		Path:    path,
		PollSec: 1,
		TTLSec:  6,
	}
}

func TestSysfsSource(t *testing.T) {
	// GIVEN
	source, err := NewSource(sysfsTestConfig(t, "52000\n"))
	require.NoError(t, err)

	// WHEN
	value, err := source.Read()

	// THEN
	require.NoError(t, err)
	assert.Equal(t, 52000, value)
}

func TestSysfsSource_MissingFile(t *testing.T) {
	source, err := NewSource(configuration.SourceConfig{
		ID:   "gone",
		Type: configuration.SourceTypeSysfs,
		Path: filepath.Join(t.TempDir(), "nope"),
	})
	require.NoError(t, err)

	_, err = source.Read()

	assert.Error(t, err)
}

func ubusTestSource(response string, callErr error) *UbusSource {
	return &UbusSource{
		Config: configuration.SourceConfig{
			ID:       "modem",
			Type:     configuration.SourceTypeUbus,
			Object:   "qmodem",
			Method:   "get_temperature",
			Key:      "temp_mC",
			ArgsJSON: `{"config_section":"2_1"}`,
			PollSec:  10,
		},
		CallFn: func(timeout time.Duration, object string, method string, args string) (string, error) {
			return response, callErr
		},
	}
}

func TestUbusSource(t *testing.T) {
	source := ubusTestSource(`{"temp_mC": 45200}`, nil)

	value, err := source.Read()

	require.NoError(t, err)
	assert.Equal(t, 45200, value)
}

func TestUbusSource_StringDegrees(t *testing.T) {
	source := ubusTestSource(`{"temp_mC": "45.2°C"}`, nil)

	value, err := source.Read()

	require.NoError(t, err)
	assert.Equal(t, 45200, value)
}

func TestUbusSource_StringBareDecimal(t *testing.T) {
	source := ubusTestSource(`{"temp_mC": "45.2"}`, nil)

	value, err := source.Read()

	require.NoError(t, err)
	assert.Equal(t, 45200, value)
}

func TestUbusSource_StringMilliCelsius(t *testing.T) {
	source := ubusTestSource(`{"temp_mC": "45200 mC"}`, nil)

	value, err := source.Read()

	require.NoError(t, err)
	assert.Equal(t, 45200, value)
}

func TestUbusSource_StringBareInteger(t *testing.T) {
	source := ubusTestSource(`{"temp_mC": "45200"}`, nil)

	value, err := source.Read()

	require.NoError(t, err)
	assert.Equal(t, 45200, value)
}

func TestUbusSource_MissingKey(t *testing.T) {
	source := ubusTestSource(`{"other": 1}`, nil)

	_, err := source.Read()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestUbusSource_CallError(t *testing.T) {
	source := ubusTestSource("", errors.New("Connection failed"))

	_, err := source.Read()

	assert.Error(t, err)
}

func TestUbusSource_CallTimeoutClamped(t *testing.T) {
	source := ubusTestSource(`{"temp_mC": 1}`, nil)

	source.Config.PollSec = 120
	assert.Equal(t, 10*time.Second, source.callTimeout())

	source.Config.PollSec = 0
	assert.Equal(t, 1*time.Second, source.callTimeout())

	source.Config.PollSec = 5
	assert.Equal(t, 5*time.Second, source.callTimeout())
}

func TestTrackedSource_LastGoodSurvivesFailedPoll(t *testing.T) {
	// GIVEN a source that polled fine once
	tracked := NewTrackedSource(ubusTestSource(`{"temp_mC": 45200}`, nil))
	goodTime := time.Now()
	tracked.Record(45200, nil, goodTime)

	// WHEN the next poll fails
	tracked.Record(0, errors.New("read failed"), goodTime.Add(time.Second))

	// THEN the good sample is still available
	snapshot := tracked.Snapshot()
	assert.True(t, snapshot.HasPolled)
	assert.False(t, snapshot.LastOK)
	assert.True(t, snapshot.HasGood)
	assert.Equal(t, 45200, snapshot.GoodTempMilliC)
	assert.Equal(t, goodTime, snapshot.GoodAt)
}

func TestTrackedSource_PollRecoversFromPanic(t *testing.T) {
	tracked := NewTrackedSource(&UbusSource{
		Config: configuration.SourceConfig{ID: "panicky", Type: configuration.SourceTypeUbus},
		CallFn: func(timeout time.Duration, object string, method string, args string) (string, error) {
			panic("boom")
		},
	})

	tracked.Poll(time.Now())

	snapshot := tracked.Snapshot()
	assert.True(t, snapshot.HasPolled)
	assert.False(t, snapshot.LastOK)
	assert.Contains(t, snapshot.LastErr, "panicked")
}

func TestManager_PollsAndStops(t *testing.T) {
	// GIVEN
	manager, err := NewManager([]configuration.SourceConfig{sysfsTestConfig(t, "48000\n")})
	require.NoError(t, err)

	// WHEN
	manager.Start(context.Background())
	defer manager.Stop()

	// THEN the first poll happens immediately
	assert.Eventually(t, func() bool {
		snapshots := manager.Snapshots()
		return len(snapshots) == 1 && snapshots[0].LastOK && snapshots[0].LastTempMilliC == 48000
	}, time.Second, 10*time.Millisecond)

	registered, ok := SourceMap.Get("soc")
	require.True(t, ok)
	assert.Equal(t, "soc", registered.GetId())

	manager.Stop()
	_, ok = SourceMap.Get("soc")
	assert.False(t, ok)
}
