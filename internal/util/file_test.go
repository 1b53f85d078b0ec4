package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadIntFromFile(t *testing.T) {
	// GIVEN
	path := filepath.Join(t.TempDir(), "temp1_input")
	require.NoError(t, os.WriteFile(path, []byte("52000\n"), 0644))

	// WHEN
	value, err := ReadIntFromFile(path)

	// THEN
	require.NoError(t, err)
	assert.Equal(t, 52000, value)
}

func TestReadIntFromFile_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.WriteFile(path, []byte(""), 0644))

	_, err := ReadIntFromFile(path)

	assert.Error(t, err)
}

func TestReadIntFromFile_Missing(t *testing.T) {
	_, err := ReadIntFromFile(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestWriteIntToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pwm1")

	err := WriteIntToFile(128, path)

	require.NoError(t, err)
	value, err := ReadIntFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 128, value)
}

func TestReadTextFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mode")
	require.NoError(t, os.WriteFile(path, []byte("enabled\n"), 0644))

	value, err := ReadTextFromFile(path)

	require.NoError(t, err)
	assert.Equal(t, "enabled", value)
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "status.json")

	err := WriteFileAtomic(path, []byte(`{"ok":1}`))

	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":1}`, string(data))
}
