package configuration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ToJSON renders a board profile as an indented JSON document for the
// configuration UI and the status command.
func ToJSON(config *Config) ([]byte, error) {
	return json.MarshalIndent(config, "", "  ")
}

// FromJSON decodes a profile submitted by the configuration UI. Absent keys
// keep their defaults, but a submitted "sources" array replaces the default
// sources entirely. Unknown keys are rejected so typos do not silently turn
// into defaults.
func FromJSON(data []byte) (*Config, error) {
	config := Default()

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("invalid config JSON: %w", err)
	}

	if err := Validate(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// ApplyJSON validates a JSON profile and atomically replaces the config file
// at path with its rendered text form. On any error the existing file is left
// untouched. The rendered text is parsed back before the rename so the file
// that lands on disk is known to load.
func ApplyJSON(path string, data []byte) (*Config, error) {
	config, err := FromJSON(data)
	if err != nil {
		return nil, err
	}

	rendered := Render(config)
	reparsed, err := Parse(rendered)
	if err != nil {
		return nil, fmt.Errorf("rendered config failed to reload: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*")
	if err != nil {
		return nil, fmt.Errorf("cannot create temp config: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err = tmp.WriteString(rendered); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("cannot write temp config: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("cannot sync temp config: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return nil, fmt.Errorf("cannot close temp config: %w", err)
	}

	if err = os.Chmod(tmpPath, 0644); err != nil {
		return nil, fmt.Errorf("cannot chmod temp config: %w", err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return nil, fmt.Errorf("cannot move config into place: %w", err)
	}

	return reparsed, nil
}
