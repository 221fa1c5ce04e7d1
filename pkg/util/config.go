// Package util provides configuration loading for displaywatcher.
package util

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/supporttools/displaywatcher/pkg/types"
	"gopkg.in/yaml.v3"
)

// DefaultProbeCommand is where the display positioner is usually installed.
const DefaultProbeCommand = "/usr/local/bin/displaypositioner"

// LoadEnvFiles loads KEY=VALUE files into the process environment so that
// ${VAR} references in the configuration (typically smtp.password) can be
// kept out of the YAML. Variables already set in the environment win.
func LoadEnvFiles(files ...string) error {
	var paths []string
	for _, f := range files {
		if f != "" {
			paths = append(paths, f)
		}
	}
	if len(paths) == 0 {
		return nil
	}

	if err := godotenv.Load(paths...); err != nil {
		return types.NewError(types.ErrorKindConfig, "load env file", err)
	}
	return nil
}

// LoadConfig loads configuration from a file (YAML or JSON).
// The file format is determined by extension (.yaml, .yml, .json).
// Environment variables are substituted, defaults are applied, and validation is performed.
// Every failure is returned as a config-kind *types.Error.
func LoadConfig(path string) (*types.WatcherConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.NewError(types.ErrorKindConfig, "load config",
			fmt.Errorf("failed to read config file %s: %w", path, err))
	}

	// Substitute environment variables in raw data BEFORE parsing
	// so they also work in non-string fields (e.g. port: ${SMTP_PORT})
	data = []byte(expandEnv(string(data)))

	var config types.WatcherConfig

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	case ".json":
		err = json.Unmarshal(data, &config)
	default:
		err = yaml.Unmarshal(data, &config)
		if err != nil {
			err = json.Unmarshal(data, &config)
		}
	}
	if err != nil {
		return nil, types.NewError(types.ErrorKindConfig, "load config",
			fmt.Errorf("failed to parse config file %s: %w", path, err))
	}

	if err := config.ApplyDefaults(); err != nil {
		return nil, types.NewError(types.ErrorKindConfig, "load config",
			fmt.Errorf("failed to apply defaults: %w", err))
	}

	if err := config.Validate(); err != nil {
		return nil, types.NewError(types.ErrorKindConfig, "load config",
			fmt.Errorf("configuration validation failed: %w", err))
	}

	return &config, nil
}

// expandEnv replaces ${VAR} and $VAR with environment values. "$$" stands
// for a literal "$". Values taken from the environment are not expanded again.
func expandEnv(s string) string {
	return os.Expand(s, func(name string) string {
		if name == "$" {
			return "$"
		}
		return os.Getenv(name)
	})
}

// LoadConfigOrDefault loads configuration from a file, or returns default if file doesn't exist.
func LoadConfigOrDefault(path string) (*types.WatcherConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig()
	}
	return LoadConfig(path)
}

// DefaultConfig returns a configuration that probes the display positioner,
// keeps notifications disabled and writes nothing but the counter file.
func DefaultConfig() (*types.WatcherConfig, error) {
	config := &types.WatcherConfig{
		APIVersion: types.DefaultAPIVersion,
		Kind:       types.DefaultKind,
		Probe: types.ProbeConfig{
			Command: DefaultProbeCommand,
			Args:    []string{"-p"},
		},
		Notification: types.NotificationConfig{
			Enabled: false,
		},
	}

	if err := config.ApplyDefaults(); err != nil {
		return nil, types.NewError(types.ErrorKindConfig, "default config",
			fmt.Errorf("failed to apply defaults: %w", err))
	}

	if err := config.Validate(); err != nil {
		return nil, types.NewError(types.ErrorKindConfig, "default config",
			fmt.Errorf("default config validation failed: %w", err))
	}

	return config, nil
}

// SaveConfig saves configuration to a file (YAML or JSON based on extension).
func SaveConfig(config *types.WatcherConfig, path string) error {
	var data []byte
	var err error

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(config)
	case ".json":
		data, err = json.MarshalIndent(config, "", "  ")
	default:
		return fmt.Errorf("unsupported file extension: %s (use .yaml, .yml, or .json)", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// The file may carry SMTP credentials.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
