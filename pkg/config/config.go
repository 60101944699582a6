// Package config provides TOML-based configuration loading with environment variable expansion.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Validator is an interface for configuration validation.
type Validator interface {
	Validate() error
}

// LoadOption configures Load.
type LoadOption func(*loadOptions)

type loadOptions struct {
	expandEnv bool
}

// WithoutEnvExpansion reads values literally, so a "$" in a stored value
// survives a Save/Load round trip.
func WithoutEnvExpansion() LoadOption {
	return func(o *loadOptions) {
		o.expandEnv = false
	}
}

// Load loads configuration from a TOML file with environment variable expansion.
func Load[T any](filename string, target *T, opts ...LoadOption) error {
	o := loadOptions{expandEnv: true}
	for _, opt := range opts {
		opt(&o)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	if o.expandEnv {
		data = []byte(os.ExpandEnv(string(data)))
	}

	if err := toml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	if validator, ok := any(target).(Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}

	return nil
}

// Save validates source and writes it to filename as TOML, creating the
// parent directory when needed.
func Save[T any](filename string, source *T) error {
	if validator, ok := any(source).(Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}

	data, err := toml.Marshal(source)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", filename, err)
	}
	return nil
}
