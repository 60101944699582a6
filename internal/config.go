package internal

import (
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/decidoc/internal/citation"
	"github.com/starford/decidoc/internal/settings"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig
	Settings SettingsConfig
	Citation CitationConfig
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Settings.Validate(); err != nil {
		return err
	}
	return c.Citation.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level
}

// SettingsConfig points at the file that remembers the decision-log path.
type SettingsConfig struct {
	File string
}

// Validate validates the settings configuration.
func (c *SettingsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.File, validation.Required),
	)
}

// CitationConfig controls how source URLs are fetched.
type CitationConfig struct {
	Timeout   time.Duration
	UserAgent string
}

// Validate validates the citation configuration.
func (c *CitationConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Millisecond), validation.Max(time.Minute)),
		validation.Field(&c.UserAgent, validation.Required),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
// Settings.File is left empty when the home directory cannot be resolved.
func NewDefaultConfig() *Config {
	file, _ := settings.DefaultFile()
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelWarn,
		},
		Settings: SettingsConfig{
			File: file,
		},
		Citation: CitationConfig{
			Timeout:   citation.DefaultTimeout,
			UserAgent: citation.DefaultUserAgent,
		},
	}
}
