// Package settings persists the path of the decision log between
// invocations in a one-key TOML file.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/decidoc/internal/apperr"
	pkgconfig "github.com/starford/decidoc/pkg/config"
)

// Settings is the content of the settings file.
type Settings struct {
	LogPath string `toml:"decision_log_path"`
}

// Validate validates the settings.
func (s *Settings) Validate() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.LogPath, validation.Required),
	)
}

// DefaultFile returns ~/.decidoc/config.toml.
func DefaultFile() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("settings: resolve home dir: %w", err)
	}
	return filepath.Join(home, ".decidoc", "config.toml"), nil
}

// Store reads and writes one settings file.
type Store struct {
	file string
}

// NewStore creates a Store backed by file.
func NewStore(file string) *Store {
	return &Store{file: file}
}

// File returns the settings file location.
func (s *Store) File() string {
	return s.file
}

// LogPath returns the stored decision-log path. It returns an error
// wrapping apperr.ErrNotConfigured when nothing has been stored yet.
func (s *Store) LogPath() (string, error) {
	var st Settings
	if err := pkgconfig.Load(s.file, &st, pkgconfig.WithoutEnvExpansion()); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", apperr.ErrNotConfigured
		}
		return "", fmt.Errorf("settings: %w", err)
	}
	return st.LogPath, nil
}

// SetLogPath stores path as the decision-log path.
func (s *Store) SetLogPath(path string) error {
	if err := pkgconfig.Save(s.file, &Settings{LogPath: path}); err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	return nil
}
