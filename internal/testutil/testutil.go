// Package testutil provides shared test helpers for setting up decision logs.
package testutil

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/starford/decidoc/internal/citation"
	"github.com/starford/decidoc/internal/render"
	"github.com/starford/decidoc/internal/settings"
	"github.com/starford/decidoc/internal/storage"
)

// Fetcher is a citation.Fetcher that answers from a map and records calls.
// URLs missing from Pages fail.
type Fetcher struct {
	Pages map[string]*citation.Metadata
	Calls []string
}

// Fetch implements citation.Fetcher.
func (f *Fetcher) Fetch(_ context.Context, rawURL string) (*citation.Metadata, error) {
	f.Calls = append(f.Calls, rawURL)
	if m, ok := f.Pages[rawURL]; ok {
		return m, nil
	}
	return nil, errors.New("testutil: no such page")
}

// TestSettings creates a settings store in a temporary directory.
func TestSettings(t *testing.T) *settings.Store {
	t.Helper()
	return settings.NewStore(filepath.Join(t.TempDir(), ".decidoc", "config.toml"))
}

// TestLog writes a fresh decision log from the template into a temporary
// directory and returns its path with the storage provider.
func TestLog(t *testing.T) (string, storage.Provider) {
	t.Helper()
	store := storage.NewFS()
	path := filepath.Join(t.TempDir(), "decisions.md")
	if err := store.Create(path, []byte(render.Template)); err != nil {
		t.Fatal(err)
	}
	return path, store
}
