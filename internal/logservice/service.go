// Package logservice implements the decision-log operations on top of
// storage, the document splicer and the citation formatter.
package logservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/starford/decidoc/internal/apperr"
	"github.com/starford/decidoc/internal/checksum"
	"github.com/starford/decidoc/internal/citation"
	"github.com/starford/decidoc/internal/document"
	"github.com/starford/decidoc/internal/ident"
	"github.com/starford/decidoc/internal/models"
	"github.com/starford/decidoc/internal/render"
	"github.com/starford/decidoc/internal/settings"
	"github.com/starford/decidoc/internal/storage"
)

// DateLayout is the format of entry dates.
const DateLayout = "2006-01-02"

// AddRequest holds the user-supplied fields of a new entry.
type AddRequest struct {
	Title          string
	Category       string
	Status         string
	Context        string
	Considerations string
	Decision       string
	Motivation     string
	Reflection     string
	Stakeholders   string
	Sources        []string
}

// RollbackResult describes a completed rollback.
type RollbackResult struct {
	ID             string
	RowRemoved     bool
	SectionRemoved bool
}

// Partial reports that only one half of the entry was found and removed.
func (r *RollbackResult) Partial() bool {
	return r.RowRemoved != r.SectionRemoved
}

// ConfirmFunc is asked before an entry is removed. Returning false aborts.
type ConfirmFunc func(id string) (bool, error)

// ProgressFunc is called after each citation is formatted.
type ProgressFunc func(done, total int)

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for entry dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithProgress sets the citation progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(s *Service) { s.progress = fn }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// Service coordinates storage, settings and citation formatting.
// Mutations are serialized so concurrent callers such as MCP tool workers
// never allocate the same identifier.
type Service struct {
	mu        sync.Mutex
	store     storage.Provider
	settings  *settings.Store
	citations *citation.Formatter
	now       func() time.Time
	progress  ProgressFunc
	logger    *slog.Logger
}

// NewService creates a new decision-log service.
func NewService(store storage.Provider, st *settings.Store, citations *citation.Formatter, opts ...Option) *Service {
	s := &Service{
		store:     store,
		settings:  st,
		citations: citations,
		now:       time.Now,
		progress:  func(int, int) {},
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ConfiguredPath returns the stored decision-log path.
func (s *Service) ConfiguredPath() (string, error) {
	return s.settings.LogPath()
}

// ResolvePath returns the log path to operate on. An explicit path is made
// absolute and stored so later commands default to it; otherwise the
// stored path is used.
func (s *Service) ResolvePath(explicit string) (string, error) {
	if explicit == "" {
		return s.settings.LogPath()
	}
	abs, err := filepath.Abs(explicit)
	if err != nil {
		return "", fmt.Errorf("logservice: resolve path: %w", err)
	}
	if err := s.settings.SetLogPath(abs); err != nil {
		return "", err
	}
	s.logger.Debug("stored decision log path", slog.String("path", abs))
	return abs, nil
}

// NormalizePath makes path absolute and ensures a .md extension.
func NormalizePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("logservice: resolve path: %w", err)
	}
	if !strings.HasSuffix(abs, ".md") {
		abs += ".md"
	}
	return abs, nil
}

// Init creates a new decision log from the template and stores its path.
func (s *Service) Init(_ context.Context, path string) (string, error) {
	abs, err := NormalizePath(path)
	if err != nil {
		return "", err
	}
	if err := s.store.Create(abs, []byte(render.Template)); err != nil {
		return "", err
	}
	if err := s.settings.SetLogPath(abs); err != nil {
		return "", err
	}
	s.logger.Info("decision log created", slog.String("path", abs))
	return abs, nil
}

// Add appends a new entry to the log at path and returns it.
func (s *Service) Add(ctx context.Context, path string, req AddRequest) (*models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.read(path)
	if err != nil {
		return nil, err
	}
	doc := document.Parse(raw)
	if !doc.HasTable() {
		return nil, fmt.Errorf("logservice: %s: summary table separator row not found: %w", path, apperr.ErrMalformed)
	}

	status := req.Status
	if strings.TrimSpace(status) == "" {
		status = models.DefaultStatus
	}
	entry := models.Entry{
		ID:             ident.Next(raw),
		Date:           s.now().Format(DateLayout),
		Category:       req.Category,
		Title:          req.Title,
		Status:         status,
		Context:        req.Context,
		Considerations: req.Considerations,
		Decision:       req.Decision,
		Motivation:     req.Motivation,
		Reflection:     req.Reflection,
		Stakeholders:   req.Stakeholders,
	}
	if err := entry.Validate(); err != nil {
		return nil, fmt.Errorf("logservice: invalid entry: %w", err)
	}

	entry.Citations = s.formatCitations(ctx, citation.SplitSources(req.Sources))

	if err := doc.Append(entry); err != nil {
		return nil, err
	}
	if err := s.store.Write(path, []byte(doc.String())); err != nil {
		return nil, err
	}
	s.logger.Info("decision added", slog.String("id", entry.ID), slog.String("path", path))
	return &entry, nil
}

func (s *Service) formatCitations(ctx context.Context, sources []string) []string {
	out := make([]string, 0, len(sources))
	for i, src := range sources {
		out = append(out, s.citations.Format(ctx, src))
		s.progress(i+1, len(sources))
	}
	return out
}

// Rollback removes the most recent entry (the highest identifier) from the
// log at path after confirm approves it. The file is re-read before
// writing and the rollback fails with apperr.ErrConflict if it changed
// while waiting for confirmation.
func (s *Service) Rollback(_ context.Context, path string, confirm ConfirmFunc) (*RollbackResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := s.read(path)
	if err != nil {
		return nil, err
	}
	sum := checksum.Sum([]byte(raw))
	id, ok := ident.Last(raw)
	if !ok {
		return nil, apperr.ErrNothingToRollback
	}

	approved, err := confirm(id)
	if err != nil {
		return nil, err
	}
	if !approved {
		return nil, apperr.ErrAborted
	}

	current, err := s.read(path)
	if err != nil {
		return nil, err
	}
	if checksum.Sum([]byte(current)) != sum {
		return nil, fmt.Errorf("logservice: %s changed during confirmation: %w", path, apperr.ErrConflict)
	}

	doc := document.Parse(raw)
	removal := doc.Remove(id)
	if !removal.RowRemoved && !removal.SectionRemoved {
		line, text := mention(raw, id)
		return nil, fmt.Errorf("logservice: highest identifier %s is only mentioned in text (%s line %d: %q) and has no summary row or section; "+
			"edit that mention to roll back: %w", id, path, line, text, apperr.ErrMalformed)
	}
	if err := s.store.Write(path, []byte(doc.String())); err != nil {
		return nil, err
	}

	res := &RollbackResult{ID: id, RowRemoved: removal.RowRemoved, SectionRemoved: removal.SectionRemoved}
	if res.Partial() {
		s.logger.Warn("partial rollback",
			slog.String("id", id),
			slog.Bool("row_removed", res.RowRemoved),
			slog.Bool("section_removed", res.SectionRemoved))
	}
	s.logger.Info("decision rolled back", slog.String("id", id), slog.String("path", path))
	return res, nil
}

// List returns the summary rows of the log at path.
func (s *Service) List(_ context.Context, path string) ([]models.Summary, error) {
	raw, err := s.read(path)
	if err != nil {
		return nil, err
	}
	doc := document.Parse(raw)
	if !doc.HasTable() {
		return nil, fmt.Errorf("logservice: %s: summary table separator row not found: %w", path, apperr.ErrMalformed)
	}
	return nonNilSlice(doc.Summaries()), nil
}

// Get returns the markdown of one entry's details section. id may be given
// loosely ("7", "k-7").
func (s *Service) Get(_ context.Context, path, id string) (string, error) {
	canonical, err := ident.Canonical(id)
	if err != nil {
		return "", fmt.Errorf("logservice: %w", err)
	}
	raw, err := s.read(path)
	if err != nil {
		return "", err
	}
	md, ok := document.Parse(raw).Section(canonical)
	if !ok {
		return "", fmt.Errorf("logservice: decision %s: %w", canonical, apperr.ErrNotFound)
	}
	return md, nil
}

// mention returns the 1-based number and trimmed text of the first line
// containing id not followed by another digit.
func mention(raw, id string) (int, string) {
	for i, line := range strings.Split(raw, "\n") {
		rest := line
		for {
			j := strings.Index(rest, id)
			if j < 0 {
				break
			}
			after := rest[j+len(id):]
			if after == "" || after[0] < '0' || after[0] > '9' {
				return i + 1, strings.TrimSpace(line)
			}
			rest = after
		}
	}
	return 0, ""
}

func (s *Service) read(path string) (string, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return "", fmt.Errorf("logservice: decision log %s: %w", path, apperr.ErrNotFound)
		}
		return "", err
	}
	return string(data), nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
