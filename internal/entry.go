// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/starford/decidoc/internal/apperr"
	"github.com/starford/decidoc/internal/citation"
	"github.com/starford/decidoc/internal/console"
	"github.com/starford/decidoc/internal/logservice"
	"github.com/starford/decidoc/internal/mcpserver"
	"github.com/starford/decidoc/internal/models"
	"github.com/starford/decidoc/internal/settings"
	"github.com/starford/decidoc/internal/storage"
)

// List output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

const wordWrap = 100

// App runs decidoc commands against one configuration.
type App struct {
	cfg      *Config
	logger   *slog.Logger
	console  *console.Console
	settings *settings.Store
	svc      *logservice.Service
	in       io.Reader
	out      io.Writer
}

// New builds an App from the given options.
func New(opts ...Option) (*App, error) {
	app := &application{
		in:     os.Stdin,
		out:    os.Stdout,
		errOut: os.Stderr,
	}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	cfg := app.config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// stdout belongs to command output, so logs go to stderr.
	logger := slog.New(slog.NewTextHandler(app.errOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))

	logger.Debug("Configuration loaded",
		slog.String("settings_file", cfg.Settings.File),
		slog.Duration("citation_timeout", cfg.Citation.Timeout),
		slog.String("log_level", cfg.App.LogLevel.String()))

	fetcher := app.fetcher
	if fetcher == nil {
		fetcher = citation.NewHTTPFetcher(cfg.Citation.Timeout, cfg.Citation.UserAgent)
	}

	con := console.New(app.in, app.out, app.errOut)
	st := settings.NewStore(cfg.Settings.File)

	svcOpts := []logservice.Option{
		logservice.WithLogger(logger),
		logservice.WithProgress(func(done, total int) {
			con.Progress("Fetching sources", done, total)
		}),
	}
	if app.now != nil {
		svcOpts = append(svcOpts, logservice.WithClock(app.now))
	}

	svc := logservice.NewService(storage.NewFS(), st, citation.NewFormatter(fetcher, logger), svcOpts...)

	return &App{
		cfg:      cfg,
		logger:   logger,
		console:  con,
		settings: st,
		svc:      svc,
		in:       app.in,
		out:      app.out,
	}, nil
}

// Init creates a new decision log at path.
func (a *App) Init(ctx context.Context, path string) error {
	abs, err := a.svc.Init(ctx, path)
	if err != nil {
		return err
	}
	a.console.Success("Decision log created at %s", abs)
	return nil
}

// Add appends a decision to the log at path, or the configured log when
// path is empty.
func (a *App) Add(ctx context.Context, path string, req logservice.AddRequest) error {
	resolved, err := a.svc.ResolvePath(path)
	if err != nil {
		return err
	}
	entry, err := a.svc.Add(ctx, resolved, req)
	if err != nil {
		return err
	}
	a.console.Success("Decision %s added to %s", entry.ID, resolved)
	return nil
}

// Rollback removes the most recent decision. Unless yes is set the user
// is asked to confirm first. An empty log is reported as a warning.
func (a *App) Rollback(ctx context.Context, path string, yes bool) error {
	resolved, err := a.svc.ResolvePath(path)
	if err != nil {
		return err
	}

	confirm := func(id string) (bool, error) {
		if yes {
			return true, nil
		}
		return a.console.Confirm(fmt.Sprintf("Remove decision %s from %s?", id, resolved))
	}

	res, err := a.svc.Rollback(ctx, resolved, confirm)
	if errors.Is(err, apperr.ErrNothingToRollback) {
		a.console.Warn("No decisions found to roll back.")
		return nil
	}
	if err != nil {
		return err
	}

	if res.Partial() {
		switch {
		case res.RowRemoved:
			a.console.Warn("Decision %s had no details section; only its summary row was removed.", res.ID)
		default:
			a.console.Warn("Decision %s had no summary row; only its details section was removed.", res.ID)
		}
	}
	a.console.Success("Decision %s removed.", res.ID)
	return nil
}

// ShowConfig prints the configured decision-log path.
func (a *App) ShowConfig() error {
	path, err := a.svc.ConfiguredPath()
	if errors.Is(err, apperr.ErrNotConfigured) {
		a.console.Warn("No decision log configured. Run 'decidoc init <path>' first.")
		return nil
	}
	if err != nil {
		return err
	}
	a.console.Info("Decision log: %s", path)
	a.console.Info("Settings file: %s", a.settings.File())
	return nil
}

// List prints the summary table in the given format.
func (a *App) List(ctx context.Context, path, format string) error {
	resolved, err := a.svc.ResolvePath(path)
	if err != nil {
		return err
	}
	items, err := a.svc.List(ctx, resolved)
	if err != nil {
		return err
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	case FormatYAML:
		enc := yaml.NewEncoder(a.out)
		enc.SetIndent(2)
		if err := enc.Encode(items); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case FormatTable, "":
		if len(items) == 0 {
			a.console.Info("No decisions yet.")
			return nil
		}
		fmt.Fprintln(a.out, summaryTable(items))
		return nil
	default:
		return fmt.Errorf("unknown format %q (want %s, %s or %s)", format, FormatTable, FormatJSON, FormatYAML)
	}
}

func summaryTable(items []models.Summary) string {
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "Date", "Category", "Title", "Status").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	for _, s := range items {
		t.Row(s.ID, s.Date, s.Category, s.Title, s.Status)
	}
	return t.Render()
}

// Show prints one decision's details section. Unless raw is set the
// markdown is rendered for the terminal.
func (a *App) Show(ctx context.Context, path, id string, raw bool) error {
	resolved, err := a.svc.ResolvePath(path)
	if err != nil {
		return err
	}
	md, err := a.svc.Get(ctx, resolved, id)
	if err != nil {
		return err
	}

	if raw {
		fmt.Fprintln(a.out, md)
		return nil
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wordWrap),
	)
	if err != nil {
		return fmt.Errorf("create renderer: %w", err)
	}
	rendered, err := r.Render(md)
	if err != nil {
		return fmt.Errorf("render decision: %w", err)
	}
	fmt.Fprint(a.out, rendered)
	return nil
}

// ServeMCP serves the decision log over MCP on stdin/stdout until the
// input closes or the process is signalled.
func (a *App) ServeMCP(ctx context.Context, path string) error {
	resolved, err := a.svc.ResolvePath(path)
	if err != nil {
		return err
	}

	srv := mcpserver.New(a.svc, resolved, a.logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.logger.Info("MCP server starting", slog.String("path", resolved))

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		if err := srv.ServeStdio(gCtx, a.in, a.out); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("MCP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			a.logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
			cancel()
		case <-gCtx.Done():
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		a.logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	a.logger.Info("MCP server stopped")
	return nil
}

// ReportError prints err as a user-facing message.
func (a *App) ReportError(err error) {
	ReportError(a.console, err)
}

// ReportError prints err on con, with a hint for the common failures.
func ReportError(con *console.Console, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotConfigured):
		con.Error("No decision log configured. Run 'decidoc init <path>' first or pass --path.")
	case errors.Is(err, apperr.ErrAlreadyExists):
		con.Error("A decision log already exists there: %v", err)
	case errors.Is(err, apperr.ErrMalformed):
		con.Error("The decision log is not in the expected format: %v", err)
	case errors.Is(err, apperr.ErrAborted):
		con.Error("Rollback cancelled.")
	case errors.Is(err, apperr.ErrConflict):
		con.Error("The decision log changed while waiting for confirmation; nothing was removed.")
	default:
		con.Error("%v", err)
	}
}
