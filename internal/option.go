package internal

import (
	"io"
	"time"

	"github.com/starford/decidoc/internal/citation"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	in      io.Reader
	out     io.Writer
	errOut  io.Writer
	fetcher citation.Fetcher
	now     func() time.Time
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithIO sets the terminal streams. Defaults are os.Stdin, os.Stdout and
// os.Stderr.
func WithIO(in io.Reader, out, errOut io.Writer) Option {
	return func(a *application) {
		a.in = in
		a.out = out
		a.errOut = errOut
	}
}

// WithFetcher replaces the HTTP citation fetcher.
func WithFetcher(f citation.Fetcher) Option {
	return func(a *application) {
		a.fetcher = f
	}
}

// WithClock overrides the time source used for entry dates.
func WithClock(now func() time.Time) Option {
	return func(a *application) {
		a.now = now
	}
}
