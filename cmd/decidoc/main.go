package main

import (
	"context"
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/decidoc/internal"
	"github.com/starford/decidoc/internal/citation"
	"github.com/starford/decidoc/internal/console"
)

// newApp builds the application from the root flags.
func newApp(cmd *cli.Command) (*internal.App, error) {
	cfg := internal.NewDefaultConfig()

	if file := cmd.String("config"); file != "" {
		cfg.Settings.File = file
	}
	if err := cfg.App.LogLevel.UnmarshalText([]byte(cmd.String("log-level"))); err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}
	cfg.Citation.Timeout = cmd.Duration("timeout")
	cfg.Citation.UserAgent = cmd.String("user-agent")

	app, err := internal.New(internal.WithConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("app init error: %w", err)
	}
	return app, nil
}

func main() {
	cmd := &cli.Command{
		Name:  "decidoc",
		Usage: "Keep a markdown decision log with a summary table and one section per decision",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to the settings file that remembers the decision log",
				DefaultText: "~/.decidoc/config.toml",
				Sources:     cli.EnvVars("DECIDOC_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("DECIDOC_LOG_LEVEL"),
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Usage:   "Timeout for fetching a single source URL",
				Value:   citation.DefaultTimeout,
				Sources: cli.EnvVars("DECIDOC_FETCH_TIMEOUT"),
			},
			&cli.StringFlag{
				Name:    "user-agent",
				Usage:   "User-Agent sent when fetching source URLs",
				Value:   citation.DefaultUserAgent,
				Sources: cli.EnvVars("DECIDOC_USER_AGENT"),
			},
		},
		Commands: []*cli.Command{
			initCommand(),
			addCommand(),
			rollbackCommand(),
			configCommand(),
			listCommand(),
			showCommand(),
			mcpCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		internal.ReportError(console.New(os.Stdin, os.Stdout, os.Stderr), err)
		os.Exit(1)
	}
}
