package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/starford/decidoc/internal"
	"github.com/starford/decidoc/internal/logservice"
)

func pathFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "path",
		Aliases: []string{"p"},
		Usage:   "Decision log to use; remembered for later commands",
	}
}

func initCommand() *cli.Command {
	return &cli.Command{
		Name:      "init",
		Usage:     "Create a new decision log and make it the default",
		ArgsUsage: "<path>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return fmt.Errorf("missing <path> argument")
			}
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			return app.Init(ctx, path)
		},
	}
}

func addCommand() *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Append a decision to the log",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Short description of the decision", Required: true},
			&cli.StringFlag{Name: "category", Usage: "Category, e.g. Architecture or Design", Required: true},
			&cli.StringFlag{Name: "status", Usage: "Status of the decision", Value: "Final"},
			&cli.StringFlag{Name: "context", Usage: "Context of the decision"},
			&cli.StringFlag{Name: "considerations", Usage: "Options that were considered"},
			&cli.StringFlag{Name: "decision", Usage: "The decision that was made"},
			&cli.StringFlag{Name: "motivation", Usage: "Why this option was chosen"},
			&cli.StringFlag{Name: "reflection", Usage: "First reflection or lesson learned"},
			&cli.StringFlag{Name: "stakeholders", Usage: "People involved in the decision"},
			&cli.StringSliceFlag{Name: "source", Aliases: []string{"s"}, Usage: "Source URL or reference (repeatable, comma-separated)"},
			pathFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			return app.Add(ctx, cmd.String("path"), logservice.AddRequest{
				Title:          cmd.String("title"),
				Category:       cmd.String("category"),
				Status:         cmd.String("status"),
				Context:        cmd.String("context"),
				Considerations: cmd.String("considerations"),
				Decision:       cmd.String("decision"),
				Motivation:     cmd.String("motivation"),
				Reflection:     cmd.String("reflection"),
				Stakeholders:   cmd.String("stakeholders"),
				Sources:        cmd.StringSlice("source"),
			})
		},
	}
}

func rollbackCommand() *cli.Command {
	return &cli.Command{
		Name:  "rollback",
		Usage: "Remove the most recent decision",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Do not ask for confirmation"},
			pathFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			return app.Rollback(ctx, cmd.String("path"), cmd.Bool("yes"))
		},
	}
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Show the configured decision log",
		Action: func(_ context.Context, cmd *cli.Command) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			return app.ShowConfig()
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List the decisions in the summary table",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: table, json or yaml",
				Value:   internal.FormatTable,
			},
			pathFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			return app.List(ctx, cmd.String("path"), cmd.String("format"))
		},
	}
}

func showCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show one decision",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "raw", Usage: "Print the markdown without rendering"},
			pathFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id := cmd.Args().First()
			if id == "" {
				return fmt.Errorf("missing <id> argument")
			}
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			return app.Show(ctx, cmd.String("path"), id, cmd.Bool("raw"))
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the decision log to MCP clients over stdio",
		Flags: []cli.Flag{
			pathFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			return app.ServeMCP(ctx, cmd.String("path"))
		},
	}
}
