// Package main provides the entry point for the application with CLI commands.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/capdocs/capdocs/cmd/app/commands"
)

const version = "1.0.0"

func main() {
	cmd := &cli.Command{
		Name:    "app",
		Usage:   "Capability-secured document storage service",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "Start the API server, metrics server and query-run worker",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunServer(ctx, version)
				},
			},
			{
				Name:  "ensure-indexes",
				Usage: "Create the MongoDB indexes the service relies on",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunEnsureIndexes(ctx)
				},
			},
			{
				Name:  "create-builder",
				Usage: "Register a builder principal",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "did",
						Aliases:  []string{"d"},
						Required: true,
						Usage:    "Builder identity (did:key)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunCreateBuilder(ctx, cmd.String("did"), os.Stdout)
				},
			},
			{
				Name:  "create-user",
				Usage: "Register a user principal",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "did",
						Aliases:  []string{"d"},
						Required: true,
						Usage:    "User identity (did:key)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunCreateUser(ctx, cmd.String("did"), os.Stdout)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
}
