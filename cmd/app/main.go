// Package main provides the entry point for the application with CLI commands.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/allisson/authcore/cmd/app/commands"
)

func main() {
	cmd := &cli.Command{
		Name:    "app",
		Usage:   "Credential lifecycle and abuse prevention core",
		Version: "1.0.0",
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "Run database migrations",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunMigrations()
				},
			},
			{
				Name:  "sweep",
				Usage: "Run a maintenance sweep over expired rows",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "type",
						Aliases: []string{"t"},
						Value:   "full",
						Usage:   "Sweep type: 'full', 'quick', 'audit' or 'locks'",
					},
					&cli.BoolFlag{
						Name:  "dry-run",
						Usage: "Only report what would be removed",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format: 'text' or 'json'",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunSweep(ctx, cmd.String("type"), cmd.Bool("dry-run"), cmd.String("format"))
				},
			},
			{
				Name:  "sweep-stats",
				Usage: "Show the rows currently eligible for each sweep",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format: 'text' or 'json'",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunSweepStats(ctx, cmd.String("format"))
				},
			},
			{
				Name:  "schedule",
				Usage: "Run the maintenance scheduler until interrupted",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunSchedule(ctx)
				},
			},
			{
				Name:  "revoke-subject-tokens",
				Usage: "Revoke every active credential for a subject",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "subject-id",
						Required: true,
						Usage:    "Subject UUID",
					},
					&cli.StringFlag{
						Name:     "subject-type",
						Required: true,
						Usage:    "Subject type: 'user' or 'admin'",
					},
					&cli.StringFlag{
						Name:  "reason",
						Value: "administrative revocation",
						Usage: "Reason recorded on the blacklist entries",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunRevokeSubjectTokens(
						ctx,
						cmd.String("subject-id"),
						cmd.String("subject-type"),
						cmd.String("reason"),
					)
				},
			},
			{
				Name:  "reset-rate-limit",
				Usage: "Clear the rate limit counters for an identifier and endpoint",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "identifier",
						Required: true,
						Usage:    "Subject ID or client address",
					},
					&cli.StringFlag{
						Name:     "endpoint",
						Required: true,
						Usage:    "Endpoint category (e.g. login, refresh)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunResetRateLimit(ctx, cmd.String("identifier"), cmd.String("endpoint"))
				},
			},
			{
				Name:  "audit-stats",
				Usage: "Summarize audit activity over a number of days",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "days",
						Aliases: []string{"d"},
						Value:   7,
						Usage:   "Number of days to summarize",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format: 'text' or 'json'",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunAuditStats(ctx, int(cmd.Int("days")), cmd.String("format"))
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("command failed", slog.Any("error", err))
		os.Exit(1)
	}
}
