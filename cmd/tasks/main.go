// Command tasks is a terminal client for the task tracker API.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

func main() {
	flags := &Flags{}
	rt := &deps{}

	app := &cli.Command{
		Name:      "tasks",
		Usage:     "Manage your task list from the terminal",
		UsageText: "tasks [global options] command [command options]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "server",
				Usage:       "task tracker base URL",
				Sources:     cli.EnvVars("TASKS_SERVER"),
				Value:       "http://localhost:3000",
				Destination: &flags.Server,
			},
			&cli.StringFlag{
				Name:        "session-file",
				Usage:       "where the login token is kept",
				Sources:     cli.EnvVars("TASKS_SESSION_FILE"),
				Value:       defaultSessionFile(),
				Destination: &flags.SessionFile,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error)",
				Sources:     cli.EnvVars("TASKS_LOG_LEVEL"),
				Value:       "warn",
				Destination: &flags.LogLevel,
			},
			&cli.DurationFlag{
				Name:        "timeout",
				Usage:       "per-request timeout",
				Sources:     cli.EnvVars("TASKS_TIMEOUT"),
				Value:       10 * time.Second,
				Destination: &flags.Timeout,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logger, err := newLogger(flags.LogLevel, os.Stderr)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger

			if err := rt.init(flags, logger); err != nil {
				return ctx, err
			}
			return ctx, nil
		},
		Commands: []*cli.Command{
			newRegisterCmd(rt),
			newLoginCmd(rt),
			newLogoutCmd(rt),
			newWhoamiCmd(rt),
			newListCmd(rt),
			newAddCmd(rt),
			newUpdateCmd(rt),
			newDoneCmd(rt),
			newRemoveCmd(rt),
		},
		DefaultCommand: "list",
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
