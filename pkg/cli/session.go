package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recallos/pkg/model"
	"github.com/urfave/cli/v3"
)

func sessionCommand() *cli.Command {
	var (
		cfg       config
		sessionID string
		limit     int64
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "session-id",
			Aliases:     []string{"s"},
			Usage:       "Session ID to show; lists recent sessions when omitted",
			Destination: &sessionID,
		},
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"n"},
			Usage:       "Maximum number of sessions to list",
			Value:       20,
			Destination: &limit,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "session",
		Usage: "Show a processing session record or list recent sessions",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogging()

			store, err := cfg.newFirestore(ctx)
			if err != nil {
				return err
			}

			if sessionID != "" {
				session, err := store.Get(ctx, model.SessionID(sessionID))
				if err != nil {
					return goerr.Wrap(err, "failed to get session", goerr.V("session_id", sessionID))
				}
				return printJSON(c, session)
			}

			sessions, err := store.ListRecent(ctx, int(limit))
			if err != nil {
				return goerr.Wrap(err, "failed to list sessions")
			}
			return printJSON(c, sessions)
		},
	}
}
