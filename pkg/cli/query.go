package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recallos/pkg/model"
	"github.com/urfave/cli/v3"
)

func queryCommand() *cli.Command {
	var (
		cfg         config
		query       string
		sessionID   string
		intelligent bool
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "query",
			Aliases:     []string{"q"},
			Usage:       "Question to ask the memory store",
			Destination: &query,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "session-id",
			Aliases:     []string{"s"},
			Usage:       "Session to log the query against",
			Destination: &sessionID,
		},
		&cli.BoolFlag{
			Name:        "intelligent",
			Usage:       "Plan with the coordinator before answering",
			Destination: &intelligent,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "query",
		Usage: "Ask a question against stored conversation memories",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			orch, _, err := cfg.newOrchestrator(ctx)
			if err != nil {
				return err
			}

			if intelligent {
				result, err := orch.IntelligentQuery(ctx, query)
				if err != nil {
					return goerr.Wrap(err, "intelligent query failed")
				}
				return printJSON(c, result)
			}

			result, err := orch.Query(ctx, query, model.SessionID(sessionID))
			if err != nil {
				return goerr.Wrap(err, "query failed")
			}

			fmt.Fprintf(c.Root().Writer, "%s\n\n", result.Answer)
			for i, src := range result.Sources {
				fmt.Fprintf(c.Root().Writer, "[%d] (%.2f) %s\n", i+1, src.Score, src.Text)
			}
			return nil
		},
	}
}

// printJSON renders a result as indented JSON on the command writer
func printJSON(c *cli.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return goerr.Wrap(err, "failed to render result")
	}
	fmt.Fprintf(c.Root().Writer, "%s\n", out)
	return nil
}
