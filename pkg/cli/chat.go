package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recallos/pkg/model"
	"github.com/urfave/cli/v3"
)

func chatCommand() *cli.Command {
	var (
		cfg         config
		sessionID   string
		intelligent bool
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "session-id",
			Aliases:     []string{"s"},
			Usage:       "Session to log queries against",
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
		Name:  "chat",
		Usage: "Interactive question loop against stored memories",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			orch, _, err := cfg.newOrchestrator(ctx)
			if err != nil {
				return err
			}

			rl, err := readline.New("recallos> ")
			if err != nil {
				return goerr.Wrap(err, "failed to start interactive prompt")
			}
			defer rl.Close()

			fmt.Fprintf(c.Root().Writer, "Chat started. Type 'exit' to quit.\n")

			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					continue
				}
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read input")
				}

				query := strings.TrimSpace(line)
				if query == "" {
					continue
				}
				if query == "exit" || query == "quit" {
					break
				}

				if err := answerOne(ctx, c, orch, query, model.SessionID(sessionID), intelligent); err != nil {
					fmt.Fprintf(c.Root().ErrWriter, "error: %v\n", err)
				}
			}

			fmt.Fprintf(c.Root().Writer, "\nChat session completed\n")
			return nil
		},
	}
}

func answerOne(ctx context.Context, c *cli.Command, orch orchestratorRunner, query string, sessionID model.SessionID, intelligent bool) error {
	if intelligent {
		result, err := orch.IntelligentQuery(ctx, query)
		if err != nil {
			return err
		}
		if result.Type == model.IntelligentResultInsights {
			return printJSON(c, result.Insights)
		}
		fmt.Fprintf(c.Root().Writer, "%s\n", result.Query.Answer)
		return nil
	}

	result, err := orch.Query(ctx, query, sessionID)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Root().Writer, "%s\n", result.Answer)
	for i, src := range result.Sources {
		fmt.Fprintf(c.Root().Writer, "  [%d] (%.2f) %s\n", i+1, src.Score, src.Text)
	}
	return nil
}

// orchestratorRunner is the slice of the orchestrator the chat loop needs
type orchestratorRunner interface {
	Query(ctx context.Context, query string, sessionID model.SessionID) (*model.QueryResult, error)
	IntelligentQuery(ctx context.Context, query string) (*model.IntelligentResult, error)
}
