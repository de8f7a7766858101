package cli

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	// a missing .env is fine; flags and the environment still apply
	_ = godotenv.Load()

	cmd := &cli.Command{
		Name:  "recallos",
		Usage: "Audio memory orchestration agent",
		Commands: []*cli.Command{
			serveCommand(),
			uploadCommand(),
			queryCommand(),
			insightsCommand(),
			evolutionCommand(),
			sessionCommand(),
			chatCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
