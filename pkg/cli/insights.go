package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func insightsCommand() *cli.Command {
	var (
		cfg            config
		topic          string
		minOccurrences int64
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "topic",
			Aliases:     []string{"t"},
			Usage:       "Topic to mine for cross-conversation patterns",
			Destination: &topic,
			Required:    true,
		},
		&cli.IntFlag{
			Name:        "min-occurrences",
			Usage:       "Minimum mentions for a speaker or file to appear in distributions",
			Destination: &minOccurrences,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "insights",
		Usage: "Find recurring patterns for a topic across conversations",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			_, insightsUC, err := cfg.newOrchestrator(ctx)
			if err != nil {
				return err
			}

			report, err := insightsUC.FindPatterns(ctx, topic, int(minOccurrences))
			if err != nil {
				return goerr.Wrap(err, "pattern analysis failed", goerr.V("topic", topic))
			}
			return printJSON(c, report)
		},
	}
}

func evolutionCommand() *cli.Command {
	var (
		cfg   config
		topic string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "topic",
			Aliases:     []string{"t"},
			Usage:       "Topic to trace over time",
			Destination: &topic,
			Required:    true,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "evolution",
		Usage: "Trace how discussion of a topic evolved over time",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			_, insightsUC, err := cfg.newOrchestrator(ctx)
			if err != nil {
				return err
			}

			report, err := insightsUC.TopicEvolution(ctx, topic)
			if err != nil {
				return goerr.Wrap(err, "evolution analysis failed", goerr.V("topic", topic))
			}
			return printJSON(c, report)
		},
	}
}
