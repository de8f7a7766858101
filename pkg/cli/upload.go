package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/briandowns/spinner"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func uploadCommand() *cli.Command {
	var (
		cfg       config
		audioPath string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "file",
			Aliases:     []string{"f"},
			Usage:       "Path to the audio file to process",
			Sources:     cli.EnvVars("RECALLOS_AUDIO_FILE"),
			Destination: &audioPath,
			Required:    true,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "upload",
		Usage: "Upload an audio file and process it into memories",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			orch, _, err := cfg.newOrchestrator(ctx)
			if err != nil {
				return err
			}

			// the workflow owns and removes its input, so hand it a copy
			tmpPath, err := copyToTemp(audioPath)
			if err != nil {
				return err
			}

			sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond,
				spinner.WithWriter(c.Root().ErrWriter))
			sp.Suffix = " processing " + filepath.Base(audioPath)
			sp.Start()
			result, err := orch.ProcessAudio(ctx, tmpPath)
			sp.Stop()
			if err != nil {
				return goerr.Wrap(err, "failed to process audio", goerr.V("path", audioPath))
			}

			fmt.Fprintf(c.Root().Writer, "Session:  %s\n", result.SessionID)
			fmt.Fprintf(c.Root().Writer, "File:     %s\n", result.FileID)
			fmt.Fprintf(c.Root().Writer, "Storage:  %s\n", result.GCSURL)
			fmt.Fprintf(c.Root().Writer, "Duration: %.1fs\n", result.Duration)
			fmt.Fprintf(c.Root().Writer, "Segments: %d stored, %d failed\n",
				result.SegmentsStored, result.SegmentsFailed)
			fmt.Fprintf(c.Root().Writer, "Preview:  %s\n", result.TranscriptPreview)
			return nil
		},
	}
}

func copyToTemp(path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", goerr.Wrap(err, "failed to open audio file", goerr.V("path", path))
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "recallos-*"+filepath.Ext(path))
	if err != nil {
		return "", goerr.Wrap(err, "failed to create temporary file")
	}
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", goerr.Wrap(err, "failed to copy audio file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", goerr.Wrap(err, "failed to close temporary file")
	}
	return tmp.Name(), nil
}
