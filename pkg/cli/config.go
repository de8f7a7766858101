package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recallos/pkg/adapter"
	"github.com/m-mizutani/recallos/pkg/usecase/coordinator"
	"github.com/m-mizutani/recallos/pkg/usecase/insights"
	"github.com/m-mizutani/recallos/pkg/usecase/memory"
	"github.com/m-mizutani/recallos/pkg/usecase/orchestrator"
	"github.com/m-mizutani/recallos/pkg/usecase/synthesis"
	"github.com/m-mizutani/recallos/pkg/usecase/transcript"
	"github.com/m-mizutani/recallos/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// config holds configuration values
type config struct {
	logLevel string

	// Google Cloud
	project  string
	database string
	bucket   string
	location string

	// Gemini
	generativeModel string
	embeddingModel  string

	// Qdrant
	qdrantHost       string
	qdrantPort       int64
	qdrantCollection string
	qdrantDimension  uint64
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("RECALLOS_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
		&cli.StringFlag{
			Name:        "bucket",
			Aliases:     []string{"b"},
			Usage:       "Cloud Storage bucket for audio files",
			Sources:     cli.EnvVars("GCS_BUCKET_NAME"),
			Destination: &cfg.bucket,
		},
		&cli.StringFlag{
			Name:        "location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.location,
		},
		&cli.StringFlag{
			Name:        "generative-model",
			Usage:       "Gemini model for generation",
			Value:       "gemini-2.0-flash",
			Sources:     cli.EnvVars("GEMINI_MODEL"),
			Destination: &cfg.generativeModel,
		},
		&cli.StringFlag{
			Name:        "embedding-model",
			Usage:       "Gemini model for embeddings",
			Value:       "text-embedding-004",
			Sources:     cli.EnvVars("GEMINI_EMBEDDING_MODEL"),
			Destination: &cfg.embeddingModel,
		},
		&cli.StringFlag{
			Name:        "qdrant-host",
			Usage:       "Qdrant host",
			Value:       "localhost",
			Sources:     cli.EnvVars("QDRANT_HOST"),
			Destination: &cfg.qdrantHost,
		},
		&cli.IntFlag{
			Name:        "qdrant-port",
			Usage:       "Qdrant gRPC port",
			Value:       6334,
			Sources:     cli.EnvVars("QDRANT_PORT"),
			Destination: &cfg.qdrantPort,
		},
		&cli.StringFlag{
			Name:        "qdrant-collection",
			Usage:       "Qdrant collection for memories",
			Value:       "recallos-memories",
			Sources:     cli.EnvVars("QDRANT_COLLECTION"),
			Destination: &cfg.qdrantCollection,
		},
		&cli.UintFlag{
			Name:        "qdrant-dimension",
			Usage:       "Embedding vector dimension",
			Value:       768,
			Sources:     cli.EnvVars("QDRANT_DIMENSION"),
			Destination: &cfg.qdrantDimension,
		},
	}
}

// setupLogging replaces the default logger with the configured level
func (cfg *config) setupLogging() {
	logging.SetDefault(logging.New(cfg.logLevel, os.Stderr))
}

// newGemini creates a new Gemini adapter instance
func (cfg *config) newGemini(ctx context.Context) (*adapter.GeminiClient, error) {
	if cfg.project == "" {
		return nil, goerr.New("project is required")
	}
	if cfg.location == "" {
		return nil, goerr.New("location is required")
	}
	return adapter.NewGemini(ctx, cfg.project, cfg.location,
		adapter.WithGenerativeModel(cfg.generativeModel),
		adapter.WithEmbeddingModel(cfg.embeddingModel),
	)
}

// newFirestore creates a new session store instance
func (cfg *config) newFirestore(ctx context.Context) (adapter.SessionStore, error) {
	if cfg.project == "" {
		return nil, goerr.New("project is required")
	}
	if cfg.database == "" {
		return nil, goerr.New("database is required")
	}
	store, err := adapter.NewFirestore(ctx, cfg.project, cfg.database)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create session store")
	}
	return store, nil
}

// newStorage creates a new blob store instance
func (cfg *config) newStorage(ctx context.Context) (adapter.BlobStore, error) {
	if cfg.bucket == "" {
		return nil, goerr.New("bucket is required")
	}
	store, err := adapter.NewStorage(ctx, cfg.bucket)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create blob store")
	}
	return store, nil
}

// newQdrant creates a new vector store instance
func (cfg *config) newQdrant(ctx context.Context) (adapter.VectorStore, error) {
	store, err := adapter.NewQdrant(ctx, cfg.qdrantHost, int(cfg.qdrantPort), cfg.qdrantCollection, cfg.qdrantDimension)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create vector store")
	}
	return store, nil
}

// newOrchestrator wires the full usecase graph for commands that run
// workflows end to end
func (cfg *config) newOrchestrator(ctx context.Context) (*orchestrator.UseCase, *insights.UseCase, error) {
	cfg.setupLogging()

	gemini, err := cfg.newGemini(ctx)
	if err != nil {
		return nil, nil, err
	}
	sessions, err := cfg.newFirestore(ctx)
	if err != nil {
		return nil, nil, err
	}
	blobs, err := cfg.newStorage(ctx)
	if err != nil {
		return nil, nil, err
	}
	vectors, err := cfg.newQdrant(ctx)
	if err != nil {
		return nil, nil, err
	}
	speech, err := adapter.NewSpeech(ctx)
	if err != nil {
		return nil, nil, err
	}

	memories := memory.New(vectors, gemini)
	insightsUC := insights.New(memories, gemini)

	orch := orchestrator.New(
		sessions,
		blobs,
		transcript.New(speech),
		memories,
		synthesis.New(gemini),
		coordinator.New(gemini),
		insightsUC,
		gemini,
	)

	return orch, insightsUC, nil
}
