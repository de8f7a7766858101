// Package orchestrator wires the full workflows together: audio upload
// through transcription into the memory store, and queries through
// analysis, retrieval and synthesis. Session state is persisted at
// every transition so progress survives a crash.
package orchestrator

import (
	"context"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recallos/pkg/adapter"
	"github.com/m-mizutani/recallos/pkg/model"
	"github.com/m-mizutani/recallos/pkg/usecase/coordinator"
	"github.com/m-mizutani/recallos/pkg/usecase/insights"
	"github.com/m-mizutani/recallos/pkg/usecase/memory"
	"github.com/m-mizutani/recallos/pkg/usecase/synthesis"
	"github.com/m-mizutani/recallos/pkg/usecase/transcript"
)

// UseCase orchestrates the upload and query workflows across the
// collaborator usecases
type UseCase struct {
	sessions    adapter.SessionStore
	blobs       adapter.BlobStore
	pipeline    *transcript.Pipeline
	memories    *memory.UseCase
	synthesis   *synthesis.UseCase
	coordinator *coordinator.UseCase
	insights    *insights.UseCase
	gemini      adapter.Gemini

	sleep   func(time.Duration)
	now     func() time.Time
	cleanup func(string) error
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithSleep overrides the backoff sleep between transcription retries
func WithSleep(sleep func(time.Duration)) Option {
	return func(uc *UseCase) {
		uc.sleep = sleep
	}
}

// WithNow overrides the clock used for session timestamps
func WithNow(now func() time.Time) Option {
	return func(uc *UseCase) {
		uc.now = now
	}
}

// WithCleanup overrides removal of the temporary audio file
func WithCleanup(cleanup func(string) error) Option {
	return func(uc *UseCase) {
		uc.cleanup = cleanup
	}
}

// New creates a new orchestrator UseCase instance. The gemini adapter
// is used directly for query analysis; everything else goes through the
// collaborator usecases.
func New(
	sessions adapter.SessionStore,
	blobs adapter.BlobStore,
	pipeline *transcript.Pipeline,
	memories *memory.UseCase,
	synth *synthesis.UseCase,
	coord *coordinator.UseCase,
	insightsUC *insights.UseCase,
	gemini adapter.Gemini,
	opts ...Option,
) *UseCase {
	uc := &UseCase{
		sessions:    sessions,
		blobs:       blobs,
		pipeline:    pipeline,
		memories:    memories,
		synthesis:   synth,
		coordinator: coord,
		insights:    insightsUC,
		gemini:      gemini,
		sleep:       time.Sleep,
		now:         time.Now,
		cleanup:     os.Remove,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// Session returns the persisted session record
func (uc *UseCase) Session(ctx context.Context, id model.SessionID) (*model.Session, error) {
	if id == "" {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "session ID is empty")
	}
	return uc.sessions.Get(ctx, id)
}

// defaultSessionLimit bounds session listings without an explicit limit
const defaultSessionLimit = 20

// Sessions returns recent session records, newest first
func (uc *UseCase) Sessions(ctx context.Context, limit int) ([]*model.Session, error) {
	if limit <= 0 {
		limit = defaultSessionLimit
	}
	return uc.sessions.ListRecent(ctx, limit)
}
