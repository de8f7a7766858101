package memory

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recallos/pkg/adapter"
	"github.com/m-mizutani/recallos/pkg/model"
	"github.com/m-mizutani/recallos/pkg/utils/logging"
)

// Store embeds text as a document vector and upserts it with its
// metadata under a fresh memory ID. Caller-supplied metadata keys win
// over the defaults for everything except the text itself. Failures
// are surfaced to the caller, never retried here.
func (uc *UseCase) Store(ctx context.Context, text string, metadata map[string]any) (model.MemoryID, error) {
	if text == "" {
		return "", goerr.Wrap(model.ErrInvalidArgument, "memory text is empty")
	}

	id := model.NewMemoryID()

	embedding, err := uc.gemini.Embed(ctx, text, adapter.EmbeddingTaskDocument)
	if err != nil {
		return "", goerr.Wrap(model.ErrEmbeddingFailed, err.Error(), goerr.V("memory_id", id))
	}

	payload := map[string]any{
		"created_at": model.Timestamp(uc.now()),
	}
	for k, v := range metadata {
		payload[k] = v
	}
	payload["text"] = text

	if err := uc.store.Upsert(ctx, string(id), embedding, payload); err != nil {
		return "", goerr.Wrap(model.ErrStoreFailed, err.Error(), goerr.V("memory_id", id))
	}

	logging.Component(ctx, "memory").Debug("stored memory",
		"memory_id", id, "text", model.Truncate(text, 50))

	return id, nil
}

// Delete removes a stored memory by ID
func (uc *UseCase) Delete(ctx context.Context, id model.MemoryID) error {
	if err := uc.store.Delete(ctx, string(id)); err != nil {
		return goerr.Wrap(model.ErrStoreFailed, err.Error(), goerr.V("memory_id", id))
	}
	return nil
}
