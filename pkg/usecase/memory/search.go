package memory

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recallos/pkg/adapter"
	"github.com/m-mizutani/recallos/pkg/model"
	"github.com/m-mizutani/recallos/pkg/utils/logging"
)

// Search embeds the query text with the query task type and returns the
// topK nearest memories ordered by descending score. The query task
// type differs from the document task type on purpose: both live in the
// same embedding space but are optimized differently.
func (uc *UseCase) Search(ctx context.Context, query string, topK int) ([]*model.SearchResult, error) {
	if topK <= 0 {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "top_k must be positive", goerr.V("top_k", topK))
	}

	embedding, err := uc.gemini.Embed(ctx, query, adapter.EmbeddingTaskQuery)
	if err != nil {
		return nil, goerr.Wrap(model.ErrEmbeddingFailed, err.Error())
	}

	matches, err := uc.store.Search(ctx, embedding, topK)
	if err != nil {
		return nil, goerr.Wrap(model.ErrStoreFailed, err.Error())
	}

	results := make([]*model.SearchResult, 0, len(matches))
	for _, m := range matches {
		text, _ := m.Metadata["text"].(string)

		metadata := make(map[string]any, len(m.Metadata))
		for k, v := range m.Metadata {
			if k == "text" {
				continue
			}
			metadata[k] = v
		}

		results = append(results, &model.SearchResult{
			ID:       m.ID,
			Score:    m.Score,
			Text:     text,
			Metadata: metadata,
		})
	}

	logging.Component(ctx, "memory").Debug("search complete",
		"query", model.Truncate(query, 50), "results", len(results))

	return results, nil
}
