package synthesis

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/recallos/pkg/model"
	"github.com/m-mizutani/recallos/pkg/utils/logging"
)

//go:embed prompt/answer.md
var answerPromptRaw string

var answerPromptTmpl = template.Must(template.New("answer").Parse(answerPromptRaw))

// sourcePreviewLen caps the text preview carried by a SourceRef
const sourcePreviewLen = 100

// Answer generates a grounded answer for the query from the retrieved
// context. The sources are a deterministic projection of the context in
// input order; they are computed locally and reproduce faithfully no
// matter what the model returns. An empty context is valid and yields
// an answer with no sources.
func (uc *UseCase) Answer(ctx context.Context, query string, results []*model.SearchResult) (*model.Answer, error) {
	var buf bytes.Buffer
	if err := answerPromptTmpl.Execute(&buf, map[string]any{
		"Query":   query,
		"Context": formatContext(results),
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to execute answer prompt template")
	}

	text, err := uc.gemini.Generate(ctx, buf.String())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate answer", goerr.V("query", query))
	}

	logging.Component(ctx, "synthesis").Debug("answer generated",
		"query", model.Truncate(query, 50), "sources", len(results))

	return &model.Answer{
		Text:    text,
		Sources: ExtractSources(results),
	}, nil
}

// ExtractSources projects search results into citable source
// references, preserving input order
func ExtractSources(results []*model.SearchResult) []model.SourceRef {
	sources := make([]model.SourceRef, 0, len(results))
	for _, r := range results {
		sources = append(sources, model.SourceRef{
			ID:       r.ID,
			Text:     model.Truncate(r.Text, sourcePreviewLen),
			Score:    r.Score,
			Metadata: r.Metadata,
		})
	}
	return sources
}

// formatContext enumerates each memory for the grounding prompt
func formatContext(results []*model.SearchResult) string {
	var lines []string
	for i, r := range results {
		lines = append(lines, fmt.Sprintf("[Memory #%d] (Relevance: %.2f)\nSpeaker: %s\nContent: %s\n",
			i+1, r.Score, r.Speaker(), r.Text))
	}
	return strings.Join(lines, "\n")
}
