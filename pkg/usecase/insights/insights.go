// Package insights aggregates retrieved memory fragments across
// conversations: grouping by source file, speaker and time, and asking
// the language model to narrate recurring patterns and topic evolution.
package insights

import (
	"context"

	"github.com/m-mizutani/recallos/pkg/adapter"
	"github.com/m-mizutani/recallos/pkg/model"
)

const (
	// patternSearchBreadth is the wide search used for pattern mining
	patternSearchBreadth = 50
	// evolutionSearchBreadth is the narrower search for evolution tracking
	evolutionSearchBreadth = 30

	// DefaultMinOccurrences is the relevance threshold for a speaker or
	// conversation to appear in the pattern distributions
	DefaultMinOccurrences = 3

	// timelineLimit truncates the chronological slice of a pattern report
	timelineLimit = 10
	// sampleLimit and sampleLen bound the raw text shown to the model
	sampleLimit = 5
	sampleLen   = 100
)

// Searcher is the retrieval dependency: a semantic memory search
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]*model.SearchResult, error)
}

// UseCase provides cross-conversation pattern and evolution reports
type UseCase struct {
	searcher Searcher
	gemini   adapter.Gemini
}

// New creates a new insights UseCase instance
func New(searcher Searcher, gemini adapter.Gemini) *UseCase {
	return &UseCase{
		searcher: searcher,
		gemini:   gemini,
	}
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}

func fileID(r *model.SearchResult) string {
	if s, ok := r.Metadata["file_id"].(string); ok && s != "" {
		return s
	}
	return "unknown"
}
