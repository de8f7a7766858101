// Package synthesis turns retrieved memories into grounded answers:
// the language model may only cite the supplied context, and source
// references are projected deterministically from that context.
package synthesis

import (
	"github.com/m-mizutani/recallos/pkg/adapter"
)

// UseCase provides answer synthesis and summarization
type UseCase struct {
	gemini adapter.Gemini
}

// New creates a new synthesis UseCase instance
func New(gemini adapter.Gemini) *UseCase {
	return &UseCase{gemini: gemini}
}
