// Package memory implements the memory store: text chunks embedded as
// document vectors and retrieved by semantic similarity.
package memory

import (
	"time"

	"github.com/m-mizutani/recallos/pkg/adapter"
)

// UseCase provides memory store and search operations
type UseCase struct {
	store  adapter.VectorStore
	gemini adapter.Gemini
	now    func() time.Time
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithNow overrides the clock used for created_at stamps
func WithNow(now func() time.Time) Option {
	return func(uc *UseCase) {
		uc.now = now
	}
}

// New creates a new memory UseCase instance
func New(store adapter.VectorStore, gemini adapter.Gemini, opts ...Option) *UseCase {
	uc := &UseCase{
		store:  store,
		gemini: gemini,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}
