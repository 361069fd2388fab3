// Package service defines the interfaces shared between application services.
package service

import (
	"context"

	"github.com/transactly/transactly/internal/model"
)

// Embedder maps normalized text to fixed-dimension vectors. Implementations
// must be deterministic: identical input text yields identical vectors for a
// fixed encoder version. Implementations are expensive to construct and are
// shared read-only across requests.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
	Close() error
}

// Predictor scores a single embedding and returns the top-ranked category
// with its posterior probability.
type Predictor interface {
	Predict(vec []float32) (category string, confidence float64, err error)
}

// FeedbackStore persists user corrections. Appends must be safe under
// concurrent callers and All must return records in insertion order.
type FeedbackStore interface {
	Append(ctx context.Context, rec model.FeedbackRecord) error
	All(ctx context.Context) ([]model.FeedbackRecord, error)
	Count(ctx context.Context) (int, error)
	Close() error
}

// Scorer rates the similarity of two strings on a 0-100 scale. The fuzzy
// merchant matcher is pluggable so the threshold and scoring function stay
// independently tunable.
type Scorer interface {
	Score(a, b string) int
}
