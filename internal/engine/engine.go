// Package engine implements the hybrid decision engine that combines
// deterministic rules with the embedding classifier.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/transactly/transactly/internal/common"
	"github.com/transactly/transactly/internal/model"
	"github.com/transactly/transactly/internal/normalize"
	"github.com/transactly/transactly/internal/rules"
	"github.com/transactly/transactly/internal/service"
	"github.com/transactly/transactly/internal/storage"
)

// Config holds configuration options for the decision engine.
type Config struct {
	// ConfidenceThreshold is the minimum classifier posterior accepted as a
	// model decision. The boundary is inclusive.
	ConfidenceThreshold float64
	// TopK is how many similar reference examples to attach.
	TopK int
}

// DefaultConfig returns the default decision configuration.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold: 0.75,
		TopK:                3,
	}
}

// Engine orchestrates Normalizer -> RuleMatcher -> Embedder -> Predictor for
// single descriptions. All state is read-only after construction, so one
// Engine serves concurrent requests without locking.
type Engine struct {
	normalizer *normalize.Normalizer
	rules      *rules.Matcher
	embedder   service.Embedder
	predictor  service.Predictor
	refStore   *storage.EmbeddingStore
	config     Config
}

// Option configures an Engine.
type Option func(*Engine)

// WithReferenceStore attaches a precomputed embedding store used for
// similar-example explanations.
func WithReferenceStore(store *storage.EmbeddingStore) Option {
	return func(e *Engine) { e.refStore = store }
}

// WithConfig overrides the default decision configuration.
func WithConfig(cfg Config) Option {
	return func(e *Engine) { e.config = cfg }
}

// New creates a decision engine. It fails if an attached reference store
// disagrees with the embedder on vector dimensionality.
func New(normalizer *normalize.Normalizer, matcher *rules.Matcher, embedder service.Embedder, predictor service.Predictor, opts ...Option) (*Engine, error) {
	e := &Engine{
		normalizer: normalizer,
		rules:      matcher,
		embedder:   embedder,
		predictor:  predictor,
		config:     DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.refStore != nil && e.refStore.Dim != embedder.Dimension() {
		return nil, fmt.Errorf("%w: reference store has %d dimensions, embedder produces %d",
			common.ErrDimensionMismatch, e.refStore.Dim, embedder.Dimension())
	}
	return e, nil
}

// Classify runs the decision state machine over a single description.
//
// A rule hit is authoritative: the pipeline short-circuits with confidence
// 1.0 and no embedding or classifier work. Rules are evaluated on two
// surfaces: the cleaned text, so multi-word patterns like "electricity bill"
// stay visible, then the canonicalized merchant identity, so alias forms
// like "SWG" still reach the merchant rules. Otherwise the normalized text
// is embedded and scored; posteriors at or above the threshold become model
// decisions, everything below surfaces as "Uncertain" for human review.
func (e *Engine) Classify(ctx context.Context, description string) (*model.Decision, error) {
	cleaned := normalize.Clean(description)
	normalized := e.normalizer.Normalize(description)

	for _, surface := range []string{cleaned, normalized} {
		category, pattern, ok := e.rules.Match(surface)
		if !ok {
			continue
		}
		slog.Debug("Rule matched", "description", description, "pattern", pattern, "category", category)
		return &model.Decision{
			Description:   description,
			FinalCategory: category,
			Method:        model.MethodRule,
			Confidence:    1.0,
			Explanation:   fmt.Sprintf("Matched rule pattern: %s", pattern),
		}, nil
	}

	vecs, err := e.embedder.Embed(ctx, []string{normalized})
	if err != nil {
		return nil, fmt.Errorf("embedding %q: %w", normalized, err)
	}
	vec := vecs[0]

	category, confidence, err := e.predictor.Predict(vec)
	if err != nil {
		return nil, fmt.Errorf("predicting category for %q: %w", normalized, err)
	}

	var similar []model.SimilarExample
	if e.refStore != nil {
		similar = topSimilar(vec, e.refStore, e.config.TopK)
	}

	if confidence >= e.config.ConfidenceThreshold {
		return &model.Decision{
			Description:     description,
			FinalCategory:   category,
			Method:          model.MethodModel,
			Confidence:      confidence,
			Explanation:     fmt.Sprintf("Predicted by model with confidence %.2f", confidence),
			SimilarExamples: similar,
		}, nil
	}

	return &model.Decision{
		Description:     description,
		FinalCategory:   model.Uncertain,
		Method:          model.MethodLowConfidence,
		Confidence:      confidence,
		Explanation:     "Below confidence threshold; needs user feedback",
		SimilarExamples: similar,
	}, nil
}
