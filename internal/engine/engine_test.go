package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transactly/transactly/internal/common"
	"github.com/transactly/transactly/internal/model"
	"github.com/transactly/transactly/internal/normalize"
	"github.com/transactly/transactly/internal/rules"
	"github.com/transactly/transactly/internal/storage"
)

// stubEmbedder returns a fixed vector for every text.
type stubEmbedder struct {
	vec []float32
	err error
}

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = s.vec
	}
	return out, nil
}

func (s *stubEmbedder) Dimension() int { return len(s.vec) }
func (s *stubEmbedder) Close() error   { return nil }

// stubPredictor returns a fixed category and confidence.
type stubPredictor struct {
	category   string
	confidence float64
	err        error
}

func (s *stubPredictor) Predict(_ []float32) (string, float64, error) {
	return s.category, s.confidence, s.err
}

func newTestEngine(t *testing.T, embedder *stubEmbedder, predictor *stubPredictor, opts ...Option) *Engine {
	t.Helper()
	e, err := New(normalize.New(), rules.NewMatcher(), embedder, predictor, opts...)
	require.NoError(t, err)
	return e
}

func TestEngine_RulePrecedence(t *testing.T) {
	// The predictor would confidently disagree; the rule must still win.
	embedder := &stubEmbedder{vec: []float32{1, 0}}
	predictor := &stubPredictor{category: "Shopping", confidence: 0.99}
	e := newTestEngine(t, embedder, predictor)

	tests := []struct {
		input        string
		wantCategory string
	}{
		{"IRCTC Train Booking #7845", "Travel & Transport"},
		{"Netflix Monthly Subscription", "Entertainment"},
		// Multi-word patterns fire on the cleaned surface, before merchant
		// canonicalization collapses the phrase to its first token.
		{"Electricity Bill Payment June", "Utilities"},
		{"Prime membership renewal", "Bills & Subscriptions"},
		{"McDonalds order 8812", "Food & Dining"},
		// Alias forms fire on the canonicalized surface.
		{"SWG order ID 4389", "Food & Dining"},
		{"AMZN PMT #9283", "Shopping"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			decision, err := e.Classify(context.Background(), tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCategory, decision.FinalCategory)
			assert.Equal(t, model.MethodRule, decision.Method)
			assert.Equal(t, 1.0, decision.Confidence)
			assert.Contains(t, decision.Explanation, "Matched rule pattern")
			assert.Empty(t, decision.SimilarExamples)
		})
	}
}

func TestEngine_ConfidenceBoundary(t *testing.T) {
	tests := []struct {
		name         string
		confidence   float64
		wantCategory string
		wantMethod   model.Method
	}{
		{name: "at threshold accepted", confidence: 0.75, wantCategory: "Groceries", wantMethod: model.MethodModel},
		{name: "just below rejected", confidence: 0.749999, wantCategory: model.Uncertain, wantMethod: model.MethodLowConfidence},
		{name: "well above accepted", confidence: 0.99, wantCategory: "Groceries", wantMethod: model.MethodModel},
		{name: "well below rejected", confidence: 0.2, wantCategory: model.Uncertain, wantMethod: model.MethodLowConfidence},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embedder := &stubEmbedder{vec: []float32{1, 0}}
			predictor := &stubPredictor{category: "Groceries", confidence: tt.confidence}
			e := newTestEngine(t, embedder, predictor)

			decision, err := e.Classify(context.Background(), "zzqx 4511")
			require.NoError(t, err)
			assert.Equal(t, tt.wantCategory, decision.FinalCategory)
			assert.Equal(t, tt.wantMethod, decision.Method)
			assert.Equal(t, tt.confidence, decision.Confidence)
		})
	}
}

func TestEngine_LowConfidenceScenario(t *testing.T) {
	embedder := &stubEmbedder{vec: []float32{1, 0}}
	predictor := &stubPredictor{category: "Others", confidence: 0.41}
	e := newTestEngine(t, embedder, predictor)

	decision, err := e.Classify(context.Background(), "Unknown merchant 1234")
	require.NoError(t, err)

	assert.Equal(t, model.Uncertain, decision.FinalCategory)
	assert.Equal(t, model.MethodLowConfidence, decision.Method)
	assert.Equal(t, "Below confidence threshold; needs user feedback", decision.Explanation)
}

func TestEngine_OutputRange(t *testing.T) {
	canonical := model.Categories()
	for _, confidence := range []float64{0, 0.3, 0.75, 1} {
		embedder := &stubEmbedder{vec: []float32{1, 0}}
		predictor := &stubPredictor{category: "Fuel", confidence: confidence}
		e := newTestEngine(t, embedder, predictor)

		decision, err := e.Classify(context.Background(), "zzqx payment")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, decision.Confidence, 0.0)
		assert.LessOrEqual(t, decision.Confidence, 1.0)
		if decision.FinalCategory != model.Uncertain {
			assert.Contains(t, canonical, decision.FinalCategory)
		}
	}
}

func TestEngine_SimilarExamples(t *testing.T) {
	store, err := storage.NewEmbeddingStore(
		[]string{"swiggy", "irctc", "netflix"},
		[][]float32{{1, 0}, {0, 1}, {0.9, 0.1}},
	)
	require.NoError(t, err)

	embedder := &stubEmbedder{vec: []float32{1, 0}}
	predictor := &stubPredictor{category: "Food & Dining", confidence: 0.9}
	e := newTestEngine(t, embedder, predictor,
		WithReferenceStore(store),
		WithConfig(Config{ConfidenceThreshold: 0.75, TopK: 2}))

	decision, err := e.Classify(context.Background(), "zzqx order 12")
	require.NoError(t, err)

	require.Len(t, decision.SimilarExamples, 2)
	assert.Equal(t, "swiggy", decision.SimilarExamples[0].Text)
	assert.InDelta(t, 1.0, decision.SimilarExamples[0].Similarity, 1e-9)
	assert.GreaterOrEqual(t, decision.SimilarExamples[0].Similarity, decision.SimilarExamples[1].Similarity)
}

func TestEngine_ExplanationsNeverChangeCategory(t *testing.T) {
	store, err := storage.NewEmbeddingStore([]string{"irctc"}, [][]float32{{0, 1}})
	require.NoError(t, err)

	embedder := &stubEmbedder{vec: []float32{1, 0}}
	predictor := &stubPredictor{category: "Shopping", confidence: 0.9}

	with := newTestEngine(t, embedder, predictor, WithReferenceStore(store))
	without := newTestEngine(t, embedder, predictor)

	d1, err := with.Classify(context.Background(), "zzqx 1")
	require.NoError(t, err)
	d2, err := without.Classify(context.Background(), "zzqx 1")
	require.NoError(t, err)

	assert.Equal(t, d2.FinalCategory, d1.FinalCategory)
	assert.Equal(t, d2.Confidence, d1.Confidence)
	assert.NotEmpty(t, d1.SimilarExamples)
	assert.Empty(t, d2.SimilarExamples)
}

func TestEngine_EmbedderFailurePropagates(t *testing.T) {
	wantErr := errors.New("onnx runtime exploded")
	embedder := &stubEmbedder{vec: []float32{1, 0}, err: wantErr}
	predictor := &stubPredictor{category: "Fuel", confidence: 0.9}
	e := newTestEngine(t, embedder, predictor)

	_, err := e.Classify(context.Background(), "zzqx 9")
	assert.ErrorIs(t, err, wantErr)
}

func TestEngine_PredictorFailurePropagates(t *testing.T) {
	embedder := &stubEmbedder{vec: []float32{1, 0}}
	predictor := &stubPredictor{err: common.ErrDimensionMismatch}
	e := newTestEngine(t, embedder, predictor)

	_, err := e.Classify(context.Background(), "zzqx 9")
	assert.ErrorIs(t, err, common.ErrDimensionMismatch)
}

func TestNew_StoreDimensionMismatch(t *testing.T) {
	store, err := storage.NewEmbeddingStore([]string{"a"}, [][]float32{{1, 2, 3}})
	require.NoError(t, err)

	embedder := &stubEmbedder{vec: []float32{1, 0}}
	predictor := &stubPredictor{category: "Fuel", confidence: 0.9}

	_, err = New(normalize.New(), rules.NewMatcher(), embedder, predictor, WithReferenceStore(store))
	assert.ErrorIs(t, err, common.ErrDimensionMismatch)
}
