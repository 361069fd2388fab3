package retrain

import (
	"context"
	"errors"
	"hash/fnv"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transactly/transactly/internal/classifier"
	"github.com/transactly/transactly/internal/common"
	"github.com/transactly/transactly/internal/config"
	"github.com/transactly/transactly/internal/model"
	"github.com/transactly/transactly/internal/normalize"
	"github.com/transactly/transactly/internal/storage"
)

// fakeEmbedder produces deterministic vectors derived from the text hash, so
// identical texts always embed identically.
type fakeEmbedder struct {
	dim int
	err error
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		h := fnv.New32a()
		_, _ = h.Write([]byte(text))
		seed := h.Sum32()
		vec := make([]float32, f.dim)
		for d := range vec {
			seed = seed*1664525 + 1013904223
			vec[d] = float32(seed%1000)/1000 - 0.5
		}
		out[i] = vec
	}
	return out, nil
}

func (f *fakeEmbedder) Dimension() int { return f.dim }
func (f *fakeEmbedder) Close() error   { return nil }

func testTrainConfig() classifier.TrainConfig {
	cfg := classifier.DefaultTrainConfig()
	cfg.Epochs = 50
	return cfg
}

func testCorpus() []model.Transaction {
	return []model.Transaction{
		{ID: "TXN000001", Description: "swiggy", Amount: 450, Category: "Food & Dining"},
		{ID: "TXN000002", Description: "zomato payment #12", Amount: 300, Category: "Food & Dining"},
		{ID: "TXN000003", Description: "dominos payment #7", Amount: 600, Category: "Food & Dining"},
		{ID: "TXN000004", Description: "irctc payment #9", Amount: 1200, Category: "Travel & Transport"},
		{ID: "TXN000005", Description: "uber payment #3", Amount: 240, Category: "Travel & Transport"},
		{ID: "TXN000006", Description: "ola payment #5", Amount: 180, Category: "Travel & Transport"},
	}
}

func setupPipeline(t *testing.T, embedder *fakeEmbedder) (*Pipeline, config.Paths, *storage.FeedbackStore) {
	t.Helper()
	paths := config.NewPaths(t.TempDir())
	require.NoError(t, storage.SaveCorpus(paths.CorpusPath(), testCorpus()))

	feedback, err := storage.NewFeedbackStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = feedback.Close() })

	p := New(paths, embedder, feedback, normalize.New(), WithTrainConfig(testTrainConfig()))
	return p, paths, feedback
}

func TestPipeline_EmptyFeedback(t *testing.T) {
	p, paths, _ := setupPipeline(t, &fakeEmbedder{dim: 8})

	m, err := p.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, m)

	// Merged corpus is identical to the canonical corpus: no spurious rows.
	merged, err := storage.LoadCorpus(paths.MergedCorpusPath())
	require.NoError(t, err)
	assert.Equal(t, testCorpus(), merged)

	// Model and embedding store were written, in positional agreement.
	loaded, err := classifier.Load(paths.ModelPath())
	require.NoError(t, err)
	assert.Equal(t, 8, loaded.Dim)

	store, err := storage.LoadEmbeddingStore(paths.EmbeddingStorePath())
	require.NoError(t, err)
	assert.Equal(t, len(merged), store.Len())
	assert.Equal(t, 8, store.Dim)
}

func TestPipeline_MergeDedupKeepsLatest(t *testing.T) {
	p, paths, feedback := setupPipeline(t, &fakeEmbedder{dim: 8})
	ctx := context.Background()

	// "Swg order ID 4389" normalizes to "swiggy", colliding with TXN000001.
	require.NoError(t, feedback.Append(ctx, model.FeedbackRecord{
		Description:       "Swg order ID 4389",
		PredictedCategory: "Food & Dining",
		CorrectedCategory: "Groceries",
		Method:            "model",
		Confidence:        0.8,
	}))

	_, err := p.Run(ctx)
	require.NoError(t, err)

	merged, err := storage.LoadCorpus(paths.MergedCorpusPath())
	require.NoError(t, err)

	var hits []model.Transaction
	for _, row := range merged {
		if row.Description == "swiggy" {
			hits = append(hits, row)
		}
	}
	require.Len(t, hits, 1, "duplicate descriptions must collapse to a single row")
	assert.Equal(t, "Groceries", hits[0].Category, "the correction must win over the stale corpus label")
	assert.Equal(t, len(testCorpus()), len(merged))

	// Position of the first occurrence is preserved.
	assert.Equal(t, "swiggy", merged[0].Description)
}

func TestPipeline_EmptyFeedbackPreservesCorpusDuplicates(t *testing.T) {
	paths := config.NewPaths(t.TempDir())

	// A corpus that already carries a repeated description, with conflicting
	// labels. Without feedback it must pass through untouched.
	corpus := append(testCorpus(),
		model.Transaction{ID: "TXN000007", Description: "swiggy", Amount: 300, Category: "Groceries"})
	require.NoError(t, storage.SaveCorpus(paths.CorpusPath(), corpus))

	feedback, err := storage.NewFeedbackStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = feedback.Close() })

	p := New(paths, &fakeEmbedder{dim: 8}, feedback, normalize.New(), WithTrainConfig(testTrainConfig()))
	_, err = p.Run(context.Background())
	require.NoError(t, err)

	merged, err := storage.LoadCorpus(paths.MergedCorpusPath())
	require.NoError(t, err)
	assert.Equal(t, corpus, merged, "zero feedback must leave the corpus byte-equivalent, duplicates and all")
	assert.Equal(t, "Food & Dining", merged[0].Category, "the first duplicate's label must not be rewritten")
}

func TestPipeline_MergeAppendsNewDescriptions(t *testing.T) {
	p, paths, feedback := setupPipeline(t, &fakeEmbedder{dim: 8})
	ctx := context.Background()

	require.NoError(t, feedback.Append(ctx, model.FeedbackRecord{
		Description:       "Apollo Pharmacy invoice 33",
		PredictedCategory: model.Uncertain,
		CorrectedCategory: "Health & Fitness",
		Method:            "low_confidence",
		Confidence:        0.4,
	}))

	_, err := p.Run(ctx)
	require.NoError(t, err)

	merged, err := storage.LoadCorpus(paths.MergedCorpusPath())
	require.NoError(t, err)
	require.Len(t, merged, len(testCorpus())+1)

	last := merged[len(merged)-1]
	assert.Equal(t, "apollo", last.Description, "feedback descriptions are normalized before merging")
	assert.Equal(t, "Health & Fitness", last.Category)
	assert.Equal(t, "FB000001", last.ID)
}

func TestPipeline_LockPreventsConcurrentRuns(t *testing.T) {
	p, paths, _ := setupPipeline(t, &fakeEmbedder{dim: 8})

	require.NoError(t, os.MkdirAll(paths.DataDir, 0o750))
	require.NoError(t, os.WriteFile(paths.RetrainLockPath(), nil, 0o640))

	_, err := p.Run(context.Background())
	assert.ErrorIs(t, err, common.ErrRetrainInProgress)
}

func TestPipeline_LockReleasedAfterRun(t *testing.T) {
	p, paths, _ := setupPipeline(t, &fakeEmbedder{dim: 8})

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	_, statErr := os.Stat(paths.RetrainLockPath())
	assert.True(t, os.IsNotExist(statErr))

	// A second run proceeds normally.
	_, err = p.Run(context.Background())
	assert.NoError(t, err)
}

func TestPipeline_FailureLeavesServingArtifact(t *testing.T) {
	embedErr := errors.New("encoder unavailable")
	p, paths, _ := setupPipeline(t, &fakeEmbedder{dim: 8, err: embedErr})

	// A previous model is already serving.
	previous, err := classifier.Train(
		[][]float32{{1, 0}, {0.9, 0.1}, {0, 1}, {0.1, 0.9}},
		[]string{"Fuel", "Fuel", "Groceries", "Groceries"},
		testTrainConfig(),
	)
	require.NoError(t, err)
	require.NoError(t, previous.Save(paths.ModelPath()))

	_, err = p.Run(context.Background())
	require.ErrorIs(t, err, embedErr)

	// The serving artifact is untouched.
	still, err := classifier.Load(paths.ModelPath())
	require.NoError(t, err)
	assert.Equal(t, previous.Classes, still.Classes)
	assert.Equal(t, previous.Weights, still.Weights)
}

func TestPipeline_MissingCorpusIsSchemaFailure(t *testing.T) {
	paths := config.NewPaths(t.TempDir())
	feedback, err := storage.NewFeedbackStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = feedback.Close() })

	p := New(paths, &fakeEmbedder{dim: 8}, feedback, normalize.New())
	_, err = p.Run(context.Background())
	assert.Error(t, err)
}
