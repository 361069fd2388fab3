// Package retrain implements the offline learning loop: merge accumulated
// feedback into the corpus, regenerate every embedding, refit the classifier
// and atomically replace the serving artifact.
//
// Retraining always refits from scratch over the full merged corpus. The
// encoder is frozen and deterministic, so a full recompute is the simplest
// way to keep the embedding store and the classifier mutually consistent
// (same rows, same order, same dimension) after every feedback merge.
package retrain

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"

	"github.com/transactly/transactly/internal/classifier"
	"github.com/transactly/transactly/internal/common"
	"github.com/transactly/transactly/internal/config"
	"github.com/transactly/transactly/internal/model"
	"github.com/transactly/transactly/internal/normalize"
	"github.com/transactly/transactly/internal/service"
	"github.com/transactly/transactly/internal/storage"
)

// embedBatchSize bounds how many texts go to the encoder per call during
// regeneration.
const embedBatchSize = 32

// Pipeline regenerates the training artifacts from the canonical corpus and
// the feedback log. A failed run never mutates the serving artifact: the
// model swap is the last step and is atomic.
type Pipeline struct {
	paths      config.Paths
	embedder   service.Embedder
	feedback   service.FeedbackStore
	normalizer *normalize.Normalizer
	trainCfg   classifier.TrainConfig
	progress   bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTrainConfig overrides the classifier training configuration.
func WithTrainConfig(cfg classifier.TrainConfig) Option {
	return func(p *Pipeline) { p.trainCfg = cfg }
}

// WithProgress enables a progress bar during embedding regeneration.
func WithProgress(enabled bool) Option {
	return func(p *Pipeline) { p.progress = enabled }
}

// New creates a retraining pipeline.
func New(paths config.Paths, embedder service.Embedder, feedback service.FeedbackStore, normalizer *normalize.Normalizer, opts ...Option) *Pipeline {
	p := &Pipeline{
		paths:      paths,
		embedder:   embedder,
		feedback:   feedback,
		normalizer: normalizer,
		trainCfg:   classifier.DefaultTrainConfig(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the full retraining pipeline and returns the new model. Runs
// are mutually exclusive via a lock file and idempotent: a re-run after a
// failure rebuilds everything from the persisted corpus and feedback log.
func (p *Pipeline) Run(ctx context.Context) (*classifier.Model, error) {
	unlock, err := p.acquireLock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	corpus, err := storage.LoadCorpus(p.paths.CorpusPath())
	if err != nil {
		return nil, fmt.Errorf("loading canonical corpus: %w", err)
	}

	feedback, err := p.feedback.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading feedback: %w", err)
	}

	merged := p.merge(corpus, feedback)
	if err := storage.SaveCorpus(p.paths.MergedCorpusPath(), merged); err != nil {
		return nil, fmt.Errorf("persisting merged corpus: %w", err)
	}
	slog.Info("Merged corpus saved",
		"path", p.paths.MergedCorpusPath(),
		"corpus_rows", len(corpus),
		"feedback_rows", len(feedback),
		"merged_rows", len(merged))

	texts, vectors, err := p.regenerate(ctx, merged)
	if err != nil {
		return nil, fmt.Errorf("regenerating embeddings: %w", err)
	}

	store, err := storage.NewEmbeddingStore(texts, vectors)
	if err != nil {
		return nil, err
	}
	if err := store.Save(p.paths.EmbeddingStorePath()); err != nil {
		return nil, fmt.Errorf("persisting embedding store: %w", err)
	}

	labels := make([]string, len(merged))
	for i, row := range merged {
		labels[i] = row.Category
	}

	m, err := classifier.Train(vectors, labels, p.trainCfg)
	if err != nil {
		return nil, fmt.Errorf("training classifier: %w", err)
	}

	// Atomic swap happens only after training succeeded; a failure anywhere
	// above leaves the previous artifact serving.
	if err := m.Save(p.paths.ModelPath()); err != nil {
		return nil, fmt.Errorf("replacing serving model: %w", err)
	}

	slog.Info("Retraining complete",
		"model", p.paths.ModelPath(),
		"accuracy", fmt.Sprintf("%.4f", m.Metrics.Accuracy),
		"macro_f1", fmt.Sprintf("%.4f", m.Metrics.MacroF1))
	return m, nil
}

// merge appends normalized feedback corrections to the corpus and drops
// duplicate descriptions.
//
// With zero feedback the corpus passes through untouched, duplicates
// included: the merged corpus must be byte-equivalent to the canonical one.
// Dedup only runs when feedback is being folded in; on duplicate
// descriptions the latest occurrence wins (a correction must override a
// stale corpus label), keeping the position of the first occurrence.
func (p *Pipeline) merge(corpus []model.Transaction, feedback []model.FeedbackRecord) []model.Transaction {
	if len(feedback) == 0 {
		return corpus
	}

	rows := make([]model.Transaction, 0, len(corpus)+len(feedback))
	rows = append(rows, corpus...)
	for i, fb := range feedback {
		rows = append(rows, model.Transaction{
			ID:          fmt.Sprintf("FB%06d", i+1),
			Description: p.normalizer.Normalize(fb.Description),
			Category:    model.NormalizeLabel(fb.CorrectedCategory),
		})
	}

	merged := rows[:0:0]
	position := make(map[string]int, len(rows))
	for _, row := range rows {
		if at, seen := position[row.Description]; seen {
			merged[at].Category = row.Category
			continue
		}
		position[row.Description] = len(merged)
		merged = append(merged, row)
	}
	return merged
}

// regenerate embeds the normalized description of every merged row, in row
// order. Full recompute, never incremental.
func (p *Pipeline) regenerate(ctx context.Context, merged []model.Transaction) ([]string, [][]float32, error) {
	texts := make([]string, len(merged))
	for i, row := range merged {
		texts[i] = p.normalizer.Normalize(row.Description)
	}

	var bar *progressbar.ProgressBar
	if p.progress {
		bar = progressbar.Default(int64(len(texts)), "embedding")
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := p.embedder.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, nil, err
		}
		vectors = append(vectors, batch...)
		if bar != nil {
			_ = bar.Add(end - start)
		}
	}
	return texts, vectors, nil
}

// acquireLock takes the retraining lock file, failing fast when another run
// holds it.
func (p *Pipeline) acquireLock() (func(), error) {
	lockPath := p.paths.RetrainLockPath()
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("%w: lock file %s exists", common.ErrRetrainInProgress, lockPath)
		}
		return nil, fmt.Errorf("acquiring retrain lock: %w", err)
	}
	_ = f.Close()

	return func() {
		if err := os.Remove(lockPath); err != nil {
			slog.Warn("Failed to remove retrain lock", "path", lockPath, "error", err)
		}
	}, nil
}
