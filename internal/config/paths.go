package config

import "path/filepath"

// DefaultDataDir is where artifacts live when no data.dir is configured.
const DefaultDataDir = "~/.local/share/transactly"

// Paths describes the on-disk layout of every artifact the engine reads or
// writes. All serving artifacts are replaced via write-to-temp-then-rename so
// concurrent readers never observe a partial file.
type Paths struct {
	DataDir string
}

// NewPaths builds a Paths rooted at dataDir, expanding ~ and env vars.
func NewPaths(dataDir string) Paths {
	if dataDir == "" {
		dataDir = DefaultDataDir
	}
	return Paths{DataDir: ExpandPath(dataDir)}
}

// CorpusPath is the canonical training corpus CSV.
func (p Paths) CorpusPath() string {
	return filepath.Join(p.DataDir, "processed", "transactions.csv")
}

// MergedCorpusPath is the feedback-merged corpus written by retraining.
func (p Paths) MergedCorpusPath() string {
	return filepath.Join(p.DataDir, "processed", "transactions-retrained.csv")
}

// EmbeddingStorePath holds the reference embeddings and their parallel texts.
func (p Paths) EmbeddingStorePath() string {
	return filepath.Join(p.DataDir, "processed", "embeddings.gob")
}

// ModelPath is the serving classifier artifact.
func (p Paths) ModelPath() string {
	return filepath.Join(p.DataDir, "models", "classifier-v1.gob")
}

// FeedbackDBPath is the append-only feedback log.
func (p Paths) FeedbackDBPath() string {
	return filepath.Join(p.DataDir, "feedback.db")
}

// RetrainLockPath guards against concurrent retraining runs.
func (p Paths) RetrainLockPath() string {
	return filepath.Join(p.DataDir, "retrain.lock")
}

// ModelCacheDir caches the downloaded encoder weights.
func (p Paths) ModelCacheDir() string {
	return filepath.Join(p.DataDir, "cache")
}
