package storage

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/transactly/transactly/internal/common"
)

// EmbeddingStore holds reference embeddings in 1:1 positional correspondence
// with their normalized texts. The two slices are always regenerated and
// saved together; the store is never patched in place.
type EmbeddingStore struct {
	Texts   []string
	Vectors [][]float32
	Dim     int
}

// NewEmbeddingStore validates positional correspondence and dimensional
// uniformity before wrapping the data.
func NewEmbeddingStore(texts []string, vectors [][]float32) (*EmbeddingStore, error) {
	if len(texts) != len(vectors) {
		return nil, fmt.Errorf("%w: %d texts but %d vectors", common.ErrSchema, len(texts), len(vectors))
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: embedding store cannot be empty", common.ErrSchema)
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has %d dimensions, want %d",
				common.ErrDimensionMismatch, i, len(v), dim)
		}
	}
	return &EmbeddingStore{Texts: texts, Vectors: vectors, Dim: dim}, nil
}

// Len returns the number of stored reference embeddings.
func (s *EmbeddingStore) Len() int { return len(s.Texts) }

// Save writes the store via temp-file-then-rename so concurrent readers see
// either the old or the new complete store.
func (s *EmbeddingStore) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating embedding store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temporary embedding store: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := gob.NewEncoder(tmp).Encode(s); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encoding embedding store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temporary embedding store: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing embedding store: %w", err)
	}
	return nil
}

// LoadEmbeddingStore reads and validates a store from path. A missing file
// is reported as ErrLoad with a not-exist cause so callers can treat the
// explanation store as optional.
func LoadEmbeddingStore(path string) (*EmbeddingStore, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: no embedding store at %s: %w", common.ErrLoad, path, fs.ErrNotExist)
		}
		return nil, fmt.Errorf("%w: opening embedding store: %v", common.ErrLoad, err)
	}
	defer func() { _ = f.Close() }()

	var s EmbeddingStore
	if err := gob.NewDecoder(f).Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: decoding embedding store %s: %v", common.ErrLoad, path, err)
	}
	if len(s.Texts) != len(s.Vectors) {
		return nil, fmt.Errorf("%w: embedding store %s has %d texts but %d vectors",
			common.ErrLoad, path, len(s.Texts), len(s.Vectors))
	}
	for i, v := range s.Vectors {
		if len(v) != s.Dim {
			return nil, fmt.Errorf("%w: embedding store %s vector %d has %d dimensions, want %d",
				common.ErrDimensionMismatch, path, i, len(v), s.Dim)
		}
	}
	return &s, nil
}
