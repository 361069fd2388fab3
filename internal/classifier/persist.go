package classifier

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/transactly/transactly/internal/common"
)

// Save persists the model to path. The artifact is written to a temporary
// file in the same directory and atomically renamed into place, so a
// concurrent reader always sees either the previous or the new complete
// artifact, never a partial one.
func (m *Model) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating model directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temporary model file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := gob.NewEncoder(tmp).Encode(m); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encoding model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temporary model file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing model artifact: %w", err)
	}

	slog.Info("Model artifact saved", "path", path, "dimensions", m.Dim, "categories", len(m.Classes))
	return nil
}

// Load reads a model artifact from path. A missing artifact is reported as
// ErrModelNotFound; a corrupt or incompatible artifact as ErrLoad.
func Load(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: no trained model at %s (run retrain first)", common.ErrModelNotFound, path)
		}
		return nil, fmt.Errorf("%w: opening model artifact: %v", common.ErrLoad, err)
	}
	defer func() { _ = f.Close() }()

	var m Model
	if err := gob.NewDecoder(f).Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: decoding model artifact %s: %v", common.ErrLoad, path, err)
	}
	if m.Version != ArtifactVersion {
		return nil, fmt.Errorf("%w: model artifact version %d, want %d", common.ErrLoad, m.Version, ArtifactVersion)
	}
	if m.Dim <= 0 || len(m.Classes) == 0 || len(m.Weights) != len(m.Classes)*m.Dim || len(m.Bias) != len(m.Classes) {
		return nil, fmt.Errorf("%w: model artifact %s is inconsistent", common.ErrLoad, path)
	}
	return &m, nil
}
