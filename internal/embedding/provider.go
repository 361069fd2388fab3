// Package embedding provides deterministic text embeddings via a local ONNX
// sentence encoder.
package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	fastembed "github.com/anush008/fastembed-go"

	"github.com/transactly/transactly/internal/common"
)

// Dim is the embedding dimensionality of the encoder. It is fixed for the
// lifetime of any trained classifier.
const Dim = 384

// encoderModel is the frozen pretrained encoder. Its weights are an external
// artifact; this package only guarantees text -> 384-d vector.
const encoderModel = fastembed.AllMiniLML6V2

// defaultBatchSize bounds how many texts are encoded per ONNX call.
const defaultBatchSize = 32

// Provider lazily initializes a single shared encoder instance and reuses it
// for every call in the process. Encoding is deterministic for identical
// input text and a fixed encoder version.
type Provider struct {
	model    *fastembed.FlagEmbedding
	initErr  error
	cacheDir string
	once     sync.Once
}

// NewProvider creates a Provider that caches encoder weights under cacheDir.
// The encoder itself is not loaded until the first Embed call.
func NewProvider(cacheDir string) *Provider {
	return &Provider{cacheDir: cacheDir}
}

func (p *Provider) init() {
	slog.Info("Loading embedding model", "model", string(encoderModel), "cache_dir", p.cacheDir)
	showProgress := false
	model, err := fastembed.NewFlagEmbedding(&fastembed.InitOptions{
		Model:                encoderModel,
		CacheDir:             p.cacheDir,
		MaxLength:            512,
		ShowDownloadProgress: &showProgress,
	})
	if err != nil {
		p.initErr = fmt.Errorf("%w: initializing encoder %s: %v", common.ErrLoad, encoderModel, err)
		return
	}
	p.model = model
}

// Embed maps a batch of normalized texts to fixed-dimension vectors, in
// input order. The first call initializes the shared encoder; a failed
// initialization is reported as ErrLoad on every call.
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	p.once.Do(p.init)
	if p.initErr != nil {
		return nil, p.initErr
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	vecs, err := p.model.Embed(texts, defaultBatchSize)
	if err != nil {
		return nil, fmt.Errorf("encoding %d texts: %w", len(texts), err)
	}
	for i, v := range vecs {
		if len(v) != Dim {
			return nil, fmt.Errorf("%w: encoder returned %d dimensions for text %d, want %d",
				common.ErrDimensionMismatch, len(v), i, Dim)
		}
	}
	return vecs, nil
}

// Dimension returns the encoder's output dimensionality.
func (p *Provider) Dimension() int { return Dim }

// Close releases the ONNX runtime resources held by the encoder.
func (p *Provider) Close() error {
	if p.model != nil {
		return p.model.Destroy()
	}
	return nil
}
