package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/transactly/transactly/internal/classifier"
	"github.com/transactly/transactly/internal/common"
	"github.com/transactly/transactly/internal/config"
	"github.com/transactly/transactly/internal/embedding"
	"github.com/transactly/transactly/internal/engine"
	"github.com/transactly/transactly/internal/normalize"
	"github.com/transactly/transactly/internal/rules"
	"github.com/transactly/transactly/internal/storage"
)

func dataPaths() config.Paths {
	return config.NewPaths(viper.GetString("data.dir"))
}

// buildEngine wires up the full inference stack: normalizer, rule matcher,
// shared encoder, serving model, and (when present) the reference embedding
// store for explanations.
func buildEngine(paths config.Paths) (*engine.Engine, *embedding.Provider, error) {
	m, err := classifier.Load(paths.ModelPath())
	if err != nil {
		if errors.Is(err, common.ErrModelNotFound) {
			return nil, nil, common.NewUserError("No trained model found. Run 'transactly retrain' first.", err)
		}
		return nil, nil, err
	}

	provider := embedding.NewProvider(paths.ModelCacheDir())
	if m.Dim != provider.Dimension() {
		_ = provider.Close()
		return nil, nil, fmt.Errorf("model trained on %d dimensions but encoder produces %d", m.Dim, provider.Dimension())
	}

	opts := []engine.Option{}
	refStore, err := storage.LoadEmbeddingStore(paths.EmbeddingStorePath())
	switch {
	case err == nil:
		opts = append(opts, engine.WithReferenceStore(refStore))
	case errors.Is(err, fs.ErrNotExist):
		slog.Warn("No embedding store found; similar-example explanations disabled",
			"path", paths.EmbeddingStorePath())
	default:
		_ = provider.Close()
		return nil, nil, err
	}

	eng, err := engine.New(normalize.New(), rules.NewMatcher(), provider, m, opts...)
	if err != nil {
		_ = provider.Close()
		return nil, nil, err
	}
	return eng, provider, nil
}
