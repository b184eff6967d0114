// Package store persists built successor models so a corpus only has to be
// ingested once. Models can live in SQLite, a libsql server or Redis.
package store

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/japaniel/versegen/pkg/model"
)

// ErrModelNotFound is returned by Load when no complete model is stored
// under the requested corpus name.
var ErrModelNotFound = errors.New("model not found")

// ModelStore loads and saves models by corpus name.
type ModelStore interface {
	Load(ctx context.Context, corpus string) (*model.Model, error)
	Save(ctx context.Context, corpus string, m *model.Model) error
}

// BuildFunc produces a model from scratch.
type BuildFunc func(ctx context.Context) (*model.Model, error)

// LoadOrBuild returns the stored model for corpus, building and saving it
// when none is stored yet.
func LoadOrBuild(ctx context.Context, s ModelStore, corpus string, build BuildFunc, logger *log.Logger) (*model.Model, error) {
	m, err := s.Load(ctx, corpus)
	if err == nil {
		if logger != nil {
			logger.Printf("Loaded model %q (%d pairs)", corpus, m.Len())
		}
		return m, nil
	}
	if !errors.Is(err, ErrModelNotFound) {
		return nil, fmt.Errorf("load model %q: %w", corpus, err)
	}

	if logger != nil {
		logger.Printf("No stored model for %q, building", corpus)
	}
	m, err = build(ctx)
	if err != nil {
		return nil, fmt.Errorf("build model %q: %w", corpus, err)
	}
	if err := s.Save(ctx, corpus, m); err != nil {
		return nil, fmt.Errorf("save model %q: %w", corpus, err)
	}
	return m, nil
}
