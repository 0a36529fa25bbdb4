// Package core implements langvc operations on top of the store: commits,
// per-editor staging areas, stashes, the commit log and the translator view.
package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/kilupskalvis/langvc/internal/catalog"
	"github.com/kilupskalvis/langvc/internal/config"
	lerrors "github.com/kilupskalvis/langvc/internal/errors"
	"github.com/kilupskalvis/langvc/internal/models"
	"github.com/kilupskalvis/langvc/internal/store"
	"go.uber.org/zap"
)

// Options tunes an Engine. Zero values fall back to the config defaults.
type Options struct {
	LogLimit          int
	TranslatorPerPage int
}

// Engine coordinates the store, the catalog caches and logging
type Engine struct {
	store   *store.Store
	catalog *catalog.Catalog
	logger  *zap.Logger
	opts    Options
	now     func() time.Time
}

// NewEngine creates an engine. A nil logger discards log output.
func NewEngine(st *store.Store, cat *catalog.Catalog, logger *zap.Logger, opts Options) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.LogLimit <= 0 {
		opts.LogLimit = config.DefaultLogLimit
	}
	if opts.TranslatorPerPage <= 0 {
		opts.TranslatorPerPage = config.DefaultTranslatorPerPage
	}
	return &Engine{
		store:   st,
		catalog: cat,
		logger:  logger,
		opts:    opts,
		now:     time.Now,
	}
}

// Open opens the repository store described by cfg, runs pending
// migrations and returns an engine over it. The caller closes the store.
func Open(cfg *config.Config, logger *zap.Logger) (*Engine, *store.Store, error) {
	st, err := store.New(cfg.DatabasePath())
	if err != nil {
		return nil, nil, err
	}
	if err := st.RunMigrations(); err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	cat, err := catalog.New(cfg.StandardComponents, st)
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	engine := NewEngine(st, cat, logger, Options{
		LogLimit:          cfg.LogLimit,
		TranslatorPerPage: cfg.TranslatorPerPage,
	})
	return engine, st, nil
}

// Catalog returns the engine's reference list cache
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

func validateEditor(editorID int64) error {
	if editorID <= 0 {
		return lerrors.Validation("invalid editor id %d", editorID)
	}
	return nil
}

func validateMessage(message string) error {
	if strings.TrimSpace(message) == "" {
		return lerrors.Validation("commit message is required")
	}
	return nil
}

func validateKeys(keys ...models.Key) error {
	for _, k := range keys {
		if err := k.Validate(); err != nil {
			return err
		}
	}
	return nil
}
