package core

import (
	"context"

	lerrors "github.com/kilupskalvis/langvc/internal/errors"
	"github.com/kilupskalvis/langvc/internal/logging"
	"github.com/kilupskalvis/langvc/internal/models"
	"go.uber.org/zap"
)

// Stage proposes a new value for key in the editor's staging area. A nil
// or blank text proposes removing the string.
func (e *Engine) Stage(ctx context.Context, editorID int64, key models.Key, text *string) (*models.StagedEntry, error) {
	if err := validateEditor(editorID); err != nil {
		return nil, err
	}
	if err := validateKeys(key); err != nil {
		return nil, err
	}

	entry, err := e.store.Stage(ctx, editorID, key, text)
	if err != nil {
		return nil, err
	}
	logging.ForEditor(e.logger, editorID).Debug("staged",
		zap.Stringer("key", key),
		zap.String("status", string(entry.Status)),
	)
	return entry, nil
}

// Unstage removes key from the editor's staging area
func (e *Engine) Unstage(ctx context.Context, editorID int64, key models.Key) error {
	if err := validateEditor(editorID); err != nil {
		return err
	}
	removed, err := e.store.Unstage(ctx, editorID, key)
	if err != nil {
		return err
	}
	if !removed {
		return lerrors.NotFound("%s is not staged", key)
	}
	return nil
}

// UnstageAll clears the editor's staging area
func (e *Engine) UnstageAll(ctx context.Context, editorID int64) (int, error) {
	if err := validateEditor(editorID); err != nil {
		return 0, err
	}
	n, err := e.store.UnstageAll(ctx, editorID)
	if err != nil {
		return 0, err
	}
	logging.ForEditor(e.logger, editorID).Info("unstaged all", zap.Int("count", n))
	return n, nil
}

// Prune drops the editor's stale and no-op entries
func (e *Engine) Prune(ctx context.Context, editorID int64) (int, error) {
	if err := validateEditor(editorID); err != nil {
		return 0, err
	}
	n, err := e.store.Prune(ctx, editorID)
	if err != nil {
		return 0, err
	}
	logging.ForEditor(e.logger, editorID).Info("pruned staging area", zap.Int("pruned", n))
	return n, nil
}

// Rebase refreshes the baselines of the editor's staging area to the live
// values, dropping entries that became no-ops
func (e *Engine) Rebase(ctx context.Context, editorID int64) (*models.RebaseResult, error) {
	if err := validateEditor(editorID); err != nil {
		return nil, err
	}
	result, err := e.store.Rebase(ctx, editorID)
	if err != nil {
		return nil, err
	}
	logging.ForEditor(e.logger, editorID).Info("rebased staging area",
		zap.Int("rebased", result.Rebased),
		zap.Int("dropped", result.Dropped),
		zap.Int("kept", result.Kept),
	)
	return result, nil
}

// Staged returns the editor's staged entries with their status
func (e *Engine) Staged(ctx context.Context, editorID int64) ([]*models.StagedEntry, error) {
	if err := validateEditor(editorID); err != nil {
		return nil, err
	}
	return e.store.Staged(ctx, editorID)
}
