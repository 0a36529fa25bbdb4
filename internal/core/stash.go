package core

import (
	"context"
	"strings"
	"unicode/utf8"

	lerrors "github.com/kilupskalvis/langvc/internal/errors"
	"github.com/kilupskalvis/langvc/internal/logging"
	"github.com/kilupskalvis/langvc/internal/models"
	"go.uber.org/zap"
)

// MaxStashNameLength is the longest accepted stash name, in characters
const MaxStashNameLength = 255

// stashNameLayout formats the default stash name
const stashNameLayout = "Mon, 2 Jan 2006, 15:04"

// StashPush moves the editor's staging area into a new stash. An empty
// name defaults to "WIP - <date>".
func (e *Engine) StashPush(ctx context.Context, editorID int64, name string) (*models.Stash, error) {
	if err := validateEditor(editorID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "WIP - " + e.now().Format(stashNameLayout)
	}
	if utf8.RuneCountInString(name) > MaxStashNameLength {
		return nil, lerrors.Validation("stash name longer than %d characters", MaxStashNameLength)
	}

	stash, err := e.store.PushStash(ctx, editorID, name)
	if err != nil {
		return nil, err
	}
	logging.ForEditor(e.logger, editorID).Info("stashed",
		zap.Int64("stash", stash.ID),
		zap.Int("strings", stash.Strings),
	)
	return stash, nil
}

// StashApply copies a stash into the editor's staging area and keeps the stash
func (e *Engine) StashApply(ctx context.Context, editorID, stashID int64) (*models.Stash, error) {
	return e.applyStash(ctx, editorID, stashID, false)
}

// StashRestore copies a stash into the editor's staging area and deletes it
func (e *Engine) StashRestore(ctx context.Context, editorID, stashID int64) (*models.Stash, error) {
	return e.applyStash(ctx, editorID, stashID, true)
}

func (e *Engine) applyStash(ctx context.Context, editorID, stashID int64, remove bool) (*models.Stash, error) {
	if err := validateEditor(editorID); err != nil {
		return nil, err
	}

	log := logging.ForEditor(e.logger, editorID)
	stash, err := e.store.ApplyStash(ctx, editorID, stashID, remove)
	if err != nil {
		if lerrors.Is(err, lerrors.KindAuthorization) {
			log.Warn("stash access denied", zap.Int64("stash", stashID))
		}
		return nil, err
	}
	log.Info("applied stash",
		zap.Int64("stash", stash.ID),
		zap.Int("strings", stash.Strings),
		zap.Bool("removed", remove),
	)
	return stash, nil
}

// StashDrop deletes one of the editor's stashes
func (e *Engine) StashDrop(ctx context.Context, editorID, stashID int64) error {
	if err := validateEditor(editorID); err != nil {
		return err
	}
	if err := e.store.DropStash(ctx, editorID, stashID); err != nil {
		return err
	}
	logging.ForEditor(e.logger, editorID).Info("dropped stash", zap.Int64("stash", stashID))
	return nil
}

// Autosave creates or overwrites the editor's autosave stash. The staging
// area is left in place.
func (e *Engine) Autosave(ctx context.Context, editorID int64) (*models.Stash, error) {
	if err := validateEditor(editorID); err != nil {
		return nil, err
	}
	stash, err := e.store.Autosave(ctx, editorID)
	if err != nil {
		return nil, err
	}
	logging.ForEditor(e.logger, editorID).Debug("autosaved", zap.Int("strings", stash.Strings))
	return stash, nil
}

// StashList returns the editor's stashes, newest first
func (e *Engine) StashList(ctx context.Context, editorID int64) ([]*models.Stash, error) {
	if err := validateEditor(editorID); err != nil {
		return nil, err
	}
	return e.store.ListStashes(ctx, editorID)
}

// StashGet returns one of the editor's stashes with its entries
func (e *Engine) StashGet(ctx context.Context, editorID, stashID int64) (*models.Stash, error) {
	if err := validateEditor(editorID); err != nil {
		return nil, err
	}
	stash, err := e.store.GetStash(ctx, stashID)
	if err != nil {
		return nil, err
	}
	if stash.OwnerID != editorID {
		return nil, lerrors.Authorization("stash %d does not belong to editor %d", stashID, editorID)
	}
	return stash, nil
}
