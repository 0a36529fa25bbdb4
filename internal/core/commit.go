package core

import (
	"context"

	lerrors "github.com/kilupskalvis/langvc/internal/errors"
	"github.com/kilupskalvis/langvc/internal/logging"
	"github.com/kilupskalvis/langvc/internal/models"
	"go.uber.org/zap"
)

// Commit validates and writes a set of changes as one atomic commit
func (e *Engine) Commit(ctx context.Context, req models.CommitRequest) (*models.Commit, error) {
	if err := validateMessage(req.Message); err != nil {
		return nil, err
	}
	if len(req.Changes) == 0 {
		return nil, lerrors.Validation("nothing to commit")
	}
	if req.Source == "" {
		req.Source = models.SourceManual
	}

	seen := make(map[models.Key]bool, len(req.Changes))
	for _, change := range req.Changes {
		if err := change.Key.Validate(); err != nil {
			return nil, err
		}
		if seen[change.Key] {
			return nil, lerrors.Validation("duplicate key %s in commit", change.Key)
		}
		seen[change.Key] = true
	}

	commit, err := e.store.CreateCommit(ctx, req)
	if err != nil {
		e.logger.Error("commit failed", zap.Error(err), zap.Int("changes", len(req.Changes)))
		return nil, err
	}

	e.logger.Info("committed",
		zap.Int64("commit", commit.ID),
		zap.String("source", commit.Source),
		zap.Int("revisions", len(commit.Revisions)),
	)
	return commit, nil
}

// CommitStaged commits the editor's committable staged entries. Entries
// whose baseline went stale are left staged and reported in NeedsRebase;
// no-op entries are left staged and reported in Unchanged. The result has a
// nil Commit when nothing was committable.
func (e *Engine) CommitStaged(ctx context.Context, editorID int64, req models.CommitStagedRequest) (*models.CommitStagedResult, error) {
	if err := validateEditor(editorID); err != nil {
		return nil, err
	}
	if err := validateMessage(req.Message); err != nil {
		return nil, err
	}
	if req.Source == "" {
		req.Source = models.SourceManual
	}

	log := logging.ForEditor(e.logger, editorID)
	result, err := e.store.CommitStaged(ctx, editorID, req)
	if err != nil {
		log.Error("commit of staged strings failed", zap.Error(err))
		return nil, err
	}

	if result.Commit == nil {
		log.Info("nothing committable",
			zap.Int("stale", len(result.NeedsRebase)),
			zap.Int("unchanged", len(result.Unchanged)),
		)
		return result, nil
	}

	log.Info("committed staged strings",
		zap.Int64("commit", result.Commit.ID),
		zap.Int("committed", len(result.Committed)),
		zap.Int("stale", len(result.NeedsRebase)),
		zap.Int("unchanged", len(result.Unchanged)),
	)
	return result, nil
}

// QueryLog returns matching commits, newest first. A zero limit uses the
// configured log limit.
func (e *Engine) QueryLog(ctx context.Context, f models.LogFilter) (*models.LogResult, error) {
	if f.Limit <= 0 {
		f.Limit = e.opts.LogLimit
	}
	if !f.CommittedAfter.IsZero() && !f.CommittedBefore.IsZero() && !f.CommittedAfter.Before(f.CommittedBefore) {
		return nil, lerrors.Validation("empty time range: %s is not before %s",
			f.CommittedAfter.Format("2006-01-02 15:04"), f.CommittedBefore.Format("2006-01-02 15:04"))
	}

	result, err := e.store.QueryLog(ctx, f)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("log query",
		zap.Int("commits", result.NumCommits),
		zap.Int("strings", result.NumStrings),
		zap.Bool("above_limit", result.AboveLimit()),
	)
	return result, nil
}

// GetCommit returns a commit with all of its revisions
func (e *Engine) GetCommit(ctx context.Context, id int64) (*models.Commit, error) {
	return e.store.GetCommit(ctx, id)
}
