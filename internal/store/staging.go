package store

import (
	"context"

	lerrors "github.com/kilupskalvis/langvc/internal/errors"
	"github.com/kilupskalvis/langvc/internal/models"
)

// Stage records a proposed new value for key in the editor's staging area.
// The live value is captured as the baseline on first staging; staging the
// same key again replaces the new value and keeps the original baseline.
func (s *Store) Stage(ctx context.Context, editorID int64, key models.Key, newText *string) (*models.StagedEntry, error) {
	var entry *models.StagedEntry
	err := s.withTx(ctx, func(tx *txn) error {
		rev, err := current(ctx, tx, key)
		if err != nil {
			return err
		}
		live := rev.Value()

		_, err = tx.ExecContext(ctx, `
			INSERT INTO staged (editor_id, branch, lang, component, string_id, baseline, new_text, staged_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (editor_id, branch, lang, component, string_id)
			DO UPDATE SET new_text = excluded.new_text, staged_at = excluded.staged_at
		`, editorID, key.Branch, key.Lang, key.Component, key.StringID, nullable(live), nullable(newText), s.now().Unix())
		if err != nil {
			return lerrors.Storage(err, "stage %s", key)
		}

		entries, err := stagedEntries(ctx, tx, editorID, &key)
		if err != nil {
			return err
		}
		if len(entries) == 1 {
			entry = entries[0]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Staged returns the editor's staged entries in canonical key order, each
// evaluated against the live value read in the same query.
func (s *Store) Staged(ctx context.Context, editorID int64) ([]*models.StagedEntry, error) {
	return stagedEntries(ctx, s.db, editorID, nil)
}

// stagedEntries loads staged entries, optionally for a single key
func stagedEntries(ctx context.Context, q querier, editorID int64, key *models.Key) ([]*models.StagedEntry, error) {
	query := `
		SELECT s.branch, s.lang, s.component, s.string_id, s.baseline, s.new_text, s.staged_at,
			CASE WHEN r.deleted = 0 THEN t.content END
		FROM staged s
		LEFT JOIN head h ON h.branch = s.branch AND h.lang = s.lang
			AND h.component = s.component AND h.string_id = s.string_id
		LEFT JOIN repository r ON r.id = h.repository_id
		LEFT JOIN texts t ON t.id = r.text_id
		WHERE s.editor_id = ?`
	args := []any{editorID}
	if key != nil {
		query += " AND s.branch = ? AND s.lang = ? AND s.component = ? AND s.string_id = ?"
		args = append(args, key.Branch, key.Lang, key.Component, key.StringID)
	}
	query += " ORDER BY s.branch DESC, s.lang, s.component, s.string_id"

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, lerrors.Storage(err, "query staged entries")
	}
	defer rows.Close()

	var entries []*models.StagedEntry
	for rows.Next() {
		e := &models.StagedEntry{EditorID: editorID}
		var stagedAt int64
		var live *string
		if err := rows.Scan(&e.Branch, &e.Lang, &e.Component, &e.StringID, &e.Baseline, &e.New, &stagedAt, &live); err != nil {
			return nil, lerrors.Storage(err, "scan staged entry")
		}
		e.StagedAt = unixTime(stagedAt)
		e.Evaluate(live)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, lerrors.Storage(err, "query staged entries")
	}
	return entries, nil
}

// Unstage removes one key from the editor's staging area. It reports
// whether the key was staged.
func (s *Store) Unstage(ctx context.Context, editorID int64, key models.Key) (bool, error) {
	n, err := unstage(ctx, s.db, editorID, key)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func unstage(ctx context.Context, q querier, editorID int64, key models.Key) (int64, error) {
	result, err := q.ExecContext(ctx, `
		DELETE FROM staged
		WHERE editor_id = ? AND branch = ? AND lang = ? AND component = ? AND string_id = ?
	`, editorID, key.Branch, key.Lang, key.Component, key.StringID)
	if err != nil {
		return 0, lerrors.Storage(err, "unstage %s", key)
	}
	return result.RowsAffected()
}

// UnstageAll clears the editor's staging area and returns the number of
// removed entries.
func (s *Store) UnstageAll(ctx context.Context, editorID int64) (int, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM staged WHERE editor_id = ?", editorID)
	if err != nil {
		return 0, lerrors.Storage(err, "clear staging area")
	}
	n, err := result.RowsAffected()
	return int(n), err
}

// Prune drops the editor's entries that cannot be committed, either
// because their baseline is stale or because they change nothing.
func (s *Store) Prune(ctx context.Context, editorID int64) (int, error) {
	pruned := 0
	err := s.withTx(ctx, func(tx *txn) error {
		entries, err := stagedEntries(ctx, tx, editorID, nil)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if e.Committable {
				continue
			}
			if _, err := unstage(ctx, tx, editorID, e.Key); err != nil {
				return err
			}
			pruned++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return pruned, nil
}

// Rebase refreshes every baseline of the editor's staging area to the live
// value. Entries whose new value equals the refreshed baseline are dropped.
func (s *Store) Rebase(ctx context.Context, editorID int64) (*models.RebaseResult, error) {
	result := &models.RebaseResult{}
	err := s.withTx(ctx, func(tx *txn) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT s.branch, s.lang, s.component, s.string_id, s.baseline, s.new_text,
				CASE WHEN r.deleted = 0 THEN t.content END
			FROM staged s
			LEFT JOIN head h ON h.branch = s.branch AND h.lang = s.lang
				AND h.component = s.component AND h.string_id = s.string_id
			LEFT JOIN repository r ON r.id = h.repository_id
			LEFT JOIN texts t ON t.id = r.text_id
			WHERE s.editor_id = ?`, editorID)
		if err != nil {
			return lerrors.Storage(err, "query staged entries")
		}

		type rebased struct {
			key            models.Key
			baseline, live *string
			newText        *string
		}
		var pending []rebased
		for rows.Next() {
			var r rebased
			if err := rows.Scan(&r.key.Branch, &r.key.Lang, &r.key.Component, &r.key.StringID,
				&r.baseline, &r.newText, &r.live); err != nil {
				rows.Close()
				return lerrors.Storage(err, "scan staged entry")
			}
			pending = append(pending, r)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return lerrors.Storage(err, "query staged entries")
		}

		for _, r := range pending {
			entry := &models.StagedEntry{Key: r.key, Baseline: r.baseline, New: r.newText}
			if !entry.SurvivesRebase(r.live) {
				if _, err := unstage(ctx, tx, editorID, r.key); err != nil {
					return err
				}
				result.Dropped++
				continue
			}
			if !models.TextEqual(r.baseline, r.live) {
				_, err := tx.ExecContext(ctx, `
					UPDATE staged SET baseline = ?
					WHERE editor_id = ? AND branch = ? AND lang = ? AND component = ? AND string_id = ?
				`, nullable(r.live), editorID, r.key.Branch, r.key.Lang, r.key.Component, r.key.StringID)
				if err != nil {
					return lerrors.Storage(err, "rebase %s", r.key)
				}
				result.Rebased++
			}
			result.Kept++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CommitStaged commits the editor's committable entries as a single commit.
// The live head is re-read inside the write transaction, so an entry whose
// baseline went stale since staging stays staged instead of overwriting the
// newer value. Stale and no-op entries are reported and left staged.
func (s *Store) CommitStaged(ctx context.Context, editorID int64, req models.CommitStagedRequest) (*models.CommitStagedResult, error) {
	result := &models.CommitStagedResult{}
	err := s.withTx(ctx, func(tx *txn) error {
		entries, err := stagedEntries(ctx, tx, editorID, nil)
		if err != nil {
			return err
		}

		commitReq := models.CommitRequest{
			AuthorID:   editorID,
			AuthorInfo: req.AuthorInfo,
			Source:     req.Source,
			Message:    req.Message,
		}
		for _, e := range entries {
			switch e.Status {
			case models.StatusStale:
				result.NeedsRebase = append(result.NeedsRebase, e.Key)
			case models.StatusNoop:
				result.Unchanged = append(result.Unchanged, e.Key)
			default:
				commitReq.Changes = append(commitReq.Changes, models.Change{Key: e.Key, Text: e.CommitText()})
			}
		}
		if len(commitReq.Changes) == 0 {
			return nil
		}

		commit, err := s.writeCommit(ctx, tx, commitReq)
		if err != nil {
			return err
		}
		for _, change := range commitReq.Changes {
			if _, err := unstage(ctx, tx, editorID, change.Key); err != nil {
				return err
			}
			result.Committed = append(result.Committed, change.Key)
		}
		result.Commit = commit
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
