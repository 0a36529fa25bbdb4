package store

import (
	"context"
	"database/sql"

	lerrors "github.com/kilupskalvis/langvc/internal/errors"
	"github.com/kilupskalvis/langvc/internal/models"
)

// contributionOwner owns stashes handed over to contributions. It is never
// a valid editor id, so stash commands cannot reach them.
const contributionOwner = 0

const contributionColumns = `c.id, c.author_id, c.assignee_id, c.lang, c.subject, c.message, c.stash_id,
	c.state, c.time_created, c.time_modified, s.strings_count, s.components`

const contributionFrom = ` FROM contributions c JOIN stashes s ON s.id = c.stash_id`

func scanContribution(sc scanner) (*models.Contribution, error) {
	var c models.Contribution
	var created, modified int64
	var comps string
	if err := sc.Scan(&c.ID, &c.AuthorID, &c.AssigneeID, &c.Lang, &c.Subject, &c.Message, &c.StashID,
		&c.State, &created, &modified, &c.Strings, &comps); err != nil {
		return nil, err
	}
	c.Created = unixTime(created)
	c.Modified = unixTime(modified)
	c.Components = splitList(comps)
	return &c, nil
}

// SubmitContribution hands one of the author's stashes over to a new
// contribution in state new. The stash must hold strings of exactly one
// language; autosave stashes cannot be submitted.
func (s *Store) SubmitContribution(ctx context.Context, authorID, stashID int64, subject, message string) (*models.Contribution, error) {
	var contrib *models.Contribution
	err := s.withTx(ctx, func(tx *txn) error {
		stash, err := ownedStash(ctx, tx, authorID, stashID)
		if err != nil {
			return err
		}
		if stash.IsAutosave() {
			return lerrors.Validation("the autosave stash cannot be contributed")
		}
		if len(stash.Languages) != 1 {
			return lerrors.Validation("stash %d covers %d languages, a contribution needs exactly one",
				stashID, len(stash.Languages))
		}

		if _, err := tx.ExecContext(ctx, "UPDATE stashes SET owner_id = ? WHERE id = ?", contributionOwner, stashID); err != nil {
			return lerrors.Storage(err, "hand over stash %d", stashID)
		}

		now := s.now().Unix()
		result, err := tx.ExecContext(ctx, `
			INSERT INTO contributions (author_id, lang, subject, message, stash_id, state, time_created, time_modified)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, authorID, stash.Languages[0], subject, message, stashID, models.ContributionNew, now, now)
		if err != nil {
			return lerrors.Storage(err, "insert contribution")
		}
		id, err := result.LastInsertId()
		if err != nil {
			return lerrors.Storage(err, "insert contribution")
		}

		contrib, err = getContribution(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return contrib, nil
}

// GetContribution returns a contribution without its rebased string count
func (s *Store) GetContribution(ctx context.Context, id int64) (*models.Contribution, error) {
	return getContribution(ctx, s.db, id)
}

func getContribution(ctx context.Context, q querier, id int64) (*models.Contribution, error) {
	c, err := scanContribution(q.QueryRowContext(ctx, "SELECT "+contributionColumns+contributionFrom+" WHERE c.id = ?", id))
	if err == sql.ErrNoRows {
		return nil, lerrors.NotFound("contribution %d not found", id)
	}
	if err != nil {
		return nil, lerrors.Storage(err, "get contribution %d", id)
	}
	return c, nil
}

// ListContributions returns matching contributions, newest first
func (s *Store) ListContributions(ctx context.Context, f models.ContributionFilter) ([]*models.Contribution, error) {
	var w where
	if f.AuthorID > 0 {
		w.add("c.author_id = ?", f.AuthorID)
	}
	if f.AssigneeID > 0 {
		w.add("c.assignee_id = ?", f.AssigneeID)
	}
	if f.Lang != "" {
		w.add("c.lang = ?", f.Lang)
	}
	if len(f.States) > 0 {
		clause, args := in("c.state", f.States)
		w.add(clause, args...)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT "+contributionColumns+contributionFrom+w.sql()+
		" ORDER BY c.time_created DESC, c.id DESC", w.args...)
	if err != nil {
		return nil, lerrors.Storage(err, "list contributions")
	}
	defer rows.Close()

	var out []*models.Contribution
	for rows.Next() {
		c, err := scanContribution(rows)
		if err != nil {
			return nil, lerrors.Storage(err, "scan contribution")
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, lerrors.Storage(err, "list contributions")
	}
	return out, nil
}

// UpdateContribution reads a contribution, lets fn change its state and
// assignee, and writes the result in one transaction. An error from fn
// leaves the contribution untouched.
func (s *Store) UpdateContribution(ctx context.Context, id int64, fn func(c *models.Contribution) error) (*models.Contribution, error) {
	var contrib *models.Contribution
	err := s.withTx(ctx, func(tx *txn) error {
		var err error
		contrib, err = getContribution(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(contrib); err != nil {
			return err
		}

		contrib.Modified = unixTime(s.now().Unix())
		_, err = tx.ExecContext(ctx, `
			UPDATE contributions SET state = ?, assignee_id = ?, time_modified = ? WHERE id = ?
		`, contrib.State, contrib.AssigneeID, contrib.Modified.Unix(), id)
		if err != nil {
			return lerrors.Storage(err, "update contribution %d", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return contrib, nil
}

// ContributionEntries returns the staged entries carried by a contribution
func (s *Store) ContributionEntries(ctx context.Context, id int64) ([]*models.StagedEntry, error) {
	c, err := s.GetContribution(ctx, id)
	if err != nil {
		return nil, err
	}
	stash, err := loadStash(ctx, s.db, c.StashID)
	if err != nil {
		return nil, err
	}
	return stash.Entries, nil
}

// ApplyContribution copies a contribution's entries, with their stored
// baselines, into the editor's staging area
func (s *Store) ApplyContribution(ctx context.Context, editorID, id int64) (*models.Contribution, error) {
	var contrib *models.Contribution
	err := s.withTx(ctx, func(tx *txn) error {
		var err error
		contrib, err = getContribution(ctx, tx, id)
		if err != nil {
			return err
		}
		stash, err := loadStash(ctx, tx, contrib.StashID)
		if err != nil {
			return err
		}
		return restageEntries(ctx, tx, editorID, stash.Entries)
	})
	if err != nil {
		return nil, err
	}
	return contrib, nil
}

// RebasedCount counts the entries that would stay staged after a rebase
// against the current live values
func (s *Store) RebasedCount(ctx context.Context, entries []*models.StagedEntry) (int, error) {
	n := 0
	for _, e := range entries {
		rev, err := current(ctx, s.db, e.Key)
		if err != nil {
			return 0, err
		}
		if e.SurvivesRebase(rev.Value()) {
			n++
		}
	}
	return n, nil
}
