package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	lerrors "github.com/kilupskalvis/langvc/internal/errors"
	"github.com/kilupskalvis/langvc/internal/models"
)

// AutosaveName is the name given to autosave stashes
const AutosaveName = "Autosave"

const stashColumns = `id, owner_id, name, hash, time_created, strings_count, languages, components`

func scanStash(sc scanner) (*models.Stash, error) {
	var st models.Stash
	var created int64
	var langs, comps string
	if err := sc.Scan(&st.ID, &st.OwnerID, &st.Name, &st.Hash, &created, &st.Strings, &langs, &comps); err != nil {
		return nil, err
	}
	st.Created = unixTime(created)
	st.Languages = splitList(langs)
	st.Components = splitList(comps)
	return &st, nil
}

// joinList stores sorted names as "/a/b/"
func joinList(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return "/" + strings.Join(names, "/") + "/"
}

func splitList(s string) []string {
	s = strings.Trim(s, "/")
	if s == "" {
		return nil
	}
	return strings.Split(s, "/")
}

// PushStash snapshots the owner's staging area into a new stash and clears
// the staging area in the same transaction.
func (s *Store) PushStash(ctx context.Context, ownerID int64, name string) (*models.Stash, error) {
	var stash *models.Stash
	err := s.withTx(ctx, func(tx *txn) error {
		entries, err := stagedEntries(ctx, tx, ownerID, nil)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return lerrors.Validation("nothing staged to stash")
		}

		stash, err = s.saveStash(ctx, tx, ownerID, name, uuid.NewString(), entries)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM staged WHERE editor_id = ?", ownerID); err != nil {
			return lerrors.Storage(err, "clear staging area")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stash, nil
}

// Autosave creates or overwrites the owner's autosave stash with the
// current staging area. The staging area is left untouched.
func (s *Store) Autosave(ctx context.Context, ownerID int64) (*models.Stash, error) {
	var stash *models.Stash
	err := s.withTx(ctx, func(tx *txn) error {
		entries, err := stagedEntries(ctx, tx, ownerID, nil)
		if err != nil {
			return err
		}
		stash, err = s.saveStash(ctx, tx, ownerID, AutosaveName, models.AutosaveHash(ownerID), entries)
		return err
	})
	if err != nil {
		return nil, err
	}
	return stash, nil
}

// saveStash inserts a stash, overwriting an existing stash with the same hash
func (s *Store) saveStash(ctx context.Context, tx *txn, ownerID int64, name, hash string, entries []*models.StagedEntry) (*models.Stash, error) {
	blob, err := encodeStash(entries)
	if err != nil {
		return nil, lerrors.Storage(err, "serialize stash")
	}

	count, langs, comps := models.Summarize(entries)
	created := s.now().Unix()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO stashes (owner_id, name, hash, time_created, serialized_strings, languages, components, strings_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (hash) DO UPDATE SET
			name = excluded.name,
			time_created = excluded.time_created,
			serialized_strings = excluded.serialized_strings,
			languages = excluded.languages,
			components = excluded.components,
			strings_count = excluded.strings_count
	`, ownerID, name, hash, created, blob, joinList(langs), joinList(comps), count)
	if err != nil {
		return nil, lerrors.Storage(err, "save stash")
	}

	stash, err := scanStash(tx.QueryRowContext(ctx, "SELECT "+stashColumns+" FROM stashes WHERE hash = ?", hash))
	if err != nil {
		return nil, lerrors.Storage(err, "read saved stash")
	}
	stash.Entries = entries
	return stash, nil
}

// ListStashes returns the owner's stashes, newest first
func (s *Store) ListStashes(ctx context.Context, ownerID int64) ([]*models.Stash, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+stashColumns+`
		FROM stashes WHERE owner_id = ?
		ORDER BY time_created DESC, id DESC`, ownerID)
	if err != nil {
		return nil, lerrors.Storage(err, "list stashes")
	}
	defer rows.Close()

	var stashes []*models.Stash
	for rows.Next() {
		stash, err := scanStash(rows)
		if err != nil {
			return nil, lerrors.Storage(err, "scan stash")
		}
		stashes = append(stashes, stash)
	}
	if err := rows.Err(); err != nil {
		return nil, lerrors.Storage(err, "list stashes")
	}
	return stashes, nil
}

// GetStash returns a stash with its entries
func (s *Store) GetStash(ctx context.Context, id int64) (*models.Stash, error) {
	return loadStash(ctx, s.db, id)
}

func loadStash(ctx context.Context, q querier, id int64) (*models.Stash, error) {
	var blob []byte
	row := q.QueryRowContext(ctx, "SELECT "+stashColumns+", serialized_strings FROM stashes WHERE id = ?", id)

	var stash models.Stash
	var created int64
	var langs, comps string
	err := row.Scan(&stash.ID, &stash.OwnerID, &stash.Name, &stash.Hash, &created,
		&stash.Strings, &langs, &comps, &blob)
	if err == sql.ErrNoRows {
		return nil, lerrors.NotFound("stash %d not found", id)
	}
	if err != nil {
		return nil, lerrors.Storage(err, "get stash %d", id)
	}
	stash.Created = unixTime(created)
	stash.Languages = splitList(langs)
	stash.Components = splitList(comps)

	if stash.Entries, err = decodeStash(stash.OwnerID, blob); err != nil {
		return nil, lerrors.Storage(err, "decode stash %d", id)
	}
	return &stash, nil
}

// ownedStash loads a stash and checks it belongs to ownerID
func ownedStash(ctx context.Context, q querier, ownerID, id int64) (*models.Stash, error) {
	stash, err := loadStash(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if stash.OwnerID != ownerID {
		return nil, lerrors.Authorization("stash %d does not belong to editor %d", id, ownerID)
	}
	return stash, nil
}

// ApplyStash copies the stash entries, with their stored baselines, into
// the owner's staging area, replacing entries staged for the same keys.
// With remove set the stash is deleted in the same transaction.
func (s *Store) ApplyStash(ctx context.Context, ownerID, id int64, remove bool) (*models.Stash, error) {
	var stash *models.Stash
	err := s.withTx(ctx, func(tx *txn) error {
		var err error
		stash, err = ownedStash(ctx, tx, ownerID, id)
		if err != nil {
			return err
		}

		if err := restageEntries(ctx, tx, ownerID, stash.Entries); err != nil {
			return err
		}

		if remove {
			return deleteStash(ctx, tx, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stash, nil
}

// restageEntries copies entries, with their stored baselines, into the
// editor's staging area
func restageEntries(ctx context.Context, tx *txn, editorID int64, entries []*models.StagedEntry) error {
	for _, e := range entries {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO staged (editor_id, branch, lang, component, string_id, baseline, new_text, staged_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (editor_id, branch, lang, component, string_id) DO UPDATE SET
				baseline = excluded.baseline,
				new_text = excluded.new_text,
				staged_at = excluded.staged_at
		`, editorID, e.Branch, e.Lang, e.Component, e.StringID, nullable(e.Baseline), nullable(e.New), e.StagedAt.Unix())
		if err != nil {
			return lerrors.Storage(err, "stage %s from stash", e.Key)
		}
	}
	return nil
}

// DropStash deletes one of the owner's stashes
func (s *Store) DropStash(ctx context.Context, ownerID, id int64) error {
	return s.withTx(ctx, func(tx *txn) error {
		if _, err := ownedStash(ctx, tx, ownerID, id); err != nil {
			return err
		}
		return deleteStash(ctx, tx, id)
	})
}

func deleteStash(ctx context.Context, q querier, id int64) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM stashes WHERE id = ?", id); err != nil {
		return lerrors.Storage(err, "delete stash %d", id)
	}
	return nil
}
