package store

import (
	"context"
	"database/sql"

	lerrors "github.com/kilupskalvis/langvc/internal/errors"
	"github.com/kilupskalvis/langvc/internal/models"
)

const currentFrom = ` FROM head h
	JOIN repository r ON r.id = h.repository_id
	LEFT JOIN texts t ON t.id = r.text_id`

const canonicalOrder = ` ORDER BY r.branch DESC, r.lang, r.component, r.string_id`

// Current returns the current revision of a key, or nil when the key was
// never committed. Deleted keys return their tombstone.
func (s *Store) Current(ctx context.Context, key models.Key) (*models.Revision, error) {
	return current(ctx, s.db, key)
}

func current(ctx context.Context, q querier, key models.Key) (*models.Revision, error) {
	rev, err := scanRevision(q.QueryRowContext(ctx, "SELECT "+revisionColumns+currentFrom+`
		WHERE h.branch = ? AND h.lang = ? AND h.component = ? AND h.string_id = ?`,
		key.Branch, key.Lang, key.Component, key.StringID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, lerrors.Storage(err, "get current revision of %s", key)
	}
	return rev, nil
}

// CurrentBatch returns the current revisions matching the filter in
// canonical order: branch descending, then language, component and string id.
func (s *Store) CurrentBatch(ctx context.Context, f models.StringFilter) ([]*models.Revision, error) {
	w := stringFilterWhere(f)
	query := "SELECT " + revisionColumns + currentFrom + w.sql() + canonicalOrder

	args := w.args
	switch {
	case f.Limit > 0:
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	case f.Offset > 0:
		query += " LIMIT -1 OFFSET ?"
		args = append(args, f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, lerrors.Storage(err, "query current revisions")
	}
	defer rows.Close()

	var revisions []*models.Revision
	for rows.Next() {
		rev, err := scanRevision(rows)
		if err != nil {
			return nil, lerrors.Storage(err, "scan revision")
		}
		revisions = append(revisions, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, lerrors.Storage(err, "query current revisions")
	}
	return revisions, nil
}

// CountCurrent returns the number of current revisions matching the filter,
// ignoring its Limit and Offset.
func (s *Store) CountCurrent(ctx context.Context, f models.StringFilter) (int, error) {
	w := stringFilterWhere(f)
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*)"+currentFrom+w.sql(), w.args...).Scan(&n)
	if err != nil {
		return 0, lerrors.Storage(err, "count current revisions")
	}
	return n, nil
}

// keyPredicates narrows revisions aliased as r by their key
func keyPredicates(w *where, branches []int, langs, components []string, stringID string) {
	if len(branches) > 0 {
		clause, args := in("r.branch", branches)
		w.add(clause, args...)
	}
	if len(langs) > 0 {
		clause, args := in("r.lang", langs)
		w.add(clause, args...)
	}
	if len(components) > 0 {
		clause, args := in("r.component", components)
		w.add(clause, args...)
	}
	if stringID != "" {
		w.add("r.string_id = ?", stringID)
	}
}

const greylisted = `EXISTS (SELECT 1 FROM greylist g
	WHERE g.branch = r.branch AND g.component = r.component AND g.string_id = r.string_id)`

func stringFilterWhere(f models.StringFilter) *where {
	w := &where{}
	keyPredicates(w, f.Branches, f.Langs, f.Components, f.StringID)

	if f.Substring != "" {
		w.add(`t.content LIKE ? ESCAPE '\'`, likeContains(f.Substring))
	}
	if !f.IncludeDeleted {
		w.add("r.deleted = 0")
	}
	if f.HelpsOnly {
		w.add(`r.string_id LIKE '%\_help' ESCAPE '\' OR r.string_id LIKE '%\_link' ESCAPE '\'`)
	}
	if f.GreylistedOnly {
		w.add(greylisted)
	}
	if f.WithoutGreylisted {
		w.add("NOT " + greylisted)
	}
	if f.MissingOrOutdated {
		w.add(`r.lang <> 'en' AND EXISTS (SELECT 1 FROM head he
			JOIN repository re ON re.id = he.repository_id
			WHERE he.branch = r.branch AND he.lang = 'en' AND he.component = r.component
				AND he.string_id = r.string_id AND re.deleted = 0
				AND (r.deleted = 1 OR re.time_modified > r.time_modified))`)
	}
	return w
}
