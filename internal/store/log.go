package store

import (
	"context"

	lerrors "github.com/kilupskalvis/langvc/internal/errors"
	"github.com/kilupskalvis/langvc/internal/models"
)

// QueryLog returns the commits matching the filter, newest first, with
// their matching revisions. NumCommits counts every matching commit even
// when it exceeds the limit.
func (s *Store) QueryLog(ctx context.Context, f models.LogFilter) (*models.LogResult, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = models.DefaultLogLimit
	}

	keys := &where{}
	if f.HasKeyPredicates() {
		keyPredicates(keys, f.Branches, f.Langs, f.Components, f.StringID)
	}

	w := &where{}
	switch {
	case f.AuthorID > 0 && f.AuthorInfo != "":
		w.add(`c.author_id = ? OR c.author_info LIKE ? ESCAPE '\'`, f.AuthorID, likeContains(f.AuthorInfo))
	case f.AuthorID > 0:
		w.add("c.author_id = ?", f.AuthorID)
	case f.AuthorInfo != "":
		w.add(`c.author_info LIKE ? ESCAPE '\'`, likeContains(f.AuthorInfo))
	}
	if f.Message != "" {
		w.add(`c.commit_message LIKE ? ESCAPE '\'`, likeContains(f.Message))
	}
	if f.Hash != "" {
		w.add(`c.commit_hash LIKE ? ESCAPE '\'`, likePrefix(f.Hash))
	}
	if f.Source != "" {
		w.add("c.source = ?", f.Source)
	}
	if !f.CommittedAfter.IsZero() {
		w.add("c.time_committed >= ?", f.CommittedAfter.Unix())
	}
	if !f.CommittedBefore.IsZero() {
		w.add("c.time_committed < ?", f.CommittedBefore.Unix())
	}
	if f.HasKeyPredicates() {
		w.add("EXISTS (SELECT 1 FROM repository r WHERE r.commit_id = c.id AND "+keys.and()+")", keys.args...)
	}

	result := &models.LogResult{Limit: limit}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM commits c"+w.sql(), w.args...).Scan(&result.NumCommits); err != nil {
		return nil, lerrors.Storage(err, "count commits")
	}
	if result.NumCommits == 0 {
		return result, nil
	}

	rows, err := s.db.QueryContext(ctx, "SELECT "+commitColumns+" FROM commits c"+w.sql()+`
		ORDER BY c.time_committed DESC, c.id DESC
		LIMIT ?`, append(w.args, limit)...)
	if err != nil {
		return nil, lerrors.Storage(err, "query commits")
	}
	defer rows.Close()

	byID := make(map[int64]*models.Commit)
	var ids []int64
	for rows.Next() {
		commit, err := scanCommit(rows)
		if err != nil {
			return nil, lerrors.Storage(err, "scan commit")
		}
		result.Commits = append(result.Commits, commit)
		byID[commit.ID] = commit
		ids = append(ids, commit.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, lerrors.Storage(err, "query commits")
	}
	rows.Close()

	if err := s.attachRevisions(ctx, byID, ids, keys); err != nil {
		return nil, err
	}
	for _, commit := range result.Commits {
		result.NumStrings += len(commit.Revisions)
	}
	return result, nil
}

// attachRevisions loads the revisions of the given commits that satisfy keys
func (s *Store) attachRevisions(ctx context.Context, byID map[int64]*models.Commit, ids []int64, keys *where) error {
	clause, args := in("r.commit_id", ids)
	w := &where{}
	w.add(clause, args...)
	if !keys.empty() {
		w.add(keys.and(), keys.args...)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT "+revisionColumns+revisionFrom+w.sql()+canonicalOrder, w.args...)
	if err != nil {
		return lerrors.Storage(err, "query commit revisions")
	}
	defer rows.Close()

	for rows.Next() {
		rev, err := scanRevision(rows)
		if err != nil {
			return lerrors.Storage(err, "scan revision")
		}
		if commit := byID[rev.CommitID]; commit != nil {
			commit.Revisions = append(commit.Revisions, rev)
		}
	}
	if err := rows.Err(); err != nil {
		return lerrors.Storage(err, "query commit revisions")
	}
	return nil
}
