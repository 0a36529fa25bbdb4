package store

import (
	"context"
	"database/sql"
	"sort"
	"time"

	lerrors "github.com/kilupskalvis/langvc/internal/errors"
	"github.com/kilupskalvis/langvc/internal/models"
)

const revisionColumns = `r.id, r.commit_id, r.branch, r.lang, r.component, r.string_id,
	t.content, r.deleted, r.time_modified`

const revisionFrom = ` FROM repository r LEFT JOIN texts t ON t.id = r.text_id`

const commitColumns = `c.id, c.source, c.time_committed, c.commit_message, c.commit_hash,
	c.author_id, c.author_info`

type scanner interface {
	Scan(dest ...any) error
}

func scanRevision(sc scanner) (*models.Revision, error) {
	var rev models.Revision
	var text *string
	var deleted int
	var modified int64
	if err := sc.Scan(&rev.ID, &rev.CommitID, &rev.Branch, &rev.Lang, &rev.Component, &rev.StringID,
		&text, &deleted, &modified); err != nil {
		return nil, err
	}
	rev.Deleted = deleted != 0
	if !rev.Deleted {
		rev.Text = text
	}
	rev.Modified = unixTime(modified)
	return &rev, nil
}

func scanCommit(sc scanner) (*models.Commit, error) {
	var c models.Commit
	var committed int64
	var hash *string
	if err := sc.Scan(&c.ID, &c.Source, &committed, &c.Message, &hash, &c.AuthorID, &c.AuthorInfo); err != nil {
		return nil, err
	}
	c.Committed = unixTime(committed)
	c.Hash = models.TextValue(hash)
	return &c, nil
}

// CreateCommit writes a commit and its revisions in one transaction and
// makes every revision the current one for its key. Missing texts are
// written as tombstones.
func (s *Store) CreateCommit(ctx context.Context, req models.CommitRequest) (*models.Commit, error) {
	var commit *models.Commit
	err := s.withTx(ctx, func(tx *txn) error {
		var err error
		commit, err = s.writeCommit(ctx, tx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return commit, nil
}

func (s *Store) writeCommit(ctx context.Context, tx *txn, req models.CommitRequest) (*models.Commit, error) {
	committed := req.Committed
	if committed.IsZero() {
		committed = s.now()
	}
	committed = committed.Truncate(time.Second)

	var hash *string
	if req.Hash != "" {
		hash = &req.Hash
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO commits (time_committed, source, commit_message, commit_hash, author_id, author_info)
		VALUES (?, ?, ?, ?, ?, ?)
	`, committed.Unix(), req.Source, req.Message, nullable(hash), req.AuthorID, req.AuthorInfo)
	if err != nil {
		return nil, lerrors.Storage(err, "insert commit")
	}
	commitID, err := result.LastInsertId()
	if err != nil {
		return nil, lerrors.Storage(err, "insert commit")
	}

	commit := &models.Commit{
		ID:         commitID,
		Source:     req.Source,
		Committed:  unixTime(committed.Unix()),
		Message:    req.Message,
		Hash:       req.Hash,
		AuthorID:   req.AuthorID,
		AuthorInfo: req.AuthorInfo,
	}

	for i, change := range req.Changes {
		if s.revisionHook != nil {
			if err := s.revisionHook(i); err != nil {
				return nil, lerrors.Storage(err, "write revision %s", change.Key)
			}
		}

		rev, err := s.writeRevision(ctx, tx, commitID, change, committed)
		if err != nil {
			return nil, err
		}
		commit.Revisions = append(commit.Revisions, rev)
	}

	sort.Slice(commit.Revisions, func(i, j int) bool {
		return commit.Revisions[i].Key.Less(commit.Revisions[j].Key)
	})
	return commit, nil
}

func (s *Store) writeRevision(ctx context.Context, tx *txn, commitID int64, change models.Change, committed time.Time) (*models.Revision, error) {
	modified := change.Modified
	if modified.IsZero() {
		modified = committed
	}

	rev := &models.Revision{
		CommitID: commitID,
		Key:      change.Key,
		Deleted:  models.IsMissing(change.Text),
		Modified: unixTime(modified.Unix()),
	}

	var textID *int64
	if !rev.Deleted {
		id, err := s.ensureText(ctx, tx, *change.Text)
		if err != nil {
			return nil, err
		}
		textID = &id
		rev.Text = change.Text
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO repository (commit_id, branch, lang, component, string_id, text_id, time_modified, deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, commitID, change.Branch, change.Lang, change.Component, change.StringID, nullable(textID), modified.Unix(), rev.Deleted)
	if err != nil {
		return nil, lerrors.Storage(err, "insert revision %s", change.Key)
	}
	if rev.ID, err = result.LastInsertId(); err != nil {
		return nil, lerrors.Storage(err, "insert revision %s", change.Key)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO head (branch, lang, component, string_id, repository_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (branch, lang, component, string_id) DO UPDATE SET repository_id = excluded.repository_id
	`, change.Branch, change.Lang, change.Component, change.StringID, rev.ID)
	if err != nil {
		return nil, lerrors.Storage(err, "update head %s", change.Key)
	}

	return rev, nil
}

// GetCommit returns a commit with all of its revisions
func (s *Store) GetCommit(ctx context.Context, id int64) (*models.Commit, error) {
	commit, err := scanCommit(s.db.QueryRowContext(ctx, "SELECT "+commitColumns+" FROM commits c WHERE c.id = ?", id))
	if err == sql.ErrNoRows {
		return nil, lerrors.NotFound("commit %d not found", id)
	}
	if err != nil {
		return nil, lerrors.Storage(err, "get commit %d", id)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT "+revisionColumns+revisionFrom+`
		WHERE r.commit_id = ?
		ORDER BY r.branch DESC, r.lang, r.component, r.string_id`, id)
	if err != nil {
		return nil, lerrors.Storage(err, "get revisions of commit %d", id)
	}
	defer rows.Close()

	for rows.Next() {
		rev, err := scanRevision(rows)
		if err != nil {
			return nil, lerrors.Storage(err, "scan revision")
		}
		commit.Revisions = append(commit.Revisions, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, lerrors.Storage(err, "get revisions of commit %d", id)
	}
	return commit, nil
}

// CountCommits returns the number of commits in the log
func (s *Store) CountCommits(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM commits").Scan(&n); err != nil {
		return 0, lerrors.Storage(err, "count commits")
	}
	return n, nil
}
