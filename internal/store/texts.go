package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"

	lerrors "github.com/kilupskalvis/langvc/internal/errors"
)

// textHash returns the content address of a text
func textHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// ensureText returns the id of the text with the given content, inserting
// it when new. Ids are cached only once tx commits, so a rolled back insert
// never leaks into the cache.
func (s *Store) ensureText(ctx context.Context, tx *txn, content string) (int64, error) {
	hash := textHash(content)
	if id, ok := s.texts.Get(hash); ok {
		return id, nil
	}

	var id int64
	err := tx.QueryRowContext(ctx, "SELECT id FROM texts WHERE hash = ?", hash).Scan(&id)
	switch {
	case err == sql.ErrNoRows:
		result, err := tx.ExecContext(ctx, "INSERT INTO texts (hash, content) VALUES (?, ?)", hash, content)
		if err != nil {
			return 0, lerrors.Storage(err, "insert text")
		}
		if id, err = result.LastInsertId(); err != nil {
			return 0, lerrors.Storage(err, "insert text")
		}
	case err != nil:
		return 0, lerrors.Storage(err, "look up text")
	}

	tx.afterCommit = append(tx.afterCommit, func() { s.texts.Add(hash, id) })
	return id, nil
}

// CountTexts returns the number of distinct stored texts
func (s *Store) CountTexts(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM texts").Scan(&n); err != nil {
		return 0, lerrors.Storage(err, "count texts")
	}
	return n, nil
}
