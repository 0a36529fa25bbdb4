// Package store provides SQLite-based persistence for langvc.
// It manages texts, commits, repository revisions, staging areas and stashes.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	lerrors "github.com/kilupskalvis/langvc/internal/errors"
	_ "modernc.org/sqlite"
)

// contributionsTable holds stashes submitted for review
const contributionsTable = `CREATE TABLE IF NOT EXISTS contributions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		author_id INTEGER NOT NULL,
		assignee_id INTEGER NOT NULL DEFAULT 0,
		lang TEXT NOT NULL,
		subject TEXT NOT NULL,
		message TEXT NOT NULL DEFAULT '',
		stash_id INTEGER NOT NULL,
		state INTEGER NOT NULL DEFAULT 0,
		time_created INTEGER NOT NULL,
		time_modified INTEGER NOT NULL,
		FOREIGN KEY (stash_id) REFERENCES stashes(id)
	)`

// textCacheSize bounds the hash -> text id cache
const textCacheSize = 4096

// Store represents the SQLite database store
type Store struct {
	db    *sql.DB
	texts *lru.Cache[string, int64]
	now   func() time.Time
	retry *RetryConfig

	// revisionHook runs before each revision write of a commit; tests use it
	// to simulate storage failures mid-commit.
	revisionHook func(i int) error
}

// querier is satisfied by *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New creates a new store connection
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	cache, err := lru.New[string, int64](textCacheSize)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create text cache: %w", err)
	}

	return &Store{db: db, texts: cache, now: time.Now, retry: DefaultRetryConfig()}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Initialize creates the database schema
func (s *Store) Initialize() error {
	schema := `
	-- Distinct text blobs, deduplicated by content hash
	CREATE TABLE IF NOT EXISTS texts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		hash TEXT NOT NULL UNIQUE,
		content TEXT NOT NULL
	);

	-- Commits (append-only)
	CREATE TABLE IF NOT EXISTS commits (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		time_committed INTEGER NOT NULL,
		source TEXT NOT NULL,
		commit_message TEXT NOT NULL,
		commit_hash TEXT,
		author_id INTEGER NOT NULL DEFAULT 0,
		author_info TEXT NOT NULL DEFAULT ''
	);

	-- One row per revision, owned by its commit (append-only)
	CREATE TABLE IF NOT EXISTS repository (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		commit_id INTEGER NOT NULL,
		branch INTEGER NOT NULL,
		lang TEXT NOT NULL,
		component TEXT NOT NULL,
		string_id TEXT NOT NULL,
		text_id INTEGER,
		time_modified INTEGER NOT NULL,
		deleted INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (commit_id) REFERENCES commits(id),
		FOREIGN KEY (text_id) REFERENCES texts(id)
	);

	-- Current revision per key
	CREATE TABLE IF NOT EXISTS head (
		branch INTEGER NOT NULL,
		lang TEXT NOT NULL,
		component TEXT NOT NULL,
		string_id TEXT NOT NULL,
		repository_id INTEGER NOT NULL,
		PRIMARY KEY (branch, lang, component, string_id),
		FOREIGN KEY (repository_id) REFERENCES repository(id)
	);

	-- Staging areas, one per editor
	CREATE TABLE IF NOT EXISTS staged (
		editor_id INTEGER NOT NULL,
		branch INTEGER NOT NULL,
		lang TEXT NOT NULL,
		component TEXT NOT NULL,
		string_id TEXT NOT NULL,
		baseline TEXT,
		new_text TEXT,
		staged_at INTEGER NOT NULL,
		PRIMARY KEY (editor_id, branch, lang, component, string_id)
	);

	-- Stashed staging areas
	CREATE TABLE IF NOT EXISTS stashes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		hash TEXT NOT NULL UNIQUE,
		time_created INTEGER NOT NULL,
		serialized_strings BLOB NOT NULL,
		languages TEXT NOT NULL,
		components TEXT NOT NULL,
		strings_count INTEGER NOT NULL
	);

	`+contributionsTable+`;

	-- Strings that translators are advised not to translate
	CREATE TABLE IF NOT EXISTS greylist (
		branch INTEGER NOT NULL,
		component TEXT NOT NULL,
		string_id TEXT NOT NULL,
		PRIMARY KEY (branch, component, string_id)
	);

	-- Strings used by the mobile app
	CREATE TABLE IF NOT EXISTS app_strings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		appid TEXT NOT NULL,
		component TEXT NOT NULL,
		string_id TEXT NOT NULL,
		UNIQUE (component, string_id)
	);

	-- Strings used by the workplace app
	CREATE TABLE IF NOT EXISTS workplace_strings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		workplaceid TEXT NOT NULL,
		component TEXT NOT NULL,
		string_id TEXT NOT NULL,
		UNIQUE (component, string_id)
	);

	-- langvc schema version tracking
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);

	-- Indexes
	CREATE INDEX IF NOT EXISTS idx_repository_commit ON repository(commit_id);
	CREATE INDEX IF NOT EXISTS idx_repository_key ON repository(branch, lang, component, string_id);
	CREATE INDEX IF NOT EXISTS idx_commits_time ON commits(time_committed);
	CREATE INDEX IF NOT EXISTS idx_stashes_owner ON stashes(owner_id);
	CREATE INDEX IF NOT EXISTS idx_contributions_lang ON contributions(lang, state);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	// Mark as current schema version
	_, err = s.db.Exec("INSERT OR REPLACE INTO schema_version (version) VALUES (?)", currentSchemaVersion)
	if err != nil {
		return fmt.Errorf("failed to set schema version: %w", err)
	}

	return nil
}

// DB returns the underlying database connection for advanced queries
func (s *Store) DB() *sql.DB {
	return s.db
}

// txn is a transaction that defers side effects until it commits
type txn struct {
	*sql.Tx
	afterCommit []func()
}

// withTx runs fn in an immediate transaction. Any error rolls back every
// write made by fn. A busy database retries the whole transaction.
func (s *Store) withTx(ctx context.Context, fn func(tx *txn) error) error {
	return s.retry.withRetry(ctx, func() error {
		return s.runTx(ctx, fn)
	})
}

func (s *Store) runTx(ctx context.Context, fn func(tx *txn) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return lerrors.Storage(err, "begin transaction")
	}
	defer sqlTx.Rollback()

	tx := &txn{Tx: sqlTx}
	if err := fn(tx); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return lerrors.Storage(err, "commit transaction")
	}
	for _, f := range tx.afterCommit {
		f()
	}
	return nil
}

// where accumulates SQL conditions joined with AND
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, args ...any) {
	w.clauses = append(w.clauses, clause)
	w.args = append(w.args, args...)
}

func (w *where) empty() bool {
	return len(w.clauses) == 0
}

// sql renders the conditions with a leading WHERE, or "" when empty
func (w *where) sql() string {
	if w.empty() {
		return ""
	}
	return " WHERE (" + strings.Join(w.clauses, ") AND (") + ")"
}

// and renders the conditions joined with AND, or "1" when empty
func (w *where) and() string {
	if w.empty() {
		return "1"
	}
	return "(" + strings.Join(w.clauses, ") AND (") + ")"
}

// in builds "column IN (?, ?, ...)" for the given values
func in[T any](column string, values []T) (string, []any) {
	placeholders := make([]string, len(values))
	args := make([]any, len(values))
	for i, v := range values {
		placeholders[i] = "?"
		args[i] = v
	}
	return column + " IN (" + strings.Join(placeholders, ", ") + ")", args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likeContains returns a LIKE pattern matching values containing s
func likeContains(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// likePrefix returns a LIKE pattern matching values starting with s
func likePrefix(s string) string {
	return likeEscaper.Replace(s) + "%"
}

func unixTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

// nullable converts an optional value into a driver argument, NULL when nil
func nullable[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}
