package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	lerrors "github.com/kilupskalvis/langvc/internal/errors"
	"github.com/kilupskalvis/langvc/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore creates a new SQLite store in a temp directory for testing.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := New(dbPath)
	require.NoError(t, err)
	require.NoError(t, st.Initialize())
	t.Cleanup(func() { st.Close() })
	return st
}

var fooKey = models.Key{Branch: 27, Lang: "es", Component: "core_admin", StringID: "foo"}

func key(branch int, lang, component, stringID string) models.Key {
	return models.Key{Branch: branch, Lang: lang, Component: component, StringID: stringID}
}

// commit writes a single-author manual commit
func commit(t *testing.T, st *Store, message string, changes ...models.Change) *models.Commit {
	t.Helper()
	c, err := st.CreateCommit(context.Background(), models.CommitRequest{
		AuthorID:   1,
		AuthorInfo: "Admin User <admin@example.com>",
		Source:     models.SourceManual,
		Message:    message,
		Changes:    changes,
	})
	require.NoError(t, err)
	return c
}

func set(k models.Key, text string) models.Change {
	return models.Change{Key: k, Text: models.Text(text)}
}

// ==================== Store Tests ====================

func TestStore_Initialize(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := New(dbPath)
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.Initialize())

	version, err := st.getSchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, currentSchemaVersion, version)

	// Initialize is idempotent
	assert.NoError(t, st.Initialize())
	assert.NoError(t, st.RunMigrations())
}

func TestStore_RunMigrationsFromV1(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := New(dbPath)
	require.NoError(t, err)
	defer st.Close()

	_, err = st.DB().Exec(`
		CREATE TABLE commits (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			time_committed INTEGER NOT NULL,
			source TEXT NOT NULL,
			commit_message TEXT NOT NULL,
			author_id INTEGER NOT NULL DEFAULT 0,
			author_info TEXT NOT NULL DEFAULT ''
		);
		CREATE TABLE stashes (id INTEGER PRIMARY KEY, owner_id INTEGER NOT NULL);
	`)
	require.NoError(t, err)

	version, err := st.getSchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	require.NoError(t, st.RunMigrations())

	version, err = st.getSchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, currentSchemaVersion, version)
	assert.True(t, st.columnExists("commits", "commit_hash"))
	assert.True(t, st.columnExists("workplace_strings", "workplaceid"))
	assert.True(t, st.columnExists("contributions", "assignee_id"))
}

func TestStore_RunMigrationsOnEmptyDatabase(t *testing.T) {
	st, err := New(filepath.Join(t.TempDir(), "fresh", "test.db"))
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.RunMigrations())

	version, err := st.getSchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, currentSchemaVersion, version)
	for _, table := range []string{"texts", "commits", "repository", "head", "staged", "stashes", "contributions"} {
		assert.True(t, st.tableExists(table), table)
	}

	commit(t, st, "First", set(fooKey, "Hola"))
	rev, err := st.Current(context.Background(), fooKey)
	require.NoError(t, err)
	assert.Equal(t, "Hola", *rev.Text)

	// Running again on the initialized database is a no-op
	require.NoError(t, st.RunMigrations())
}

// ==================== Commit Tests ====================

func TestStore_CommitLogScenario(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	c1 := commit(t, st, "Add foo", set(fooKey, "Hola"))
	c2 := commit(t, st, "Fix foo", set(fooKey, "Hola!"))

	rev, err := st.Current(ctx, fooKey)
	require.NoError(t, err)
	require.NotNil(t, rev)
	assert.Equal(t, "Hola!", *rev.Value())
	assert.Equal(t, c2.ID, rev.CommitID)

	result, err := st.QueryLog(ctx, models.LogFilter{Components: []string{"core_admin"}})
	require.NoError(t, err)
	require.Len(t, result.Commits, 2)
	assert.Equal(t, c2.ID, result.Commits[0].ID)
	assert.Equal(t, c1.ID, result.Commits[1].ID)
	assert.Equal(t, 2, result.NumCommits)
	assert.Equal(t, 2, result.NumStrings)
	assert.False(t, result.AboveLimit())
}

func TestStore_CurrentNeverCommitted(t *testing.T) {
	st := newTestStore(t)

	rev, err := st.Current(context.Background(), fooKey)
	require.NoError(t, err)
	assert.Nil(t, rev)
}

func TestStore_CommitTombstone(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	commit(t, st, "Add", set(fooKey, "Hola"))
	c := commit(t, st, "Remove", models.Change{Key: fooKey})
	require.Len(t, c.Revisions, 1)
	assert.True(t, c.Revisions[0].Deleted)

	rev, err := st.Current(ctx, fooKey)
	require.NoError(t, err)
	require.NotNil(t, rev)
	assert.True(t, rev.Deleted)
	assert.Nil(t, rev.Value())

	revs, err := st.CurrentBatch(ctx, models.StringFilter{})
	require.NoError(t, err)
	assert.Empty(t, revs)

	revs, err = st.CurrentBatch(ctx, models.StringFilter{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Len(t, revs, 1)
}

func TestStore_CommitDeduplicatesTexts(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	commit(t, st, "Add",
		set(key(27, "es", "core", "yes"), "Sí"),
		set(key(27, "es", "core", "ok"), "Sí"),
	)
	commit(t, st, "Add again", set(key(26, "es", "core", "yes"), "Sí"))

	n, err := st.CountTexts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_CommitAtomicity(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	st.revisionHook = func(i int) error {
		if i == 2 {
			return errors.New("disk I/O error")
		}
		return nil
	}

	_, err := st.CreateCommit(ctx, models.CommitRequest{
		Source:  models.SourceManual,
		Message: "Three strings",
		Changes: []models.Change{
			set(key(27, "cs", "core", "a"), "A"),
			set(key(27, "cs", "core", "b"), "B"),
			set(key(27, "cs", "core", "c"), "C"),
		},
	})
	require.Error(t, err)
	assert.True(t, lerrors.Is(err, lerrors.KindStorage))

	revs, err := st.CurrentBatch(ctx, models.StringFilter{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Empty(t, revs)

	n, err := st.CountCommits(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = st.CountTexts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 0, st.texts.Len(), "rolled back texts must not be cached")
}

func TestStore_GetCommit(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	c := commit(t, st, "Two",
		set(key(26, "de", "core", "b"), "B"),
		set(key(27, "de", "core", "a"), "A"),
	)

	got, err := st.GetCommit(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Two", got.Message)
	assert.Equal(t, "Admin User <admin@example.com>", got.AuthorInfo)
	require.Len(t, got.Revisions, 2)
	assert.Equal(t, 27, got.Revisions[0].Branch)
	assert.Equal(t, 26, got.Revisions[1].Branch)

	_, err = st.GetCommit(ctx, 999)
	assert.True(t, lerrors.Is(err, lerrors.KindNotFound))
}

// ==================== Current Batch Tests ====================

func TestStore_CurrentBatchOrderAndFilters(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	commit(t, st, "Seed",
		set(key(26, "en", "core", "save"), "Save"),
		set(key(27, "en", "core", "save"), "Save"),
		set(key(27, "en", "core", "save_help"), "Saves the form"),
		set(key(27, "en", "mod_forum", "post"), "Post"),
		set(key(27, "cs", "core", "save"), "Uložit"),
	)

	revs, err := st.CurrentBatch(ctx, models.StringFilter{})
	require.NoError(t, err)
	require.Len(t, revs, 5)
	assert.Equal(t, key(27, "cs", "core", "save"), revs[0].Key)
	assert.Equal(t, key(26, "en", "core", "save"), revs[4].Key)

	revs, err = st.CurrentBatch(ctx, models.StringFilter{Branches: []int{27}, Langs: []string{"en"}, Components: []string{"core"}})
	require.NoError(t, err)
	assert.Len(t, revs, 2)

	revs, err = st.CurrentBatch(ctx, models.StringFilter{HelpsOnly: true})
	require.NoError(t, err)
	require.Len(t, revs, 1)
	assert.Equal(t, "save_help", revs[0].StringID)

	revs, err = st.CurrentBatch(ctx, models.StringFilter{Substring: "the FORM"})
	require.NoError(t, err)
	assert.Len(t, revs, 1)

	revs, err = st.CurrentBatch(ctx, models.StringFilter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, revs, 2)
	assert.Equal(t, key(27, "en", "core", "save"), revs[0].Key)

	n, err := st.CountCurrent(ctx, models.StringFilter{Limit: 2, Langs: []string{"en"}})
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestStore_CurrentBatchSubstringEscapesWildcards(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	commit(t, st, "Seed",
		set(key(27, "en", "core", "a"), "100% done"),
		set(key(27, "en", "core", "b"), "100 done"),
	)

	revs, err := st.CurrentBatch(ctx, models.StringFilter{Substring: "0%"})
	require.NoError(t, err)
	require.Len(t, revs, 1)
	assert.Equal(t, "a", revs[0].StringID)
}

func TestStore_CurrentBatchMissingOrOutdated(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := st.CreateCommit(ctx, models.CommitRequest{
		Source:  models.SourceImport,
		Message: "Seed",
		Changes: []models.Change{
			{Key: key(27, "en", "core", "fresh"), Text: models.Text("Fresh"), Modified: base},
			{Key: key(27, "cs", "core", "fresh"), Text: models.Text("Čerstvé"), Modified: base.Add(time.Hour)},
			{Key: key(27, "en", "core", "old"), Text: models.Text("Old"), Modified: base.Add(2 * time.Hour)},
			{Key: key(27, "cs", "core", "old"), Text: models.Text("Staré"), Modified: base},
			{Key: key(27, "en", "core", "gone"), Text: models.Text("Gone"), Modified: base},
			{Key: key(27, "cs", "core", "gone"), Modified: base.Add(time.Hour)},
		},
	})
	require.NoError(t, err)

	revs, err := st.CurrentBatch(ctx, models.StringFilter{MissingOrOutdated: true})
	require.NoError(t, err)
	require.Len(t, revs, 1)
	assert.Equal(t, "old", revs[0].StringID)

	revs, err = st.CurrentBatch(ctx, models.StringFilter{MissingOrOutdated: true, IncludeDeleted: true})
	require.NoError(t, err)
	require.Len(t, revs, 2)
	assert.Equal(t, "gone", revs[0].StringID)
	assert.Equal(t, "old", revs[1].StringID)
}

func TestStore_Greylist(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	commit(t, st, "Seed",
		set(key(27, "en", "core", "a"), "A"),
		set(key(27, "en", "core", "b"), "B"),
	)

	require.NoError(t, st.Greylist(ctx, key(27, "", "core", "a")))
	require.NoError(t, st.Greylist(ctx, key(27, "cs", "core", "a")))

	ok, err := st.IsGreylisted(ctx, key(27, "de", "core", "a"))
	require.NoError(t, err)
	assert.True(t, ok)

	keys, err := st.GreylistedKeys(ctx)
	require.NoError(t, err)
	assert.Len(t, keys, 1)

	revs, err := st.CurrentBatch(ctx, models.StringFilter{GreylistedOnly: true})
	require.NoError(t, err)
	require.Len(t, revs, 1)
	assert.Equal(t, "a", revs[0].StringID)

	revs, err = st.CurrentBatch(ctx, models.StringFilter{WithoutGreylisted: true})
	require.NoError(t, err)
	require.Len(t, revs, 1)
	assert.Equal(t, "b", revs[0].StringID)

	require.NoError(t, st.Ungreylist(ctx, key(27, "en", "core", "a")))
	ok, err = st.IsGreylisted(ctx, key(27, "en", "core", "a"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_AppAndWorkplaceStrings(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SetAppString(ctx, "mobile.login", "core", "login"))
	require.NoError(t, st.SetAppString(ctx, "mobile.login2", "core", "login"))
	require.NoError(t, st.SetWorkplaceString(ctx, "workplace.chat", "mod_chat", "send"))

	apps, err := st.AppStrings(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"core/login": "mobile.login2"}, apps)

	wp, err := st.WorkplaceStrings(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"mod_chat/send": "workplace.chat"}, wp)
}

// ==================== Log Tests ====================

func TestStore_QueryLogFilters(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	write := func(req models.CommitRequest) *models.Commit {
		c, err := st.CreateCommit(ctx, req)
		require.NoError(t, err)
		return c
	}

	c1 := write(models.CommitRequest{
		AuthorID: 5, AuthorInfo: "Jana Nováková <jana@example.com>", Source: models.SourceGit,
		Message: "Import from git", Hash: "a1b2c3d4e5", Committed: base,
		Changes: []models.Change{set(key(27, "cs", "core", "a"), "A"), set(key(27, "cs", "mod_forum", "b"), "B")},
	})
	c2 := write(models.CommitRequest{
		AuthorID: 7, AuthorInfo: "Petr <petr@example.com>", Source: models.SourceManual,
		Message: "Fix typo", Committed: base.Add(time.Hour),
		Changes: []models.Change{set(key(26, "de", "core", "a"), "A")},
	})

	result, err := st.QueryLog(ctx, models.LogFilter{AuthorID: 5, AuthorInfo: "petr"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.NumCommits, "author id and info are OR-ed")

	result, err = st.QueryLog(ctx, models.LogFilter{AuthorInfo: "JANA"})
	require.NoError(t, err)
	require.Len(t, result.Commits, 1)
	assert.Equal(t, c1.ID, result.Commits[0].ID)

	result, err = st.QueryLog(ctx, models.LogFilter{Hash: "a1b2"})
	require.NoError(t, err)
	require.Len(t, result.Commits, 1)
	assert.Equal(t, "a1b2c3d", result.Commits[0].ShortHash())

	result, err = st.QueryLog(ctx, models.LogFilter{Message: "typo", Source: models.SourceManual})
	require.NoError(t, err)
	require.Len(t, result.Commits, 1)
	assert.Equal(t, c2.ID, result.Commits[0].ID)

	result, err = st.QueryLog(ctx, models.LogFilter{CommittedAfter: base.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, 1, result.NumCommits)

	result, err = st.QueryLog(ctx, models.LogFilter{CommittedBefore: base.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, 1, result.NumCommits)

	// Key predicates narrow both commits and their listed revisions
	result, err = st.QueryLog(ctx, models.LogFilter{Components: []string{"mod_forum"}})
	require.NoError(t, err)
	require.Len(t, result.Commits, 1)
	require.Len(t, result.Commits[0].Revisions, 1)
	assert.Equal(t, "b", result.Commits[0].Revisions[0].StringID)
	assert.Equal(t, 1, result.NumStrings)

	result, err = st.QueryLog(ctx, models.LogFilter{Langs: []string{"fr"}})
	require.NoError(t, err)
	assert.Equal(t, 0, result.NumCommits)
	assert.Empty(t, result.Commits)
}

func TestStore_QueryLogLimit(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		commit(t, st, "Edit", set(fooKey, string(rune('a'+i))))
	}

	result, err := st.QueryLog(ctx, models.LogFilter{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, result.Commits, 3)
	assert.Equal(t, 5, result.NumCommits)
	assert.Equal(t, 3, result.NumStrings)
	assert.True(t, result.AboveLimit())

	result, err = st.QueryLog(ctx, models.LogFilter{})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultLogLimit, result.Limit)
}

// ==================== Staging Tests ====================

func TestStore_StageCapturesBaseline(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	commit(t, st, "Seed", set(fooKey, "x"))

	entry, err := st.Stage(ctx, 1, fooKey, models.Text("z"))
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "x", *entry.Baseline)
	assert.True(t, entry.Committable)

	// Re-staging keeps the original baseline
	commit(t, st, "External", set(fooKey, "y"))
	entry, err = st.Stage(ctx, 1, fooKey, models.Text("w"))
	require.NoError(t, err)
	assert.Equal(t, "x", *entry.Baseline)
	assert.Equal(t, "w", *entry.New)
	assert.Equal(t, models.StatusStale, entry.Status)
}

func TestStore_StagingCommittability(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	commit(t, st, "Seed", set(fooKey, "x"))
	_, err := st.Stage(ctx, 1, fooKey, models.Text("z"))
	require.NoError(t, err)

	commit(t, st, "External", set(fooKey, "y"))

	entries, err := st.Staged(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Committable)
	assert.Equal(t, models.StatusStale, entries[0].Status)

	result, err := st.Rebase(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Rebased)
	assert.Equal(t, 0, result.Dropped)

	entries, err = st.Staged(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "y", *entries[0].Baseline)
	assert.True(t, entries[0].Committable)
}

func TestStore_RebaseDropsNoops(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	commit(t, st, "Seed", set(fooKey, "x"))
	_, err := st.Stage(ctx, 1, fooKey, models.Text("y"))
	require.NoError(t, err)

	// Someone else committed the same value
	commit(t, st, "External", set(fooKey, "y"))

	result, err := st.Rebase(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Dropped)
	assert.Equal(t, 0, result.Kept)

	entries, err := st.Staged(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStore_ZeroIsCommittable(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	entry, err := st.Stage(ctx, 1, fooKey, models.Text("0"))
	require.NoError(t, err)
	assert.True(t, entry.Committable)

	entry, err = st.Stage(ctx, 1, key(27, "es", "core_admin", "blank"), models.Text("  "))
	require.NoError(t, err)
	assert.Equal(t, models.StatusNoop, entry.Status)

	result, err := st.CommitStaged(ctx, 1, models.CommitStagedRequest{Source: models.SourceManual, Message: "Zero"})
	require.NoError(t, err)
	require.NotNil(t, result.Commit)
	assert.Equal(t, []models.Key{fooKey}, result.Committed)
	assert.Len(t, result.Unchanged, 1)

	rev, err := st.Current(ctx, fooKey)
	require.NoError(t, err)
	assert.Equal(t, "0", *rev.Value())
}

func TestStore_UnstageAll(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	commit(t, st, "Seed", set(fooKey, "A"))
	_, err := st.Stage(ctx, 1, fooKey, models.Text("B"))
	require.NoError(t, err)
	_, err = st.Stage(ctx, 2, fooKey, models.Text("C"))
	require.NoError(t, err)

	n, err := st.UnstageAll(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	entries, err := st.Staged(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, entries)

	entries, err = st.Staged(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "other editors keep their staging")
}

func TestStore_Unstage(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.Stage(ctx, 1, fooKey, models.Text("B"))
	require.NoError(t, err)

	removed, err := st.Unstage(ctx, 1, fooKey)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = st.Unstage(ctx, 1, fooKey)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestStore_Prune(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	commit(t, st, "Seed", set(key(27, "es", "core", "a"), "A"), set(key(27, "es", "core", "b"), "B"))

	_, err := st.Stage(ctx, 1, key(27, "es", "core", "a"), models.Text("A2"))
	require.NoError(t, err)
	_, err = st.Stage(ctx, 1, key(27, "es", "core", "b"), models.Text(" B "))
	require.NoError(t, err)
	_, err = st.Stage(ctx, 1, key(27, "es", "core", "c"), models.Text("C"))
	require.NoError(t, err)
	commit(t, st, "External", set(key(27, "es", "core", "a"), "A1"))

	pruned, err := st.Prune(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, pruned)

	entries, err := st.Staged(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "c", entries[0].StringID)
}

func TestStore_CommitStagedDeletion(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	commit(t, st, "Seed", set(fooKey, "Hola"))
	_, err := st.Stage(ctx, 1, fooKey, nil)
	require.NoError(t, err)

	result, err := st.CommitStaged(ctx, 1, models.CommitStagedRequest{Source: models.SourceManual, Message: "Remove foo"})
	require.NoError(t, err)
	require.NotNil(t, result.Commit)
	assert.Equal(t, int64(1), result.Commit.AuthorID)

	rev, err := st.Current(ctx, fooKey)
	require.NoError(t, err)
	assert.True(t, rev.Deleted)
}

func TestStore_CommitStagedLeavesStaleEntries(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	commit(t, st, "Seed", set(key(27, "es", "core", "a"), "A"))
	_, err := st.Stage(ctx, 1, key(27, "es", "core", "a"), models.Text("A2"))
	require.NoError(t, err)
	_, err = st.Stage(ctx, 1, key(27, "es", "core", "b"), models.Text("B"))
	require.NoError(t, err)
	commit(t, st, "External", set(key(27, "es", "core", "a"), "A1"))

	result, err := st.CommitStaged(ctx, 1, models.CommitStagedRequest{Source: models.SourceManual, Message: "Mine"})
	require.NoError(t, err)
	assert.Equal(t, []models.Key{key(27, "es", "core", "b")}, result.Committed)
	assert.Equal(t, []models.Key{key(27, "es", "core", "a")}, result.NeedsRebase)

	rev, err := st.Current(ctx, key(27, "es", "core", "a"))
	require.NoError(t, err)
	assert.Equal(t, "A1", *rev.Value(), "stale entry must not overwrite the newer value")

	entries, err := st.Staged(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a", entries[0].StringID)
}

func TestStore_CommitStagedNothingCommittable(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	result, err := st.CommitStaged(ctx, 1, models.CommitStagedRequest{Source: models.SourceManual, Message: "Empty"})
	require.NoError(t, err)
	assert.Nil(t, result.Commit)

	n, err := st.CountCommits(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestStore_CommitStagedStorageFailureKeepsStaging(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.Stage(ctx, 1, key(27, "es", "core", "a"), models.Text("A"))
	require.NoError(t, err)
	_, err = st.Stage(ctx, 1, key(27, "es", "core", "b"), models.Text("B"))
	require.NoError(t, err)

	st.revisionHook = func(i int) error {
		if i == 1 {
			return errors.New("database is locked")
		}
		return nil
	}

	_, err = st.CommitStaged(ctx, 1, models.CommitStagedRequest{Source: models.SourceManual, Message: "Both"})
	require.Error(t, err)
	assert.True(t, lerrors.Is(err, lerrors.KindStorage))

	entries, err := st.Staged(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	revs, err := st.CurrentBatch(ctx, models.StringFilter{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Empty(t, revs)
}

func TestStore_ConcurrentCommitStaged(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	commit(t, st, "Seed", set(fooKey, "x"))
	_, err := st.Stage(ctx, 1, fooKey, models.Text("from one"))
	require.NoError(t, err)
	_, err = st.Stage(ctx, 2, fooKey, models.Text("from two"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*models.CommitStagedResult, 2)
	errs := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = st.CommitStaged(ctx, int64(i+1), models.CommitStagedRequest{
				Source:  models.SourceManual,
				Message: "Race",
			})
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	committed, stale := 0, 0
	for _, r := range results {
		committed += len(r.Committed)
		stale += len(r.NeedsRebase)
	}
	assert.Equal(t, 1, committed, "exactly one editor wins the race")
	assert.Equal(t, 1, stale)

	n, err := st.CountCommits(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

// ==================== Stash Tests ====================

func TestStore_StashRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	commit(t, st, "Seed", set(key(27, "es", "core", "a"), "A"))
	_, err := st.Stage(ctx, 1, key(27, "es", "core", "a"), models.Text("A2"))
	require.NoError(t, err)
	_, err = st.Stage(ctx, 1, key(26, "cs", "mod_forum", "b"), models.Text("B"))
	require.NoError(t, err)
	_, err = st.Stage(ctx, 1, key(27, "es", "core", "c"), nil)
	require.NoError(t, err)

	before, err := st.Staged(ctx, 1)
	require.NoError(t, err)

	stash, err := st.PushStash(ctx, 1, "My work")
	require.NoError(t, err)
	assert.Equal(t, 3, stash.Strings)
	assert.Equal(t, []string{"cs", "es"}, stash.Languages)
	assert.Equal(t, []string{"core", "mod_forum"}, stash.Components)
	assert.Len(t, stash.Hash, 36)
	assert.False(t, stash.IsAutosave())

	staged, err := st.Staged(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, staged, "push clears the staging area")

	_, err = st.ApplyStash(ctx, 1, stash.ID, true)
	require.NoError(t, err)

	after, err := st.Staged(ctx, 1)
	require.NoError(t, err)
	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].Key, after[i].Key)
		assert.Equal(t, before[i].New, after[i].New)
		assert.Equal(t, before[i].Baseline, after[i].Baseline)
	}

	_, err = st.GetStash(ctx, stash.ID)
	assert.True(t, lerrors.Is(err, lerrors.KindNotFound), "restore deletes the stash")
}

func TestStore_StashApplyKeepsStash(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.Stage(ctx, 1, fooKey, models.Text("A"))
	require.NoError(t, err)
	stash, err := st.PushStash(ctx, 1, "WIP")
	require.NoError(t, err)

	// Apply overwrites an entry staged for the same key
	_, err = st.Stage(ctx, 1, fooKey, models.Text("other"))
	require.NoError(t, err)
	_, err = st.ApplyStash(ctx, 1, stash.ID, false)
	require.NoError(t, err)

	entries, err := st.Staged(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "A", *entries[0].New)

	got, err := st.GetStash(ctx, stash.ID)
	require.NoError(t, err)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, fooKey, got.Entries[0].Key)
}

func TestStore_StashPushEmpty(t *testing.T) {
	st := newTestStore(t)

	_, err := st.PushStash(context.Background(), 1, "Nothing")
	assert.True(t, lerrors.Is(err, lerrors.KindValidation))
}

func TestStore_StashOwnership(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.Stage(ctx, 1, fooKey, models.Text("A"))
	require.NoError(t, err)
	stash, err := st.PushStash(ctx, 1, "Mine")
	require.NoError(t, err)

	_, err = st.ApplyStash(ctx, 2, stash.ID, false)
	assert.True(t, lerrors.Is(err, lerrors.KindAuthorization))

	err = st.DropStash(ctx, 2, stash.ID)
	assert.True(t, lerrors.Is(err, lerrors.KindAuthorization))

	entries, err := st.Staged(ctx, 2)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, st.DropStash(ctx, 1, stash.ID))
	err = st.DropStash(ctx, 1, stash.ID)
	assert.True(t, lerrors.Is(err, lerrors.KindNotFound))
}

func TestStore_AutosaveUniqueness(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.Stage(ctx, 1, fooKey, models.Text("A"))
	require.NoError(t, err)
	first, err := st.Autosave(ctx, 1)
	require.NoError(t, err)
	assert.True(t, first.IsAutosave())

	_, err = st.Stage(ctx, 1, key(27, "cs", "core", "b"), models.Text("B"))
	require.NoError(t, err)
	second, err := st.Autosave(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)

	stashes, err := st.ListStashes(ctx, 1)
	require.NoError(t, err)
	require.Len(t, stashes, 1)
	assert.Equal(t, 2, stashes[0].Strings)
	assert.Equal(t, []string{"cs", "es"}, stashes[0].Languages)

	// Autosave does not clear staging
	entries, err := st.Staged(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestStore_ListStashesPerOwner(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for owner := int64(1); owner <= 2; owner++ {
		_, err := st.Stage(ctx, owner, fooKey, models.Text("A"))
		require.NoError(t, err)
		_, err = st.PushStash(ctx, owner, "WIP")
		require.NoError(t, err)
	}

	stashes, err := st.ListStashes(ctx, 1)
	require.NoError(t, err)
	require.Len(t, stashes, 1)
	assert.Equal(t, int64(1), stashes[0].OwnerID)
}
