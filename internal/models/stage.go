package models

import "time"

// StageStatus describes whether a staged entry can be committed
type StageStatus string

const (
	StatusCommittable StageStatus = "committable"
	StatusStale       StageStatus = "stale" // baseline no longer matches the live value
	StatusNoop        StageStatus = "noop"  // new value equals the baseline
)

// StagedEntry is a proposed new value for a key, private to one editor.
// Baseline is the live value captured at staging time; New is nil when the
// editor removes the string.
type StagedEntry struct {
	EditorID int64 `json:"editor_id"`
	Key
	Baseline *string   `json:"baseline"`
	New      *string   `json:"new"`
	StagedAt time.Time `json:"staged_at"`

	Status      StageStatus `json:"-"`
	Committable bool        `json:"-"`
}

// Evaluate recomputes the entry status against the live value of its key
func (e *StagedEntry) Evaluate(live *string) {
	switch {
	case !TextEqual(e.Baseline, live):
		e.Status = StatusStale
	case TextEqual(e.New, e.Baseline):
		e.Status = StatusNoop
	default:
		e.Status = StatusCommittable
	}
	e.Committable = e.Status == StatusCommittable
}

// SurvivesRebase reports whether the entry would still be committable once
// its baseline is refreshed to live
func (e *StagedEntry) SurvivesRebase(live *string) bool {
	rebased := *e
	rebased.Baseline = live
	rebased.Evaluate(live)
	return rebased.Committable
}

// CommitText returns the text a commit of this entry writes, nil for removal
func (e *StagedEntry) CommitText() *string {
	if IsMissing(e.New) {
		return nil
	}
	return e.New
}

// CommitStagedRequest carries the commit metadata for committing staged entries
type CommitStagedRequest struct {
	AuthorInfo string
	Source     string
	Message    string
}

// CommitStagedResult reports the outcome of committing an editor's staging
// area. Commit is nil when nothing was committable.
type CommitStagedResult struct {
	Commit      *Commit
	Committed   []Key
	NeedsRebase []Key
	Unchanged   []Key
}

// RebaseResult reports the outcome of rebasing a staging area
type RebaseResult struct {
	Rebased int // entries whose baseline was refreshed
	Dropped int // entries removed because they became no-ops
	Kept    int
}
