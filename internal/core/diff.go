package core

import (
	"context"

	"github.com/kilupskalvis/langvc/internal/diff"
	"github.com/kilupskalvis/langvc/internal/models"
)

// StagedDiff is a staged entry with the word diff from its baseline to its
// new value
type StagedDiff struct {
	Entry  *models.StagedEntry
	Blocks []diff.Block[string]
	Stats  diff.Stats
}

// StageView summarizes an editor's staging area
type StageView struct {
	Entries     []*StagedDiff
	Staged      int
	Committable int
	Stale       int
	Noop        int
}

// StageView returns the editor's staged entries with word diffs
func (e *Engine) StageView(ctx context.Context, editorID int64) (*StageView, error) {
	entries, err := e.Staged(ctx, editorID)
	if err != nil {
		return nil, err
	}

	view := &StageView{Staged: len(entries)}
	for _, entry := range entries {
		view.Entries = append(view.Entries, DiffEntry(entry))
		switch entry.Status {
		case models.StatusCommittable:
			view.Committable++
		case models.StatusStale:
			view.Stale++
		case models.StatusNoop:
			view.Noop++
		}
	}
	return view, nil
}

// DiffEntry computes the word diff of a staged entry
func DiffEntry(entry *models.StagedEntry) *StagedDiff {
	blocks := diff.Words(models.TextValue(entry.Baseline), models.TextValue(entry.New))
	return &StagedDiff{
		Entry:  entry,
		Blocks: blocks,
		Stats:  diff.Summarize(blocks),
	}
}
