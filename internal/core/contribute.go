package core

import (
	"context"
	"strings"
	"unicode/utf8"

	lerrors "github.com/kilupskalvis/langvc/internal/errors"
	"github.com/kilupskalvis/langvc/internal/logging"
	"github.com/kilupskalvis/langvc/internal/models"
	"go.uber.org/zap"
)

// MaxSubjectLength is the longest accepted contribution subject, in characters
const MaxSubjectLength = 255

// contributionMoves lists the allowed state changes. Moves marked true may
// only be made by the assignee.
var contributionMoves = map[models.ContributionState]map[models.ContributionState]bool{
	models.ContributionNew: {
		models.ContributionReview: false,
	},
	models.ContributionReview: {
		models.ContributionNew:      true,
		models.ContributionAccepted: true,
		models.ContributionRejected: true,
	},
	models.ContributionRejected: {
		models.ContributionReview: false,
	},
}

// Contribute submits one of the author's stashes for review. The stash is
// handed over to the contribution and leaves the author's stash list.
func (e *Engine) Contribute(ctx context.Context, authorID, stashID int64, subject, message string) (*models.Contribution, error) {
	if err := validateEditor(authorID); err != nil {
		return nil, err
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, lerrors.Validation("contribution subject is required")
	}
	if utf8.RuneCountInString(subject) > MaxSubjectLength {
		return nil, lerrors.Validation("contribution subject longer than %d characters", MaxSubjectLength)
	}

	contrib, err := e.store.SubmitContribution(ctx, authorID, stashID, subject, strings.TrimSpace(message))
	if err != nil {
		return nil, err
	}
	if err := e.countRebased(ctx, contrib); err != nil {
		return nil, err
	}

	logging.ForEditor(e.logger, authorID).Info("submitted contribution",
		zap.Int64("contribution", contrib.ID),
		zap.String("lang", contrib.Lang),
		zap.Int("strings", contrib.Strings),
	)
	return contrib, nil
}

// Contribution returns one contribution with its rebased string count
func (e *Engine) Contribution(ctx context.Context, id int64) (*models.Contribution, error) {
	contrib, err := e.store.GetContribution(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := e.countRebased(ctx, contrib); err != nil {
		return nil, err
	}
	return contrib, nil
}

// Contributions lists matching contributions, newest first
func (e *Engine) Contributions(ctx context.Context, filter models.ContributionFilter) ([]*models.Contribution, error) {
	list, err := e.store.ListContributions(ctx, filter)
	if err != nil {
		return nil, err
	}
	for _, c := range list {
		if err := e.countRebased(ctx, c); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// ContributionEntries returns the staged entries a contribution carries,
// evaluated against the live store
func (e *Engine) ContributionEntries(ctx context.Context, id int64) ([]*models.StagedEntry, error) {
	entries, err := e.store.ContributionEntries(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		rev, err := e.store.Current(ctx, entry.Key)
		if err != nil {
			return nil, err
		}
		entry.Evaluate(rev.Value())
	}
	return entries, nil
}

func (e *Engine) countRebased(ctx context.Context, c *models.Contribution) error {
	entries, err := e.store.ContributionEntries(ctx, c.ID)
	if err != nil {
		return err
	}
	c.StringsRebased, err = e.store.RebasedCount(ctx, entries)
	return err
}

// SetContributionState moves a contribution to another review state.
// Starting a review assigns the editor; going back to new clears the
// assignee. Accepting, rejecting and resigning are reserved to the assignee.
func (e *Engine) SetContributionState(ctx context.Context, editorID, id int64, to models.ContributionState) (*models.Contribution, error) {
	if err := validateEditor(editorID); err != nil {
		return nil, err
	}

	var from models.ContributionState
	contrib, err := e.store.UpdateContribution(ctx, id, func(c *models.Contribution) error {
		assigneeOnly, ok := contributionMoves[c.State][to]
		if !ok {
			return lerrors.Conflict("contribution %d is %s and cannot become %s", id, c.State, to)
		}
		if assigneeOnly && c.AssigneeID != editorID {
			return lerrors.Authorization("contribution %d is assigned to editor %d", id, c.AssigneeID)
		}

		from = c.State
		c.State = to
		switch to {
		case models.ContributionReview:
			c.AssigneeID = editorID
		case models.ContributionNew:
			c.AssigneeID = 0
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := e.countRebased(ctx, contrib); err != nil {
		return nil, err
	}

	logging.ForEditor(e.logger, editorID).Info("contribution state changed",
		zap.Int64("contribution", id),
		zap.Stringer("from", from),
		zap.Stringer("to", to),
	)
	return contrib, nil
}

// ApplyContribution stages a contribution's strings for the editor, so a
// reviewer can rebase and commit them
func (e *Engine) ApplyContribution(ctx context.Context, editorID, id int64) (*models.Contribution, error) {
	if err := validateEditor(editorID); err != nil {
		return nil, err
	}
	contrib, err := e.store.ApplyContribution(ctx, editorID, id)
	if err != nil {
		return nil, err
	}
	logging.ForEditor(e.logger, editorID).Info("applied contribution",
		zap.Int64("contribution", id),
		zap.Int("strings", contrib.Strings),
	)
	return contrib, nil
}
