package models

import (
	"strings"
	"time"

	lerrors "github.com/kilupskalvis/langvc/internal/errors"
)

// ContributionState is the review state of a contribution
type ContributionState int

const (
	ContributionNew      ContributionState = 0
	ContributionReview   ContributionState = 10
	ContributionRejected ContributionState = 20
	ContributionAccepted ContributionState = 30
)

var contributionStateNames = map[ContributionState]string{
	ContributionNew:      "new",
	ContributionReview:   "review",
	ContributionRejected: "rejected",
	ContributionAccepted: "accepted",
}

func (s ContributionState) String() string {
	if name, ok := contributionStateNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseContributionState parses a state name such as "review"
func ParseContributionState(name string) (ContributionState, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for state, n := range contributionStateNames {
		if n == name {
			return state, nil
		}
	}
	return 0, lerrors.Validation("unknown contribution state %q", name)
}

// Contribution is a stash submitted for review by its author. The stash
// itself is handed over on submission and no longer listed for the author.
type Contribution struct {
	ID         int64             `json:"id"`
	AuthorID   int64             `json:"author_id"`
	AssigneeID int64             `json:"assignee_id"` // 0 when unassigned
	Lang       string            `json:"lang"`
	Subject    string            `json:"subject"`
	Message    string            `json:"message"`
	StashID    int64             `json:"stash_id"`
	State      ContributionState `json:"state"`
	Created    time.Time         `json:"time_created"`
	Modified   time.Time         `json:"time_modified"`

	Components []string `json:"components"`
	Strings    int      `json:"strings"`

	// StringsRebased counts the strings that would still be staged after a
	// rebase against the live values, computed when the contribution is read.
	StringsRebased int `json:"strings_rebased"`
}

// ContributionFilter selects contributions. Zero fields do not constrain.
type ContributionFilter struct {
	AuthorID   int64
	AssigneeID int64
	Lang       string
	States     []ContributionState
}
