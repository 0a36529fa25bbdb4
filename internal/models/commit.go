package models

import "time"

// Commit sources
const (
	SourceManual = "manual"
	SourceImport = "import"
	SourceGit    = "git"
	SourceBot    = "bot"
)

// Commit is an immutable record of a set of revisions written together
type Commit struct {
	ID         int64       `json:"id"`
	Source     string      `json:"source"`
	Committed  time.Time   `json:"time_committed"`
	Message    string      `json:"message"`
	Hash       string      `json:"hash,omitempty"`
	AuthorID   int64       `json:"author_id"`
	AuthorInfo string      `json:"author_info"`
	Revisions  []*Revision `json:"revisions,omitempty"`
}

// ShortHash returns the first 7 characters of the external commit hash
func (c *Commit) ShortHash() string {
	if len(c.Hash) > 7 {
		return c.Hash[:7]
	}
	return c.Hash
}

// Change is one key's new value within a commit request. A nil Text
// removes the string.
type Change struct {
	Key
	Text     *string
	Modified time.Time // zero means the commit time
}

// CommitRequest describes a commit to be written atomically
type CommitRequest struct {
	AuthorID   int64
	AuthorInfo string
	Source     string
	Message    string
	Hash       string
	Committed  time.Time // zero means now
	Changes    []Change
}
