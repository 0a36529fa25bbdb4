package models

import "time"

// Revision associates a key with a text as introduced by one commit.
// Deleted revisions are tombstones and carry no text.
type Revision struct {
	ID       int64 `json:"id"`
	CommitID int64 `json:"commit_id"`
	Key
	Text     *string   `json:"text"`
	Deleted  bool      `json:"deleted"`
	Modified time.Time `json:"time_modified"`
}

// Value returns the text the revision makes current, nil for tombstones
// and for a nil revision.
func (r *Revision) Value() *string {
	if r == nil || r.Deleted {
		return nil
	}
	return r.Text
}
