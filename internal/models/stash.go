package models

import (
	"sort"
	"strconv"
	"time"
)

// AutosavePrefix prefixes the hash of an owner's autosave stash
const AutosavePrefix = "xxxxautosaveuser"

// AutosaveHash returns the reserved hash of the owner's autosave stash
func AutosaveHash(ownerID int64) string {
	return AutosavePrefix + strconv.FormatInt(ownerID, 10)
}

// Stash is a persisted snapshot of a staging area
type Stash struct {
	ID         int64          `json:"id"`
	OwnerID    int64          `json:"owner_id"`
	Name       string         `json:"name"`
	Hash       string         `json:"hash"`
	Created    time.Time      `json:"time_created"`
	Entries    []*StagedEntry `json:"-"`
	Strings    int            `json:"strings"`
	Languages  []string       `json:"languages"`
	Components []string       `json:"components"`
}

// IsAutosave reports whether this is the owner's autosave stash
func (s *Stash) IsAutosave() bool {
	return s.Hash == AutosaveHash(s.OwnerID)
}

// Summarize counts the entries and collects their distinct languages and
// components, both sorted.
func Summarize(entries []*StagedEntry) (strings int, languages, components []string) {
	langs := make(map[string]bool)
	comps := make(map[string]bool)
	for _, e := range entries {
		langs[e.Lang] = true
		comps[e.Component] = true
	}
	languages = sortedKeys(langs)
	components = sortedKeys(comps)
	return len(entries), languages, components
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
