package models

import "time"

// DefaultLogLimit caps the number of commits returned by a log query
const DefaultLogLimit = 1000

// StringFilter selects current revisions. Zero-valued fields do not
// constrain the result; present predicates are combined with AND.
type StringFilter struct {
	Branches   []int
	Langs      []string
	Components []string
	StringID   string
	Substring  string // case-insensitive match against the text

	MissingOrOutdated bool // translations older than their English original
	GreylistedOnly    bool
	WithoutGreylisted bool
	HelpsOnly         bool // string ids ending in _help or _link
	IncludeDeleted    bool

	Limit  int
	Offset int
}

// LogFilter selects commits from the commit log
type LogFilter struct {
	AuthorID        int64
	AuthorInfo      string // substring; OR-ed with AuthorID when both are set
	Message         string // substring
	Hash            string // prefix
	Source          string
	CommittedAfter  time.Time // inclusive
	CommittedBefore time.Time // exclusive

	// Key predicates narrow commits to those touching a matching revision
	Branches   []int
	Langs      []string
	Components []string
	StringID   string

	Limit int // 0 means DefaultLogLimit
}

// HasKeyPredicates reports whether the filter constrains revisions
func (f *LogFilter) HasKeyPredicates() bool {
	return len(f.Branches) > 0 || len(f.Langs) > 0 || len(f.Components) > 0 || f.StringID != ""
}

// LogResult is the outcome of a commit log query
type LogResult struct {
	Commits    []*Commit
	NumCommits int // all matching commits, may exceed Limit
	NumStrings int // matching revisions within the returned commits
	Limit      int
}

// AboveLimit reports whether more commits matched than were returned
func (r *LogResult) AboveLimit() bool {
	return r.NumCommits > r.Limit
}

// TranslatorFilter selects English originals and their translations
type TranslatorFilter struct {
	StringFilter
	Page    int // 1-based
	PerPage int
}

// TranslatorRow pairs an English original with its translation in one language
type TranslatorRow struct {
	Key         Key // the translation key
	Original    *Revision
	Translation *Revision // nil when missing
	Outdated    bool
	Greylisted  bool
	AppID       string
	WorkplaceID string
}

// Missing reports whether the row has no usable translation
func (r *TranslatorRow) Missing() bool {
	return IsMissing(r.Translation.Value())
}

// TranslatorPage is one page of translator rows
type TranslatorPage struct {
	Rows    []*TranslatorRow
	Found   int
	Missing int // across all pages
	Page    int
	Pages   int
}
