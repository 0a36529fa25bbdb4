// Package models defines the data structures shared by the langvc packages:
// string keys, revisions, commits, staged entries, stashes and query filters.
package models

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	lerrors "github.com/kilupskalvis/langvc/internal/errors"
)

// MaxStringIDLength is the longest accepted string identifier.
const MaxStringIDLength = 255

var (
	langPattern      = regexp.MustCompile(`^[a-z]{2,3}(_[a-z0-9]+)*$`)
	componentPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
)

// Key identifies one string in one language of one component on one branch.
// It is the unit of versioning.
type Key struct {
	Branch    int    `json:"branch"`
	Lang      string `json:"lang"`
	Component string `json:"component"`
	StringID  string `json:"stringid"`
}

// String returns the key as "branch/lang/component/stringid"
func (k Key) String() string {
	return fmt.Sprintf("%d/%s/%s/%s", k.Branch, k.Lang, k.Component, k.StringID)
}

// Validate checks that every part of the key is well formed
func (k Key) Validate() error {
	if k.Branch <= 0 {
		return lerrors.Validation("invalid branch %d in key %s", k.Branch, k)
	}
	if !langPattern.MatchString(k.Lang) {
		return lerrors.Validation("invalid language code %q", k.Lang)
	}
	if !componentPattern.MatchString(k.Component) {
		return lerrors.Validation("invalid component name %q", k.Component)
	}
	if k.StringID == "" {
		return lerrors.Validation("empty string identifier in key %s", k)
	}
	if utf8.RuneCountInString(k.StringID) > MaxStringIDLength {
		return lerrors.Validation("string identifier longer than %d characters", MaxStringIDLength)
	}
	if strings.IndexFunc(k.StringID, unicode.IsSpace) >= 0 {
		return lerrors.Validation("string identifier %q contains whitespace", k.StringID)
	}
	return nil
}

// ParseKey parses a key in the "branch/lang/component/stringid" form.
// The string identifier may itself contain slashes.
func ParseKey(s string) (Key, error) {
	parts := strings.SplitN(s, "/", 4)
	if len(parts) != 4 {
		return Key{}, lerrors.Validation("invalid key %q, expected branch/lang/component/stringid", s)
	}
	branch, err := strconv.Atoi(parts[0])
	if err != nil {
		return Key{}, lerrors.Validation("invalid branch in key %q", s)
	}
	k := Key{Branch: branch, Lang: parts[1], Component: parts[2], StringID: parts[3]}
	if err := k.Validate(); err != nil {
		return Key{}, err
	}
	return k, nil
}

// Less orders keys by branch descending, then language, component and string id.
// This is the canonical ordering of query results.
func (k Key) Less(o Key) bool {
	if k.Branch != o.Branch {
		return k.Branch > o.Branch
	}
	if k.Lang != o.Lang {
		return k.Lang < o.Lang
	}
	if k.Component != o.Component {
		return k.Component < o.Component
	}
	return k.StringID < o.StringID
}

// SortKeys sorts keys in canonical order
func SortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
}
