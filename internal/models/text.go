package models

import "strings"

// Text returns a pointer to s, for building optional text values.
func Text(s string) *string {
	return &s
}

// TextValue dereferences an optional text, returning "" when absent.
func TextValue(t *string) string {
	if t == nil {
		return ""
	}
	return *t
}

// IsMissing reports whether a text carries no value. Absent and blank texts
// are missing; "0" and any other non-blank string are real values.
func IsMissing(t *string) bool {
	return t == nil || strings.TrimSpace(*t) == ""
}

// TextEqual compares two optional texts. Two missing texts are equal, a
// missing and a present text differ, and present texts are compared with
// surrounding whitespace trimmed.
func TextEqual(a, b *string) bool {
	am, bm := IsMissing(a), IsMissing(b)
	if am || bm {
		return am == bm
	}
	return strings.TrimSpace(*a) == strings.TrimSpace(*b)
}
