// Package diff computes word-level edit scripts between two token sequences.
//
// The algorithm finds the longest common contiguous run of tokens, keeps it
// unchanged and recurses on the parts before and after it. When no common
// run exists the remaining tokens form a single replace block.
package diff

import (
	"regexp"
	"strings"
)

// Op is the kind of a diff block
type Op int

const (
	Equal   Op = iota // tokens present in both sequences
	Replace           // Old tokens deleted, New tokens inserted
)

// Block is one unit of an edit script. For Equal blocks Old and New hold
// the same tokens. For Replace blocks either side may be empty.
type Block[T comparable] struct {
	Op  Op
	Old []T
	New []T
}

// segment is a pending sub-problem, or an Equal block waiting to be emitted
type segment struct {
	oldLo, oldHi int
	newLo, newHi int
	equal        bool
}

// Compute returns the edit script turning old into new. Concatenating the
// Old sides of all blocks reproduces old and the New sides reproduce new.
func Compute[T comparable](old, new []T) []Block[T] {
	var blocks []Block[T]

	// Explicit LIFO stack; segments are pushed in reverse so the output stays ordered.
	stack := []segment{{oldLo: 0, oldHi: len(old), newLo: 0, newHi: len(new)}}
	for len(stack) > 0 {
		seg := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if seg.equal {
			blocks = append(blocks, Block[T]{
				Op:  Equal,
				Old: old[seg.oldLo:seg.oldHi],
				New: new[seg.newLo:seg.newHi],
			})
			continue
		}

		o := old[seg.oldLo:seg.oldHi]
		n := new[seg.newLo:seg.newHi]
		oStart, nStart, length := longestCommonRun(o, n)
		if length == 0 {
			if len(o) > 0 || len(n) > 0 {
				blocks = append(blocks, Block[T]{Op: Replace, Old: o, New: n})
			}
			continue
		}

		oMatch, nMatch := seg.oldLo+oStart, seg.newLo+nStart
		stack = append(stack,
			segment{oldLo: oMatch + length, oldHi: seg.oldHi, newLo: nMatch + length, newHi: seg.newHi},
			segment{oldLo: oMatch, oldHi: oMatch + length, newLo: nMatch, newHi: nMatch + length, equal: true},
			segment{oldLo: seg.oldLo, oldHi: oMatch, newLo: seg.newLo, newHi: nMatch},
		)
	}
	return blocks
}

// longestCommonRun finds the longest contiguous run shared by a and b.
// Ties go to the first run found scanning a, then b, in index order.
func longestCommonRun[T comparable](a, b []T) (aStart, bStart, length int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}

	// prev[j+1] holds the run length ending at a[i-1], b[j]
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := range a {
		for j := range b {
			if a[i] == b[j] {
				cur[j+1] = prev[j] + 1
				if cur[j+1] > length {
					length = cur[j+1]
					aStart = i + 1 - length
					bStart = j + 1 - length
				}
			} else {
				cur[j+1] = 0
			}
		}
		prev, cur = cur, prev
	}
	return aStart, bStart, length
}

var tokenPattern = regexp.MustCompile(`\s+|\S+`)

// Tokenize splits s into alternating runs of whitespace and non-whitespace.
// Joining the tokens reproduces s exactly.
func Tokenize(s string) []string {
	return tokenPattern.FindAllString(s, -1)
}

// Words diffs two strings at word granularity
func Words(old, new string) []Block[string] {
	return Compute(Tokenize(old), Tokenize(new))
}

// OldText joins the old side of a string block
func (b Block[T]) OldText() string {
	return joinTokens(b.Old)
}

// NewText joins the new side of a string block
func (b Block[T]) NewText() string {
	return joinTokens(b.New)
}

func joinTokens[T comparable](tokens []T) string {
	var sb strings.Builder
	for _, t := range tokens {
		if s, ok := any(t).(string); ok {
			sb.WriteString(s)
		}
	}
	return sb.String()
}

// Stats summarises an edit script
type Stats struct {
	Unchanged int
	Deleted   int
	Inserted  int
}

// Summarize counts unchanged, deleted and inserted tokens
func Summarize[T comparable](blocks []Block[T]) Stats {
	var s Stats
	for _, b := range blocks {
		if b.Op == Equal {
			s.Unchanged += len(b.Old)
			continue
		}
		s.Deleted += len(b.Old)
		s.Inserted += len(b.New)
	}
	return s
}

// Identical reports whether the script contains no changes
func Identical[T comparable](blocks []Block[T]) bool {
	for _, b := range blocks {
		if b.Op == Replace {
			return false
		}
	}
	return true
}
