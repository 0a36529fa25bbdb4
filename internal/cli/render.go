package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/kilupskalvis/langvc/internal/core"
	"github.com/kilupskalvis/langvc/internal/diff"
	"github.com/kilupskalvis/langvc/internal/models"
)

var (
	insertColor = color.New(color.FgGreen)
	deleteColor = color.New(color.FgRed, color.CrossedOut)
)

// writeWordDiff renders word diff blocks inline: deleted words in red,
// inserted words in green
func writeWordDiff(w io.Writer, blocks []diff.Block[string]) {
	for _, b := range blocks {
		if b.Op == diff.Equal {
			fmt.Fprint(w, b.OldText())
			continue
		}
		if old := b.OldText(); old != "" {
			deleteColor.Fprint(w, old)
		}
		if added := b.NewText(); added != "" {
			insertColor.Fprint(w, added)
		}
	}
}

// statusLabel describes a staged entry in status output
func statusLabel(d *core.StagedDiff) string {
	e := d.Entry
	switch {
	case e.Status == models.StatusStale:
		return "stale"
	case e.Status == models.StatusNoop:
		return "unchanged"
	case models.IsMissing(e.New):
		return "deleted"
	case models.IsMissing(e.Baseline):
		return "new"
	default:
		return "modified"
	}
}

// writeStagedEntry renders one staged entry with its word diff
func writeStagedEntry(w io.Writer, d *core.StagedDiff, indent string) {
	label := statusLabel(d)
	fmt.Fprintf(w, "%s%-10s %s\n", indent, label+":", d.Entry.Key)
	if label == "deleted" || label == "unchanged" {
		return
	}
	fmt.Fprint(w, indent+"    ")
	writeWordDiff(w, d.Blocks)
	fmt.Fprintln(w)
}

// stashSummary renders a one-line stash description
func stashSummary(s *models.Stash) string {
	var b strings.Builder
	fmt.Fprintf(&b, "stash %d: %s (%d strings", s.ID, s.Name, s.Strings)
	if len(s.Languages) > 0 {
		fmt.Fprintf(&b, "; %s", strings.Join(s.Languages, ", "))
	}
	if len(s.Components) > 0 {
		fmt.Fprintf(&b, "; %s", strings.Join(s.Components, ", "))
	}
	b.WriteString(")")
	return b.String()
}

// contribSummary renders a contribution on one line
func contribSummary(c *models.Contribution) string {
	var b strings.Builder
	fmt.Fprintf(&b, "contribution %d [%s]: %s (%s; %d strings, %d after rebase",
		c.ID, c.State, c.Subject, c.Lang, c.Strings, c.StringsRebased)
	if len(c.Components) > 0 {
		fmt.Fprintf(&b, "; %s", strings.Join(c.Components, ", "))
	}
	fmt.Fprintf(&b, "; by %d", c.AuthorID)
	if c.AssigneeID > 0 {
		fmt.Fprintf(&b, ", assigned to %d", c.AssigneeID)
	}
	b.WriteString(")")
	return b.String()
}
