package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/kilupskalvis/langvc/internal/models"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the staging area",
	Long: `Show the strings staged by the current editor, each with a word diff
between its baseline and the proposed value.`,
	Run: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) {
	bgCtx := context.Background()
	c := initContext()
	defer c.Close()

	view, err := c.Engine.StageView(bgCtx, c.requireEditor())
	if err != nil {
		exitError("failed to read staging area: %v", err)
	}

	if view.Staged == 0 {
		fmt.Println("Nothing staged")
		return
	}

	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	if view.Committable > 0 {
		fmt.Println("\nChanges to be committed:")
		cyan.Println("  (use \"langvc reset <key>\" to unstage)")
		fmt.Println()
		for _, d := range view.Entries {
			if d.Entry.Status == models.StatusCommittable {
				writeStagedEntry(os.Stdout, d, "        ")
			}
		}
	}

	if view.Stale > 0 {
		fmt.Println("\nChanged by someone else since staged:")
		cyan.Println("  (use \"langvc rebase\" to accept the current values as baselines)")
		fmt.Println()
		for _, d := range view.Entries {
			if d.Entry.Status == models.StatusStale {
				yellow.Printf("        stale:     %s\n", d.Entry.Key)
			}
		}
	}

	if view.Noop > 0 {
		fmt.Println("\nSame as the current value:")
		cyan.Println("  (use \"langvc prune\" to drop them)")
		fmt.Println()
		for _, d := range view.Entries {
			if d.Entry.Status == models.StatusNoop {
				writeStagedEntry(os.Stdout, d, "        ")
			}
		}
	}

	// Summary
	fmt.Println()
	parts := []string{fmt.Sprintf("%d staged", view.Staged)}
	if view.Committable > 0 {
		parts = append(parts, fmt.Sprintf("%d committable", view.Committable))
	}
	if view.Stale > 0 {
		parts = append(parts, fmt.Sprintf("%d stale", view.Stale))
	}
	if view.Noop > 0 {
		parts = append(parts, fmt.Sprintf("%d unchanged", view.Noop))
	}
	fmt.Println(strings.Join(parts, ", "))

	if view.Committable > 0 {
		fmt.Println("\nUse 'langvc commit -m \"message\"' to commit changes.")
	}
}
