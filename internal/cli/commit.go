package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/kilupskalvis/langvc/internal/models"
	"github.com/spf13/cobra"
)

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Record staged strings in the repository",
	Long: `Create a new commit from your committable staged strings.

Strings changed by someone else since you staged them stay staged; run
"langvc rebase" to review them against the current values.`,
	Args: cobra.NoArgs,
	Run:  runCommit,
}

var (
	commitMessage string
	commitSource  string
)

func init() {
	commitCmd.Flags().StringVarP(&commitMessage, "message", "m", "", "Commit message (required)")
	commitCmd.Flags().StringVar(&commitSource, "source", models.SourceManual, "Commit source (manual, import, git, bot)")
	commitCmd.MarkFlagRequired("message")
}

func runCommit(cmd *cobra.Command, args []string) {
	bgCtx := context.Background()
	c := initContext()
	defer c.Close()

	result, err := c.Engine.CommitStaged(bgCtx, c.requireEditor(), models.CommitStagedRequest{
		AuthorInfo: c.Config.AuthorInfo,
		Source:     commitSource,
		Message:    commitMessage,
	})
	if err != nil {
		exitError("%v", err)
	}

	yellow := color.New(color.FgYellow)
	if result.Commit == nil {
		fmt.Println("Nothing to commit")
	} else {
		green := color.New(color.FgGreen)
		green.Printf("[%d] %s\n", result.Commit.ID, result.Commit.Message)
		fmt.Printf(" %d string(s) committed\n", len(result.Committed))
	}

	if len(result.NeedsRebase) > 0 {
		yellow.Printf("\n%d string(s) changed since staged and were kept:\n", len(result.NeedsRebase))
		for _, key := range result.NeedsRebase {
			fmt.Printf("        %s\n", key)
		}
		fmt.Println("\nUse 'langvc rebase' to accept the current values as baselines.")
	}
	if len(result.Unchanged) > 0 {
		fmt.Printf("\n%d staged string(s) equal the current value; use 'langvc prune' to drop them.\n", len(result.Unchanged))
	}
}
