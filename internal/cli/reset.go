package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset [<key> | --all]",
	Short: "Unstage strings",
	Long: `Remove strings from your staging area.

Examples:
  langvc reset 3900/cs/core/savechanges   Unstage one string
  langvc reset --all                      Clear the staging area`,
	Args: cobra.MaximumNArgs(4),
	Run:  runReset,
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Drop staged strings that cannot be committed",
	Long: `Remove staged strings whose baseline no longer matches the current value
or whose proposed value equals the current value.`,
	Args: cobra.NoArgs,
	Run:  runPrune,
}

var rebaseCmd = &cobra.Command{
	Use:   "rebase",
	Short: "Accept the current values as baselines",
	Long: `Refresh the baseline of every staged string to its current value.
Strings whose proposed value equals the current value are dropped.`,
	Args: cobra.NoArgs,
	Run:  runRebase,
}

var resetAll bool

func init() {
	resetCmd.Flags().BoolVar(&resetAll, "all", false, "Unstage every string")
}

func runReset(cmd *cobra.Command, args []string) {
	bgCtx := context.Background()
	c := initContext()
	defer c.Close()

	editorID := c.requireEditor()
	green := color.New(color.FgGreen)

	if resetAll || len(args) == 0 {
		n, err := c.Engine.UnstageAll(bgCtx, editorID)
		if err != nil {
			exitError("failed to unstage: %v", err)
		}
		green.Printf("Unstaged %d string(s)\n", n)
		return
	}

	key, err := keyArgs(args)
	if err != nil {
		exitError("%v", err)
	}
	if err := c.Engine.Unstage(bgCtx, editorID, key); err != nil {
		exitError("%v", err)
	}
	green.Printf("Unstaged %s\n", key)
}

func runPrune(cmd *cobra.Command, args []string) {
	bgCtx := context.Background()
	c := initContext()
	defer c.Close()

	n, err := c.Engine.Prune(bgCtx, c.requireEditor())
	if err != nil {
		exitError("failed to prune: %v", err)
	}
	fmt.Printf("Pruned %d string(s)\n", n)
}

func runRebase(cmd *cobra.Command, args []string) {
	bgCtx := context.Background()
	c := initContext()
	defer c.Close()

	result, err := c.Engine.Rebase(bgCtx, c.requireEditor())
	if err != nil {
		exitError("failed to rebase: %v", err)
	}
	fmt.Printf("Rebased %d string(s), dropped %d, %d still staged\n", result.Rebased, result.Dropped, result.Kept)
}
