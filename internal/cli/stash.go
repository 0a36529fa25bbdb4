package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/kilupskalvis/langvc/internal/core"
	"github.com/kilupskalvis/langvc/internal/models"
	"github.com/spf13/cobra"
)

var stashName string

var stashCmd = &cobra.Command{
	Use:   "stash",
	Short: "Stash staged strings",
	Long: `Save your staged strings in a stash and clear the staging area.

When run without a subcommand, acts as 'stash push'.

Examples:
  langvc stash                       Stash all staged strings
  langvc stash -m "Forum wording"    Stash with a custom name
  langvc stash list                  List your stashes
  langvc stash pop                   Restore and remove the newest stash
  langvc stash apply 12              Restore stash 12 and keep it
  langvc stash drop 12               Remove stash 12
  langvc stash autosave              Save the staging area in your autosave stash`,
	Args: cobra.NoArgs,
	Run:  runStashPush,
}

var stashPushCmd = &cobra.Command{
	Use:   "push [-m <name>]",
	Short: "Save staged strings to a new stash",
	Args:  cobra.NoArgs,
	Run:   runStashPush,
}

var stashListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your stashes",
	Args:  cobra.NoArgs,
	Run:   runStashList,
}

var stashPopCmd = &cobra.Command{
	Use:   "pop [<id>]",
	Short: "Restore a stash and remove it",
	Args:  cobra.MaximumNArgs(1),
	Run:   runStashPop,
}

var stashApplyCmd = &cobra.Command{
	Use:   "apply [<id>]",
	Short: "Restore a stash without removing it",
	Args:  cobra.MaximumNArgs(1),
	Run:   runStashApply,
}

var stashDropCmd = &cobra.Command{
	Use:   "drop [<id>]",
	Short: "Remove a stash",
	Args:  cobra.MaximumNArgs(1),
	Run:   runStashDrop,
}

var stashShowCmd = &cobra.Command{
	Use:   "show [<id>]",
	Short: "Show the strings in a stash",
	Args:  cobra.MaximumNArgs(1),
	Run:   runStashShow,
}

var stashAutosaveCmd = &cobra.Command{
	Use:   "autosave",
	Short: "Save the staging area in your autosave stash",
	Long:  `Create or overwrite your autosave stash. The staging area is kept.`,
	Args:  cobra.NoArgs,
	Run:   runStashAutosave,
}

func init() {
	stashCmd.Flags().StringVarP(&stashName, "message", "m", "", "Stash name")
	stashPushCmd.Flags().StringVarP(&stashName, "message", "m", "", "Stash name")

	stashCmd.AddCommand(stashPushCmd)
	stashCmd.AddCommand(stashListCmd)
	stashCmd.AddCommand(stashPopCmd)
	stashCmd.AddCommand(stashApplyCmd)
	stashCmd.AddCommand(stashDropCmd)
	stashCmd.AddCommand(stashShowCmd)
	stashCmd.AddCommand(stashAutosaveCmd)

	rootCmd.AddCommand(stashCmd)
}

// resolveStashID returns the stash named by args, or the newest regular
// stash when args is empty
func resolveStashID(ctx context.Context, e *core.Engine, editorID int64, args []string) (int64, error) {
	if len(args) == 1 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			return 0, fmt.Errorf("invalid stash id %q", args[0])
		}
		return id, nil
	}

	stashes, err := e.StashList(ctx, editorID)
	if err != nil {
		return 0, err
	}
	if id, ok := newestStash(stashes); ok {
		return id, nil
	}
	return 0, fmt.Errorf("no stashes")
}

// newestStash picks the first regular stash of a newest-first list
func newestStash(stashes []*models.Stash) (int64, bool) {
	for _, s := range stashes {
		if !s.IsAutosave() {
			return s.ID, true
		}
	}
	return 0, false
}

func runStashPush(cmd *cobra.Command, args []string) {
	bgCtx := context.Background()
	c := initContext()
	defer c.Close()

	stash, err := c.Engine.StashPush(bgCtx, c.requireEditor(), stashName)
	if err != nil {
		exitError("%v", err)
	}
	green := color.New(color.FgGreen)
	green.Printf("Saved %s\n", stashSummary(stash))
}

func runStashList(cmd *cobra.Command, args []string) {
	bgCtx := context.Background()
	c := initContext()
	defer c.Close()

	stashes, err := c.Engine.StashList(bgCtx, c.requireEditor())
	if err != nil {
		exitError("%v", err)
	}
	if len(stashes) == 0 {
		fmt.Println("No stashes")
		return
	}

	cyan := color.New(color.FgCyan)
	for _, s := range stashes {
		fmt.Printf("%s ", s.Created.Local().Format("2006-01-02 15:04"))
		if s.IsAutosave() {
			cyan.Print("[autosave] ")
		}
		fmt.Println(stashSummary(s))
	}
}

func runStashPop(cmd *cobra.Command, args []string) {
	restoreStash(args, true)
}

func runStashApply(cmd *cobra.Command, args []string) {
	restoreStash(args, false)
}

func restoreStash(args []string, remove bool) {
	bgCtx := context.Background()
	c := initContext()
	defer c.Close()

	editorID := c.requireEditor()
	id, err := resolveStashID(bgCtx, c.Engine, editorID, args)
	if err != nil {
		exitError("%v", err)
	}

	var stash *models.Stash
	if remove {
		stash, err = c.Engine.StashRestore(bgCtx, editorID, id)
	} else {
		stash, err = c.Engine.StashApply(bgCtx, editorID, id)
	}
	if err != nil {
		exitError("%v", err)
	}

	green := color.New(color.FgGreen)
	if remove {
		green.Printf("Restored and dropped %s\n", stashSummary(stash))
	} else {
		green.Printf("Restored %s\n", stashSummary(stash))
	}
}

func runStashDrop(cmd *cobra.Command, args []string) {
	bgCtx := context.Background()
	c := initContext()
	defer c.Close()

	editorID := c.requireEditor()
	id, err := resolveStashID(bgCtx, c.Engine, editorID, args)
	if err != nil {
		exitError("%v", err)
	}
	if err := c.Engine.StashDrop(bgCtx, editorID, id); err != nil {
		exitError("%v", err)
	}
	fmt.Printf("Dropped stash %d\n", id)
}

func runStashShow(cmd *cobra.Command, args []string) {
	bgCtx := context.Background()
	c := initContext()
	defer c.Close()

	editorID := c.requireEditor()
	id, err := resolveStashID(bgCtx, c.Engine, editorID, args)
	if err != nil {
		exitError("%v", err)
	}
	stash, err := c.Engine.StashGet(bgCtx, editorID, id)
	if err != nil {
		exitError("%v", err)
	}

	fmt.Println(stashSummary(stash))
	fmt.Println()
	for _, entry := range stash.Entries {
		writeStagedEntry(cmd.OutOrStdout(), core.DiffEntry(entry), "        ")
	}
}

func runStashAutosave(cmd *cobra.Command, args []string) {
	bgCtx := context.Background()
	c := initContext()
	defer c.Close()

	stash, err := c.Engine.Autosave(bgCtx, c.requireEditor())
	if err != nil {
		exitError("%v", err)
	}
	fmt.Printf("Autosaved %d string(s)\n", stash.Strings)
}
