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

var (
	contribSubject  string
	contribMessage  string
	contribMine     bool
	contribAssigned bool
	contribLang     string
	contribStates   []string
)

var contribCmd = &cobra.Command{
	Use:   "contrib",
	Short: "Submit stashes for review and review contributions",
	Long: `Contributions are stashes submitted for review. A reviewer starts a
review, stages the contributed strings with 'contrib apply', commits them
and accepts or rejects the contribution.

Examples:
  langvc contrib submit 12 -s "Forum wording"   Submit stash 12
  langvc contrib list --state new               List new contributions
  langvc contrib review 3                       Start reviewing contribution 3
  langvc contrib apply 3                        Stage its strings
  langvc contrib accept 3                       Accept it`,
}

var contribSubmitCmd = &cobra.Command{
	Use:   "submit <stash-id> -s <subject>",
	Short: "Submit one of your stashes as a contribution",
	Args:  cobra.ExactArgs(1),
	Run:   runContribSubmit,
}

var contribListCmd = &cobra.Command{
	Use:   "list",
	Short: "List contributions",
	Args:  cobra.NoArgs,
	Run:   runContribList,
}

var contribShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show the strings of a contribution",
	Args:  cobra.ExactArgs(1),
	Run:   runContribShow,
}

var contribApplyCmd = &cobra.Command{
	Use:   "apply <id>",
	Short: "Stage the strings of a contribution",
	Args:  cobra.ExactArgs(1),
	Run:   runContribApply,
}

// contribMoveCommands maps state change subcommands to their target state
var contribMoveCommands = []struct {
	use   string
	short string
	to    models.ContributionState
}{
	{"review", "Start reviewing a contribution and assign it to yourself", models.ContributionReview},
	{"accept", "Accept a contribution you review", models.ContributionAccepted},
	{"reject", "Reject a contribution you review", models.ContributionRejected},
	{"resign", "Stop reviewing a contribution and put it back as new", models.ContributionNew},
}

func init() {
	contribSubmitCmd.Flags().StringVarP(&contribSubject, "subject", "s", "", "Contribution subject")
	contribSubmitCmd.Flags().StringVarP(&contribMessage, "message", "m", "", "Message for reviewers")
	contribSubmitCmd.MarkFlagRequired("subject")

	contribListCmd.Flags().BoolVar(&contribMine, "mine", false, "Only contributions you submitted")
	contribListCmd.Flags().BoolVar(&contribAssigned, "assigned", false, "Only contributions assigned to you")
	contribListCmd.Flags().StringVar(&contribLang, "lang", "", "Only contributions in this language")
	contribListCmd.Flags().StringSliceVar(&contribStates, "state", nil, "Only contributions in these states (new, review, rejected, accepted)")

	contribCmd.AddCommand(contribSubmitCmd)
	contribCmd.AddCommand(contribListCmd)
	contribCmd.AddCommand(contribShowCmd)
	contribCmd.AddCommand(contribApplyCmd)
	for _, mc := range contribMoveCommands {
		to := mc.to
		contribCmd.AddCommand(&cobra.Command{
			Use:   mc.use + " <id>",
			Short: mc.short,
			Args:  cobra.ExactArgs(1),
			Run: func(cmd *cobra.Command, args []string) {
				runContribMove(args, to)
			},
		})
	}

	rootCmd.AddCommand(contribCmd)
}

func parseID(kind, arg string) int64 {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		exitError("invalid %s id %q", kind, arg)
	}
	return id
}

// buildContribFilter turns the list flags into a filter
func buildContribFilter(editorID int64, mine, assigned bool, lang string, states []string) (models.ContributionFilter, error) {
	f := models.ContributionFilter{Lang: lang}
	if mine {
		f.AuthorID = editorID
	}
	if assigned {
		f.AssigneeID = editorID
	}
	for _, name := range states {
		state, err := models.ParseContributionState(name)
		if err != nil {
			return f, err
		}
		f.States = append(f.States, state)
	}
	return f, nil
}

func runContribSubmit(cmd *cobra.Command, args []string) {
	bgCtx := context.Background()
	c := initContext()
	defer c.Close()

	stashID := parseID("stash", args[0])
	contrib, err := c.Engine.Contribute(bgCtx, c.requireEditor(), stashID, contribSubject, contribMessage)
	if err != nil {
		exitError("%v", err)
	}
	green := color.New(color.FgGreen)
	green.Printf("Submitted %s\n", contribSummary(contrib))
}

func runContribList(cmd *cobra.Command, args []string) {
	bgCtx := context.Background()
	c := initContext()
	defer c.Close()

	editorID := c.EditorID
	if contribMine || contribAssigned {
		editorID = c.requireEditor()
	}
	filter, err := buildContribFilter(editorID, contribMine, contribAssigned, contribLang, contribStates)
	if err != nil {
		exitError("%v", err)
	}

	list, err := c.Engine.Contributions(bgCtx, filter)
	if err != nil {
		exitError("%v", err)
	}
	if len(list) == 0 {
		fmt.Println("No contributions")
		return
	}
	for _, contrib := range list {
		fmt.Printf("%s %s\n", contrib.Modified.Local().Format("2006-01-02 15:04"), contribSummary(contrib))
	}
}

func runContribShow(cmd *cobra.Command, args []string) {
	bgCtx := context.Background()
	c := initContext()
	defer c.Close()

	id := parseID("contribution", args[0])
	contrib, err := c.Engine.Contribution(bgCtx, id)
	if err != nil {
		exitError("%v", err)
	}
	entries, err := c.Engine.ContributionEntries(bgCtx, id)
	if err != nil {
		exitError("%v", err)
	}

	fmt.Println(contribSummary(contrib))
	if contrib.Message != "" {
		fmt.Printf("\n    %s\n", contrib.Message)
	}
	fmt.Println()
	for _, entry := range entries {
		writeStagedEntry(cmd.OutOrStdout(), core.DiffEntry(entry), "        ")
	}
}

func runContribApply(cmd *cobra.Command, args []string) {
	bgCtx := context.Background()
	c := initContext()
	defer c.Close()

	contrib, err := c.Engine.ApplyContribution(bgCtx, c.requireEditor(), parseID("contribution", args[0]))
	if err != nil {
		exitError("%v", err)
	}
	green := color.New(color.FgGreen)
	green.Printf("Staged %d string(s) from contribution %d\n", contrib.Strings, contrib.ID)
	fmt.Println("Run 'langvc rebase' if other editors changed them since submission.")
}

func runContribMove(args []string, to models.ContributionState) {
	bgCtx := context.Background()
	c := initContext()
	defer c.Close()

	contrib, err := c.Engine.SetContributionState(bgCtx, c.requireEditor(), parseID("contribution", args[0]), to)
	if err != nil {
		exitError("%v", err)
	}
	fmt.Println(contribSummary(contrib))
}
