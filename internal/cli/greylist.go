package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kilupskalvis/langvc/internal/models"
	"github.com/spf13/cobra"
)

var greylistCmd = &cobra.Command{
	Use:   "greylist [<branch> <component> <stringid>]",
	Short: "Show or change the greylist",
	Long: `Greylisted strings are not worth translating on a branch.

Examples:
  langvc greylist                          List greylisted strings
  langvc greylist 3900 core oldstring      Greylist a string
  langvc greylist --remove 3900 core oldstring`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 3 {
			return fmt.Errorf("expected no arguments or <branch> <component> <stringid>")
		}
		return nil
	},
	Run: runGreylist,
}

var greylistRemove bool

func init() {
	greylistCmd.Flags().BoolVar(&greylistRemove, "remove", false, "Remove the string from the greylist")
}

func runGreylist(cmd *cobra.Command, args []string) {
	bgCtx := context.Background()
	c := initContext()
	defer c.Close()

	if len(args) == 0 {
		keys, err := c.Engine.GreylistedKeys(bgCtx)
		if err != nil {
			exitError("%v", err)
		}
		for _, k := range keys {
			fmt.Printf("%d/%s/%s\n", k.Branch, k.Component, k.StringID)
		}
		fmt.Printf("%d greylisted string(s)\n", len(keys))
		return
	}

	branch, err := strconv.Atoi(args[0])
	if err != nil {
		exitError("invalid branch %q", args[0])
	}
	key := models.Key{Branch: branch, Component: args[1], StringID: args[2]}

	if greylistRemove {
		err = c.Engine.Ungreylist(bgCtx, key)
	} else {
		err = c.Engine.Greylist(bgCtx, key)
	}
	if err != nil {
		exitError("%v", err)
	}
}
