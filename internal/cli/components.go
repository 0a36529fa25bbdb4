package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var componentsApp bool

var componentsCmd = &cobra.Command{
	Use:   "components [branch]",
	Short: "List the standard components of a branch, or the app components",
	Args: func(cmd *cobra.Command, args []string) error {
		if componentsApp {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	Run: runComponents,
}

func init() {
	componentsCmd.Flags().BoolVar(&componentsApp, "app", false, "List components with strings used by the mobile app")
}

func runComponents(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	if componentsApp {
		names, err := c.Engine.Catalog().AppComponentNames(context.Background())
		if err != nil {
			exitError("%v", err)
		}
		for _, name := range names {
			fmt.Println(name)
		}
		fmt.Printf("%d app component(s)\n", len(names))
		return
	}

	branch, err := strconv.Atoi(args[0])
	if err != nil || branch <= 0 {
		exitError("invalid branch %q", args[0])
	}

	names := c.Engine.Catalog().StandardComponentNames(branch)
	for _, name := range names {
		fmt.Println(name)
	}
	fmt.Printf("%d standard component(s) on branch %d\n", len(names), branch)
}
