package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/kilupskalvis/langvc/internal/models"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add <branch>/<lang>/<component>/<stringid> <text> | <branch> <lang> <component> <stringid> <text>",
	Short: "Stage a new value for a string",
	Long: `Propose a new value for a string in your staging area.

The live value of the string is recorded as the baseline. Staging the same
string again replaces the proposed value and keeps the original baseline.

Examples:
  langvc add 3900/cs/core/savechanges "Uložit změny"
  langvc add 3900 cs core savechanges "Uložit změny"
  langvc add --delete 3900/cs/core/oldstring`,
	Args: cobra.RangeArgs(1, 5),
	Run:  runAdd,
}

var addDelete bool

func init() {
	addCmd.Flags().BoolVar(&addDelete, "delete", false, "Stage removal of the string")
}

// splitAddArgs separates the key arguments from the proposed text
func splitAddArgs(args []string, remove bool) (models.Key, *string, error) {
	if remove {
		key, err := keyArgs(args)
		return key, nil, err
	}
	if len(args) != 2 && len(args) != 5 {
		return models.Key{}, nil, fmt.Errorf("expected a key and a text")
	}
	key, err := keyArgs(args[:len(args)-1])
	if err != nil {
		return models.Key{}, nil, err
	}
	text := args[len(args)-1]
	if strings.TrimSpace(text) == "" {
		return models.Key{}, nil, fmt.Errorf("empty text; use --delete to remove a string")
	}
	return key, &text, nil
}

func runAdd(cmd *cobra.Command, args []string) {
	bgCtx := context.Background()
	c := initContext()
	defer c.Close()

	key, text, err := splitAddArgs(args, addDelete)
	if err != nil {
		exitError("%v", err)
	}

	entry, err := c.Engine.Stage(bgCtx, c.requireEditor(), key, text)
	if err != nil {
		exitError("failed to stage %s: %v", key, err)
	}

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	switch entry.Status {
	case models.StatusCommittable:
		green.Printf("Staged %s\n", key)
	case models.StatusNoop:
		yellow.Printf("Staged %s (same as the current value)\n", key)
	default:
		yellow.Printf("Staged %s (%s)\n", key, entry.Status)
	}
}
