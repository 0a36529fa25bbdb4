package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/kilupskalvis/langvc/internal/models"
	"github.com/spf13/cobra"
)

var stringsCmd = &cobra.Command{
	Use:   "strings",
	Short: "List current strings",
	Long: `List the current value of strings matching the filters.

With --translate the English originals are listed next to their
translations in the requested languages.

Examples:
  langvc strings --branch 3900 --lang cs --component core
  langvc strings --lang cs --missing --translate
  langvc strings --helps --search "password"`,
	Args: cobra.NoArgs,
	Run:  runStrings,
}

var (
	stringsBranches   []int
	stringsLangs      []string
	stringsComponents []string
	stringsStringID   string
	stringsSearch     string
	stringsMissing    bool
	stringsGreylisted bool
	stringsNoGrey     bool
	stringsHelps      bool
	stringsDeleted    bool
	stringsLimit      int
	stringsOffset     int
	stringsTranslate  bool
	stringsPage       int
)

func init() {
	stringsCmd.Flags().IntSliceVar(&stringsBranches, "branch", nil, "Branch codes")
	stringsCmd.Flags().StringSliceVar(&stringsLangs, "lang", nil, "Language codes")
	stringsCmd.Flags().StringSliceVar(&stringsComponents, "component", nil, "Component names")
	stringsCmd.Flags().StringVar(&stringsStringID, "stringid", "", "String id")
	stringsCmd.Flags().StringVar(&stringsSearch, "search", "", "Text contains (case-insensitive)")
	stringsCmd.Flags().BoolVar(&stringsMissing, "missing", false, "Only missing or outdated translations")
	stringsCmd.Flags().BoolVar(&stringsGreylisted, "greylisted", false, "Only greylisted strings")
	stringsCmd.Flags().BoolVar(&stringsNoGrey, "no-greylisted", false, "Exclude greylisted strings")
	stringsCmd.Flags().BoolVar(&stringsHelps, "helps", false, "Only help strings (ids ending in _help or _link)")
	stringsCmd.Flags().BoolVar(&stringsDeleted, "deleted", false, "Include removed strings")
	stringsCmd.Flags().IntVarP(&stringsLimit, "n", "n", 0, "Limit the number of strings to show")
	stringsCmd.Flags().IntVar(&stringsOffset, "offset", 0, "Skip this many strings")
	stringsCmd.Flags().BoolVar(&stringsTranslate, "translate", false, "Show English originals next to translations")
	stringsCmd.Flags().IntVar(&stringsPage, "page", 1, "Page of the translator view")
}

func buildStringFilter() models.StringFilter {
	return models.StringFilter{
		Branches:          stringsBranches,
		Langs:             stringsLangs,
		Components:        stringsComponents,
		StringID:          stringsStringID,
		Substring:         stringsSearch,
		MissingOrOutdated: stringsMissing,
		GreylistedOnly:    stringsGreylisted,
		WithoutGreylisted: stringsNoGrey,
		HelpsOnly:         stringsHelps,
		IncludeDeleted:    stringsDeleted,
		Limit:             stringsLimit,
		Offset:            stringsOffset,
	}
}

func runStrings(cmd *cobra.Command, args []string) {
	bgCtx := context.Background()
	c := initContext()
	defer c.Close()

	filter := buildStringFilter()
	if stringsTranslate {
		runTranslate(bgCtx, c, filter)
		return
	}

	result, err := c.Engine.Strings(bgCtx, filter)
	if err != nil {
		exitError("%v", err)
	}
	if len(result.Revisions) == 0 {
		fmt.Println("No strings found")
		return
	}

	cyan := color.New(color.FgCyan)
	for _, rev := range result.Revisions {
		cyan.Printf("%s", rev.Key)
		if rev.Deleted {
			deleteColor.Println(" (removed)")
			continue
		}
		fmt.Printf("\n    %s\n", models.TextValue(rev.Text))
	}
	fmt.Printf("\n%d of %d string(s)\n", len(result.Revisions), result.Total)
}

func runTranslate(ctx context.Context, c *cmdContext, filter models.StringFilter) {
	page, err := c.Engine.Translate(ctx, models.TranslatorFilter{
		StringFilter: filter,
		Page:         stringsPage,
	})
	if err != nil {
		exitError("%v", err)
	}
	if page.Found == 0 {
		fmt.Println("No strings found")
		return
	}

	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)
	magenta := color.New(color.FgMagenta)

	for _, row := range page.Rows {
		cyan.Printf("%s", row.Key)
		if row.Greylisted {
			magenta.Print(" [greylisted]")
		}
		if row.AppID != "" {
			magenta.Printf(" [app %s]", row.AppID)
		}
		if row.WorkplaceID != "" {
			magenta.Printf(" [workplace %s]", row.WorkplaceID)
		}
		fmt.Printf("\n    en: %s\n", models.TextValue(row.Original.Text))
		switch {
		case row.Missing():
			red.Printf("    %s: (missing)\n", row.Key.Lang)
		case row.Outdated:
			yellow.Printf("    %s: %s (outdated)\n", row.Key.Lang, models.TextValue(row.Translation.Value()))
		default:
			fmt.Printf("    %s: %s\n", row.Key.Lang, models.TextValue(row.Translation.Value()))
		}
	}
	fmt.Printf("\nPage %d of %d, %d string(s) found, %d missing\n", page.Page, page.Pages, page.Found, page.Missing)
}
