package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/kilupskalvis/langvc/internal/models"
	"github.com/spf13/cobra"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show commit history",
	Long: `Display commits, newest first, optionally filtered by author, message,
time range or the strings they touch.

Examples:
  langvc log --component core_admin
  langvc log --author jana --since 2024-01-01
  langvc log --branch 3900 --lang cs --oneline`,
	Args: cobra.NoArgs,
	Run:  runLog,
}

var (
	logOneline    bool
	logLimit      int
	logAuthorID   int64
	logAuthorInfo string
	logMessage    string
	logHash       string
	logSource     string
	logSince      string
	logUntil      string
	logBranches   []int
	logLangs      []string
	logComponents []string
	logStringID   string
)

func init() {
	logCmd.Flags().BoolVar(&logOneline, "oneline", false, "Show each commit on a single line")
	logCmd.Flags().IntVarP(&logLimit, "n", "n", 0, "Limit the number of commits to show")
	logCmd.Flags().Int64Var(&logAuthorID, "author-id", 0, "Commits by this author id")
	logCmd.Flags().StringVar(&logAuthorInfo, "author", "", "Commits whose author info contains this text")
	logCmd.Flags().StringVar(&logMessage, "grep", "", "Commits whose message contains this text")
	logCmd.Flags().StringVar(&logHash, "hash", "", "Commits whose external hash starts with this prefix")
	logCmd.Flags().StringVar(&logSource, "source", "", "Commits from this source")
	logCmd.Flags().StringVar(&logSince, "since", "", "Commits at or after this time (YYYY-MM-DD or YYYY-MM-DD HH:MM)")
	logCmd.Flags().StringVar(&logUntil, "until", "", "Commits before this time (YYYY-MM-DD or YYYY-MM-DD HH:MM)")
	logCmd.Flags().IntSliceVar(&logBranches, "branch", nil, "Commits touching these branches")
	logCmd.Flags().StringSliceVar(&logLangs, "lang", nil, "Commits touching these languages")
	logCmd.Flags().StringSliceVar(&logComponents, "component", nil, "Commits touching these components")
	logCmd.Flags().StringVar(&logStringID, "stringid", "", "Commits touching this string id")
}

// parseTime accepts a date or a date with hours and minutes, in local time
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q, expected YYYY-MM-DD or YYYY-MM-DD HH:MM", s)
}

func buildLogFilter() (models.LogFilter, error) {
	after, err := parseTime(logSince)
	if err != nil {
		return models.LogFilter{}, err
	}
	before, err := parseTime(logUntil)
	if err != nil {
		return models.LogFilter{}, err
	}
	return models.LogFilter{
		AuthorID:        logAuthorID,
		AuthorInfo:      logAuthorInfo,
		Message:         logMessage,
		Hash:            logHash,
		Source:          logSource,
		CommittedAfter:  after,
		CommittedBefore: before,
		Branches:        logBranches,
		Langs:           logLangs,
		Components:      logComponents,
		StringID:        logStringID,
		Limit:           logLimit,
	}, nil
}

func runLog(cmd *cobra.Command, args []string) {
	bgCtx := context.Background()
	c := initContext()
	defer c.Close()

	filter, err := buildLogFilter()
	if err != nil {
		exitError("%v", err)
	}

	result, err := c.Engine.QueryLog(bgCtx, filter)
	if err != nil {
		exitError("failed to get commit log: %v", err)
	}

	if len(result.Commits) == 0 {
		fmt.Println("No commits found")
		return
	}

	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	for _, commit := range result.Commits {
		if logOneline {
			yellow.Printf("%d ", commit.ID)
			cyan.Printf("[%s] ", commit.Source)
			fmt.Printf("%s (%d strings)\n", commit.Message, len(commit.Revisions))
			continue
		}

		yellow.Printf("commit %d", commit.ID)
		if commit.Hash != "" {
			cyan.Printf(" (%s %s)", commit.Source, commit.ShortHash())
		} else {
			cyan.Printf(" (%s)", commit.Source)
		}
		fmt.Println()
		if commit.AuthorInfo != "" {
			fmt.Printf("Author: %s\n", commit.AuthorInfo)
		}
		fmt.Printf("Date:   %s\n", commit.Committed.Local().Format("Mon Jan 2 15:04:05 2006"))
		fmt.Printf("\n    %s\n\n", commit.Message)
		for _, rev := range commit.Revisions {
			if rev.Deleted {
				deleteColor.Printf("    - %s\n", rev.Key)
			} else {
				fmt.Printf("    %s\n", rev.Key)
			}
		}
		fmt.Println()
	}

	if result.AboveLimit() {
		yellow.Printf("Showing %d of %d matching commits (%d strings)\n", len(result.Commits), result.NumCommits, result.NumStrings)
	} else {
		fmt.Printf("%d commit(s), %d string(s)\n", result.NumCommits, result.NumStrings)
	}
}
