// Package cli implements the command-line interface for langvc.
package cli

import (
	"fmt"
	"os"

	"github.com/kilupskalvis/langvc/internal/config"
	"github.com/kilupskalvis/langvc/internal/core"
	"github.com/kilupskalvis/langvc/internal/logging"
	"github.com/kilupskalvis/langvc/internal/models"
	"github.com/kilupskalvis/langvc/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cmdContext holds common resources for CLI commands
type cmdContext struct {
	Config   *config.Config
	Store    *store.Store
	Engine   *core.Engine
	Logger   *zap.Logger
	EditorID int64
}

// Close releases resources held by cmdContext
func (c *cmdContext) Close() {
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
	if c.Store != nil {
		c.Store.Close()
	}
}

// initContext loads config, opens the store with migrations applied and
// builds the engine
func initContext() *cmdContext {
	cfg, err := config.Load()
	if err != nil {
		exitError("%v", err)
	}

	level := cfg.LogLevel
	if logLevelFlag != "" {
		level = logLevelFlag
	}
	logger, err := logging.New(level)
	if err != nil {
		exitError("invalid log level %q: %v", level, err)
	}

	engine, st, err := core.Open(cfg, logger)
	if err != nil {
		exitError("failed to open store: %v", err)
	}

	editorID := cfg.EditorID
	if editorFlag > 0 {
		editorID = editorFlag
	}

	return &cmdContext{Config: cfg, Store: st, Engine: engine, Logger: logger, EditorID: editorID}
}

// requireEditor exits unless an editor id is configured
func (c *cmdContext) requireEditor() int64 {
	if c.EditorID <= 0 {
		c.Close()
		exitError("no editor configured (set editor_id in %s or pass --editor)", config.ConfigFile)
	}
	return c.EditorID
}

var rootCmd = &cobra.Command{
	Use:   "langvc",
	Short: "Translation string version control",
	Long: `langvc keeps the full history of translatable strings across branches,
languages and components. Editors stage proposed changes, commit them
atomically, and park unfinished work in stashes.`,
}

var (
	editorFlag   int64
	logLevelFlag string
)

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Int64Var(&editorFlag, "editor", 0, "Act as this editor id instead of the configured one")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Override the configured log level")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(rebaseCmd)
	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(stringsCmd)
	rootCmd.AddCommand(greylistCmd)
	rootCmd.AddCommand(componentsCmd)
}

// exitError prints an error and exits
func exitError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

// keyArgs parses either a single "branch/lang/component/stringid" argument
// or four separate ones
func keyArgs(args []string) (models.Key, error) {
	switch len(args) {
	case 1:
		return models.ParseKey(args[0])
	case 4:
		return models.ParseKey(args[0] + "/" + args[1] + "/" + args[2] + "/" + args[3])
	default:
		return models.Key{}, fmt.Errorf("expected a key as branch/lang/component/stringid")
	}
}
