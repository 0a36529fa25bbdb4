package cli

import (
	"fmt"

	"github.com/kilupskalvis/langvc/internal/config"
	"github.com/kilupskalvis/langvc/internal/store"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new langvc repository",
	Long: `Initialize a new langvc repository in the current directory.
This creates a .langvc directory holding the configuration and the string database.`,
	Run: runInit,
}

var (
	initEditor int64
	initAuthor string
)

func init() {
	initCmd.Flags().Int64Var(&initEditor, "editor-id", 0, "Editor id recorded on commits and owning staged strings")
	initCmd.Flags().StringVar(&initAuthor, "author", "", "Author info recorded on commits, e.g. \"Name <email>\"")
}

func runInit(cmd *cobra.Command, args []string) {
	// Check if already initialized
	if _, err := config.FindRoot(); err == nil {
		exitError("langvc repository already exists")
	}

	fmt.Printf("Initializing langvc repository...\n")

	cfg, err := config.Initialize(initEditor, initAuthor)
	if err != nil {
		exitError("failed to initialize config: %v", err)
	}

	st, err := store.New(cfg.DatabasePath())
	if err != nil {
		exitError("failed to create store: %v", err)
	}
	defer st.Close()

	if err := st.Initialize(); err != nil {
		exitError("failed to initialize store: %v", err)
	}

	fmt.Printf("\nInitialized empty langvc repository in %s/\n", config.LangVCDir)
	if initEditor <= 0 {
		fmt.Printf("\nSet editor_id in %s/%s before staging strings.\n", config.LangVCDir, config.ConfigFile)
	}
}
