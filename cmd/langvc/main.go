// Command langvc is the command-line client for the translation string repository.
package main

import (
	"os"

	"github.com/kilupskalvis/langvc/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
