package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/polydev/polyd/cmd/polydev/commands"
	"github.com/polydev/polyd/internal/proc"
)

// Build-time variables injected via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		// Preserve the child's exit code so CI sees the real failure
		var exitErr *proc.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
