package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/marmos91/realmctl/cmd/realmctl/cmdutil"
	"github.com/marmos91/realmctl/cmd/realmctl/commands"

	// Register Prometheus metrics implementations
	_ "github.com/marmos91/realmctl/pkg/metrics/prometheus"
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

	err := commands.Execute()
	if err == nil {
		return
	}

	// Workflow outcomes carry their own status and were already reported
	var exit *cmdutil.ExitError
	if errors.As(err, &exit) {
		if exit.Err != nil && !exit.Reported {
			fmt.Fprintf(os.Stderr, "realmctl: %v\n", exit.Err)
		}
		os.Exit(exit.Code)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
