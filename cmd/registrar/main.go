// Package main is the entry point for the registrar CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/registrar/internal/cli"
	"github.com/roach88/registrar/internal/ir"
)

// Build information injected via ldflags at build time.
var (
	version = ir.Version
	commit  = "none"
	date    = "unknown"
)

func newRoot() *cobra.Command {
	root := cli.NewRootCommand()
	root.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
	return root
}

func main() {
	if err := newRoot().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "registrar:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
