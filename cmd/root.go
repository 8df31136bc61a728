// Package cmd implements the demonstration command-line front end over the
// core: ingest, inspect, configure triggers, and mount a document read-only
// via NFS or FUSE. None of this is part of the hard core — it is ambient
// tooling layered on top of it.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mache-xml",
	Short: "A hierarchical node-addressing and storage core for a native XML database",
}

// Execute runs the root command, exiting the process with status 1 on
// failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
