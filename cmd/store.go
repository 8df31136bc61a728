package cmd

import (
	"path/filepath"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/agentic-research/mache-xml/internal/pagestore"
)

// storePath is the shared --store flag registered by the subcommands that
// open the page store through openStore (serve-mcp takes its store path as
// an argument instead); it names a SQLite file, passed to Store.Open as a
// base name under an osfs rooted at the file's own directory.
var storePath string

func addStoreFlag(c *cobra.Command) {
	c.Flags().StringVar(&storePath, "store", "mache-xml.db", "path to the page store's SQLite file")
}

func openStore() (*pagestore.Store, error) {
	dir := filepath.Dir(storePath)
	fs := osfs.New(dir)
	return pagestore.Open(fs, filepath.Base(storePath))
}
