package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/winfsp/cgofuse/fuse"

	"github.com/agentic-research/mache-xml/internal/docfs"
	"github.com/agentic-research/mache-xml/internal/document"
)

func init() {
	addStoreFlag(browseCmd)
	rootCmd.AddCommand(browseCmd)
}

var browseCmd = &cobra.Command{
	Use:   "browse <doc-id> <mountpoint>",
	Short: "Project a document read-only at mountpoint via a native FUSE mount",
	Args:  cobra.ExactArgs(2),
	RunE: func(c *cobra.Command, args []string) error {
		docID, mountpoint := args[0], args[1]

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		doc, err := document.Open(store, docID, nil)
		if err != nil {
			return err
		}

		host := fuse.NewFileSystemHost(docfs.NewFuse(docfs.New(doc)))
		fmt.Fprintf(c.OutOrStdout(), "document %q mounted read-only at %s\n", docID, mountpoint)
		if !host.Mount(mountpoint, nil) {
			return fmt.Errorf("browse: fuse mount of %s failed", mountpoint)
		}
		return nil
	},
}
