package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/agentic-research/mache-xml/internal/document"
	"github.com/agentic-research/mache-xml/internal/gidtree"
)

func init() {
	addStoreFlag(pathCmd)
	rootCmd.AddCommand(pathCmd)
}

var pathCmd = &cobra.Command{
	Use:   "path <doc-id> <gid>",
	Short: "Print the ancestor path of a node, by local name, from the document root",
	Args:  cobra.ExactArgs(2),
	RunE: func(c *cobra.Command, args []string) error {
		docID := args[0]
		gid, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("path: invalid gid %q: %w", args[1], err)
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		doc, err := document.Open(store, docID, nil)
		if err != nil {
			return err
		}

		n, err := doc.GetNode(gidtree.GID(gid))
		if err != nil {
			return err
		}
		defer doc.ReleaseNode(n)

		p, err := n.GetPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(c.OutOrStdout(), p)
		return nil
	},
}
