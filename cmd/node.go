package cmd

import (
	"fmt"
	"strconv"

	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"

	"github.com/agentic-research/mache-xml/internal/document"
	"github.com/agentic-research/mache-xml/internal/gidtree"
)

var nodeJSON bool

func init() {
	nodeCmd.Flags().BoolVar(&nodeJSON, "json", false, "render the node as JSON instead of a plain summary")
	addStoreFlag(nodeCmd)
	rootCmd.AddCommand(nodeCmd)
}

var nodeCmd = &cobra.Command{
	Use:   "node <doc-id> <gid>",
	Short: "Fetch and print a single node by its global identifier",
	Args:  cobra.ExactArgs(2),
	RunE: func(c *cobra.Command, args []string) error {
		docID := args[0]
		gid, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("node: invalid gid %q: %w", args[1], err)
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

		if nodeJSON {
			out := map[string]any{
				"gid":   gid,
				"type":  n.Type.String(),
				"name":  n.LocalName(),
				"value": n.NodeValue(),
			}
			fmt.Fprintln(c.OutOrStdout(), oj.JSON(out))
			return nil
		}

		fmt.Fprintf(c.OutOrStdout(), "gid=%d type=%s name=%q value=%q\n", gid, n.Type, n.LocalName(), n.NodeValue())
		return nil
	},
}
