package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/agentic-research/mache-xml/internal/docfs"
	"github.com/agentic-research/mache-xml/internal/document"
)

func init() {
	addStoreFlag(mountCmd)
	rootCmd.AddCommand(mountCmd)
}

var mountCmd = &cobra.Command{
	Use:   "mount <doc-id> <mountpoint>",
	Short: "Project a document read-only at mountpoint over a loopback NFS server",
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

		srv, err := docfs.Serve(docfs.New(doc))
		if err != nil {
			return err
		}
		defer srv.Close()

		if err := docfs.Mount(srv.Port(), mountpoint); err != nil {
			return err
		}
		fmt.Fprintf(c.OutOrStdout(), "document %q mounted read-only at %s (port %d); press ctrl-C to unmount\n", docID, mountpoint, srv.Port())

		ctx, stop := signal.NotifyContext(c.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()

		return docfs.Unmount(mountpoint)
	},
}
