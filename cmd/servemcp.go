package cmd

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/agentic-research/mache-xml/internal/document"
	"github.com/agentic-research/mache-xml/internal/gidtree"
	"github.com/agentic-research/mache-xml/internal/pagestore"
)

func init() {
	rootCmd.AddCommand(serveMCPCmd)
}

var serveMCPCmd = &cobra.Command{
	Use:   "serve-mcp <store-path>",
	Short: "Expose get_node, get_path and list_documents as MCP tools over stdio",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		store, err := pagestore.OpenDSN(args[0])
		if err != nil {
			return err
		}
		defer store.Close()

		s := server.NewMCPServer("mache-xml", "0.1.0")

		s.AddTool(mcp.NewTool("list_documents",
			mcp.WithDescription("List every document id present in the page store"),
		), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			ids, err := store.ListDocuments()
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return mcp.NewToolResultText(fmt.Sprintf("%v", ids)), nil
		})

		s.AddTool(mcp.NewTool("get_node",
			mcp.WithDescription("Fetch a single node by document id and global identifier"),
			mcp.WithString("doc_id", mcp.Required(), mcp.Description("document id")),
			mcp.WithNumber("gid", mcp.Required(), mcp.Description("global identifier")),
		), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			docID, err := req.RequireString("doc_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			gid, err := req.RequireFloat("gid")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			doc, err := document.Open(store, docID, nil)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			n, err := doc.GetNode(gidtree.GID(uint64(gid)))
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			defer doc.ReleaseNode(n)
			return mcp.NewToolResultText(fmt.Sprintf("type=%s name=%q value=%q", n.Type, n.LocalName(), n.NodeValue())), nil
		})

		s.AddTool(mcp.NewTool("get_path",
			mcp.WithDescription("Return the ancestor path, by local name, of a node"),
			mcp.WithString("doc_id", mcp.Required(), mcp.Description("document id")),
			mcp.WithNumber("gid", mcp.Required(), mcp.Description("global identifier")),
		), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			docID, err := req.RequireString("doc_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			gid, err := req.RequireFloat("gid")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			doc, err := document.Open(store, docID, nil)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			n, err := doc.GetNode(gidtree.GID(uint64(gid)))
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			defer doc.ReleaseNode(n)
			p, err := n.GetPath()
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return mcp.NewToolResultText(p), nil
		})

		return server.ServeStdio(s)
	},
}
