// Command mache-xml is the demonstration CLI front end over the core:
// ingest an XML file, inspect nodes by GID, configure CSV triggers, and
// project a document read-only through NFS, FUSE, or MCP.
package main

import "github.com/agentic-research/mache-xml/cmd"

func main() {
	cmd.Execute()
}
