package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/rewind/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can browse
the timeline and read frame text.

Tools:
  timeline_jump    - jump to a time and list the frames around it
  timeline_window  - list the frames around the current position
  frame_text       - read the text recognised on a frame

By default, the server communicates over stdio using JSON-RPC.
Use --port to start an HTTP server instead.

Examples:
  # Stdio mode (default, for desktop assistants)
  rewind mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  rewind mcp serve --port 8080

Assistant configuration:
  {
    "mcpServers": {
      "rewind": {
        "command": "/path/to/rewind",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func newMCPServer() (*mcp.Server, error) {
	return mcp.NewServer(&mcp.Ports{Timeline: timelineService})
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	server, err := newMCPServer()
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
