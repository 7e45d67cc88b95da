package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/rewind/internal/adapters/driving/httpapi"
)

var (
	serveAddr  string
	serveNoMCP bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the timeline over a local HTTP API",
	Long: `Serve the timeline over HTTP for other local tools.

Endpoints:
  GET    /health
  GET    /timeline?limit=N
  POST   /timeline/jump      {"timestamp": "..."}
  POST   /timeline/step      {"delta": N}
  GET    /frames/{id}/image
  GET    /frames/{id}/text
  DELETE /frames/{id}
  POST   /mcp                streamable MCP transport (unless --no-mcp)`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:7420", "listen address")
	serveCmd.Flags().BoolVar(&serveNoMCP, "no-mcp", false, "do not mount the MCP transport at /mcp")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := requireTimeline(); err != nil {
		return err
	}

	cfg := httpapi.Config{
		Addr:     serveAddr,
		Timeline: timelineService,
	}
	if !serveNoMCP {
		mcpServer, err := newMCPServer()
		if err != nil {
			return err
		}
		cfg.MCP = mcpServer.Handler()
	}

	server, err := httpapi.NewServer(cfg)
	if err != nil {
		return err
	}

	stop := startScheduler(cmd.Context())
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s\n", server.Addr())
	return server.Run(cmd.Context())
}
