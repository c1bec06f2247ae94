package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/docpilot/internal/adapters/driving/api"
	"github.com/custodia-labs/docpilot/internal/adapters/driving/mcp"
	"github.com/custodia-labs/docpilot/internal/adapters/driving/watch"
	"github.com/custodia-labs/docpilot/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and MCP endpoint",
	Long: `Start the HTTP API:

  POST /ask      {"question": "..."} -> {"answer": "..."}
  GET  /health
  GET  /stats
  /mcp           streamable MCP endpoint

The vector store directory is watched, so an index rebuilt by another
docpilot process is picked up without a restart.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", ":8000", "listen address")
	serveCmd.Flags().Bool("no-watch", false, "do not reload when the index changes on disk")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	answers, err := answerService()
	if err != nil {
		return err
	}

	addr, _ := cmd.Flags().GetString("addr")
	noWatch, _ := cmd.Flags().GetBool("no-watch")

	mcpServer, err := mcp.NewServer(mcpPorts())
	if err != nil {
		return fmt.Errorf("creating MCP server: %w", err)
	}
	server := api.NewServer(answers, api.WithMCP(mcpServer.Handler()))

	g, ctx := errgroup.WithContext(cmd.Context())

	g.Go(func() error {
		return server.Run(ctx, addr)
	})

	if !noWatch && services.VectorStoreDir != "" {
		watcher := watch.New(services.VectorStoreDir, answers)
		g.Go(func() error {
			if err := watcher.Run(ctx); err != nil {
				// The API keeps serving the loaded index without hot reload.
				logger.Warn("index watcher stopped: %v", err)
			}
			return nil
		})
	}

	cmd.Printf("Listening on %s\n", addr)
	return g.Wait()
}

func mcpPorts() *mcp.Ports {
	ports := &mcp.Ports{}
	if services == nil {
		return ports
	}
	ports.Answer = services.Answer
	ports.Documents = services.Documents
	ports.Maintenance = services.Maintenance
	return ports
}
