package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/promptlens/internal/adapters/driving/mcp"
	"github.com/custodia-labs/promptlens/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

The server exposes these tools:
  classify_content - detect the kind and language of text
  resolve_prompt   - splice pasted attachments back into a prompt
  format_text      - reformat text as Markdown (falls back to the original)
  list_history     - list recently captured prompts

By default, the server communicates over stdio using JSON-RPC.

Use --port to start an HTTP server instead, and --metrics-port to expose
Prometheus metrics for tool calls and reformat requests.

Examples:
  # Stdio mode (default)
  promptlens mcp serve

  # HTTP mode with metrics
  promptlens mcp serve --port 8080 --metrics-port 9090

MCP client configuration:
  {
    "mcpServers": {
      "promptlens": {
        "command": "/path/to/promptlens",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().Int("metrics-port", 0, "Prometheus metrics port (0 = disabled)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	metricsPort, err := cmd.Flags().GetInt("metrics-port")
	if err != nil {
		return fmt.Errorf("getting metrics-port flag: %w", err)
	}

	ports := &mcp.Ports{
		Content:    contentService,
		Prompt:     promptService,
		Format:     formatService,
		Transcript: transcriptService,
		Observer:   toolObserver,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if metricsPort > 0 {
		if metricsHandler == nil {
			return errors.New("metrics not configured")
		}
		addr := fmt.Sprintf(":%d", metricsPort)
		go serveMetrics(ctx, addr, metricsHandler)
		cmd.PrintErrf("Metrics available on http://localhost%s/metrics\n", addr)
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		cmd.PrintErrf("MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(ctx, addr)
	}

	return server.Run(ctx)
}

// serveMetrics serves handler on addr until ctx is done.
func serveMetrics(ctx context.Context, addr string, handler http.Handler) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background()) //nolint:errcheck
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Warn("metrics server stopped: %v", err)
	}
}
