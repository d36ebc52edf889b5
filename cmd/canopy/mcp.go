package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/canopyhq/canopy/internal/logging"
	"github.com/canopyhq/canopy/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the flow library as an MCP Server.
This allows AI agents (like Claude Desktop) to build, validate and run flows as tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Run: func(cmd *cobra.Command, args []string) {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")
		runnerName, _ := cmd.Flags().GetString("runner")

		logger := logging.New(slog.LevelInfo)

		store, locks, err := buildStore(cmd, logger)
		if err != nil {
			log.Fatalf("Error configuring store: %v", err)
		}

		r, err := runners.Get(runnerName)
		if err != nil {
			log.Fatalf("Error: %v", err)
		}

		opts := []mcp.Option{mcp.WithLogger(logger)}
		if locks != nil {
			opts = append(opts, mcp.WithRunLocks(locks))
		}
		srv := mcp.NewServer(store, r, opts...)

		switch transport {
		case "stdio":
			// Logs must not corrupt JSON-RPC on Stdout.
			log.SetOutput(os.Stderr)
			logger.Info("starting Canopy MCP server (stdio)")
			if err := srv.ServeStdio(); err != nil {
				logger.Error("MCP server execution failed", "err", err)
				os.Exit(1)
			}
		case "sse":
			logger.Info("starting Canopy MCP server (SSE)", "port", port)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ServeSSE(ctx, port); err != nil {
				if err != http.ErrServerClosed {
					logger.Error("MCP server execution failed", "err", err)
					os.Exit(1)
				}
			}
			logger.Info("MCP server stopped gracefully")
		default:
			log.Fatalf("Unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8081, "Port to listen on (only for SSE)")
	mcpCmd.Flags().String("runner", "dry-run", "Execution backend for run requests")
	mcpCmd.Flags().String("store", "memory", "Persistence backend: memory, file or redis")
	mcpCmd.Flags().String("flows-dir", ".canopy/flows", "Directory for the file store")
	mcpCmd.Flags().String("redis-addr", "localhost:6379", "Redis address for the redis store")
	mcpCmd.Flags().String("encryption-key", "", "Hex encoded AES-256 key; enables at-rest flow encryption")
}
