package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aretw0/fathom"
	mcpAdapter "github.com/aretw0/fathom/internal/adapters/mcp"
	"github.com/aretw0/fathom/pkg/adapters/graph"
	"github.com/aretw0/fathom/pkg/adapters/memory"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts Fathom as an MCP server so agent hosts can run deep research as
tools: start_research, answer_clarification, fetch_report.

Supported transports:
- stdio (default): Standard Input/Output. Ideal for local process integration.
- sse: Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Run: func(cmd *cobra.Command, args []string) {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		cfg, err := loadConfig(cmd)
		if err != nil {
			log.Fatalf("Error loading config: %v", err)
		}

		// Logs must not corrupt JSON-RPC on stdout.
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		slog.SetDefault(logger)

		graphOpts, err := cfg.Engine.GraphOptions()
		if err != nil {
			log.Fatalf("Error in engine options: %v", err)
		}
		builder := graph.NewBuilder(cfg.Engine.URL,
			graph.WithOptions(graphOpts),
			graph.WithLogger(logger),
		)
		workflow, err := builder.Compile(memory.NewSaver())
		if err != nil {
			log.Fatalf("Error compiling workflow: %v", err)
		}

		srv := mcpAdapter.NewServer(workflow, cfg.MaxRounds, cfg.Budget.Default, fathom.Version, logger)

		switch transport {
		case "stdio":
			log.SetOutput(os.Stderr)
			slog.Info("Starting Fathom MCP Server (Stdio)...")
			if err := srv.ServeStdio(); err != nil {
				slog.Error("MCP Server execution failed", "error", err)
				os.Exit(1)
			}
		case "sse":
			slog.Info("Starting Fathom MCP Server (SSE)", "port", port)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ServeSSE(ctx, port); err != nil {
				if err != http.ErrServerClosed {
					slog.Error("MCP Server execution failed", "error", err)
					os.Exit(1)
				}
			}
			slog.Info("MCP Server stopped gracefully")
		default:
			log.Fatalf("Unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8090, "Port to listen on (only for SSE)")
}
