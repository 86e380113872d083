package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httpAdapter "github.com/aretw0/fathom/internal/adapters/http"
	"github.com/aretw0/fathom/pkg/adapters/graph"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web frontend",
	Long: `Starts the browser UI and session API. Each browser session gets its own
workflow and in-memory checkpoint store; nothing survives a server restart.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Serve.Addr = addr
		}

		logger := commandLogger(cmd)

		graphOpts, err := cfg.Engine.GraphOptions()
		if err != nil {
			fmt.Printf("Error in engine options: %v\n", err)
			os.Exit(1)
		}
		builder := graph.NewBuilder(cfg.Engine.URL,
			graph.WithOptions(graphOpts),
			graph.WithLogger(logger),
		)

		handler := httpAdapter.NewHandler(builder, cfg, logger)

		srv := &http.Server{
			Addr:    cfg.Serve.Addr,
			Handler: handler,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			fmt.Printf("Starting Fathom server on %s\n", srv.Addr)
			fmt.Printf("Research engine: %s\n", cfg.Engine.URL)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			fmt.Println("Fathom server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (overrides config)")
}
