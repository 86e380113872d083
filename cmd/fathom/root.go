package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/fathom/internal/config"
	"github.com/aretw0/fathom/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "fathom",
	Short: "Fathom drives a deep-research agent from your terminal or browser",
	Long: `Fathom is a front end for a multi-agent deep research engine.
Give it a question; it relays the engine's clarification questions back to
you, restarts the research with your answers, and renders the final report.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", config.DefaultPath, "Path to the fathom.yaml config file")
	rootCmd.PersistentFlags().String("engine-url", "", "Base URL of the research engine (overrides config)")
	rootCmd.PersistentFlags().String("redis-url", "", "Redis URL for the checkpoint store (overrides config)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// loadConfig resolves the config file honoring persistent flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path, cmd.Flags().Changed("config"))
	if err != nil {
		return cfg, err
	}
	if url, _ := cmd.Flags().GetString("engine-url"); url != "" {
		cfg.Engine.URL = url
	}
	if url, _ := cmd.Flags().GetString("redis-url"); url != "" {
		cfg.Redis.URL = url
	}
	return cfg, nil
}

func commandLogger(cmd *cobra.Command) *slog.Logger {
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		return logging.New(slog.LevelDebug)
	}
	return logging.New(slog.LevelInfo)
}
