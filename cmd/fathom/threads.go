package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/fathom/internal/adapters/redis"
)

var threadsCmd = &cobra.Command{
	Use:   "threads",
	Short: "Inspect workflow thread checkpoints",
	Long: `List, inspect, and remove transcript checkpoints stored per thread id.
Requires a Redis checkpoint store (--redis-url or config); the default
in-memory store does not outlive the process that wrote it.`,
}

var threadsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all checkpointed threads",
	Run: func(cmd *cobra.Command, args []string) {
		store := getThreadStore(cmd)
		defer store.Close()

		threads, err := store.List(cmd.Context())
		if err != nil {
			fmt.Printf("Error listing threads: %v\n", err)
			os.Exit(1)
		}

		if len(threads) == 0 {
			fmt.Println("No checkpointed threads found.")
			return
		}

		fmt.Println("Checkpointed threads:")
		for _, id := range threads {
			fmt.Println("- " + id)
		}
	},
}

var threadsInspectCmd = &cobra.Command{
	Use:   "inspect <thread-id>",
	Short: "Print the checkpointed transcript of a thread",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		threadID := args[0]
		store := getThreadStore(cmd)
		defer store.Close()

		history, err := store.Load(cmd.Context(), threadID)
		if err != nil {
			fmt.Printf("Error loading thread '%s': %v\n", threadID, err)
			os.Exit(1)
		}

		data, err := json.MarshalIndent(history, "", "  ")
		if err != nil {
			fmt.Printf("Error marshaling transcript: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
	},
}

var threadsRmCmd = &cobra.Command{
	Use:   "rm <thread-id>...",
	Short: "Remove one or more thread checkpoints",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store := getThreadStore(cmd)
		defer store.Close()
		hasError := false

		for _, threadID := range args {
			if err := store.Delete(cmd.Context(), threadID); err != nil {
				fmt.Printf("Error removing '%s': %v\n", threadID, err)
				hasError = true
			} else {
				fmt.Printf("Removed thread '%s'\n", threadID)
			}
		}

		if hasError {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(threadsCmd)
	threadsCmd.AddCommand(threadsLsCmd)
	threadsCmd.AddCommand(threadsInspectCmd)
	threadsCmd.AddCommand(threadsRmCmd)
}

func getThreadStore(cmd *cobra.Command) *redis.Store {
	cfg, err := loadConfig(cmd)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Redis.URL == "" {
		fmt.Println("Thread inspection requires a Redis checkpoint store (set --redis-url or redis.url in fathom.yaml).")
		os.Exit(1)
	}

	store, err := redis.New(cfg.Redis.URL)
	if err != nil {
		fmt.Printf("Error connecting to redis: %v\n", err)
		os.Exit(1)
	}
	return store
}
