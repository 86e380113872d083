package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/aretw0/fathom"
	"github.com/aretw0/fathom/internal/cli"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <query> [thread_id] [iteration_budget]",
	Short: "Run a research query interactively",
	Long: `Runs the research engine against a query, answering its clarification
questions from the terminal and rendering the final report.

Examples:
  fathom run "Compare Gemini to OpenAI Deep Research agents."
  fathom run "What are the latest developments in AI?" research_1 100`,
	Args: cobra.RangeArgs(1, 3),
	Run: func(cmd *cobra.Command, args []string) {
		query := args[0]

		threadID := "1"
		if len(args) > 1 {
			threadID = args[1]
		}

		budget := 0
		if len(args) > 2 {
			parsed, err := strconv.Atoi(args[2])
			if err != nil {
				fmt.Printf("Error: iteration_budget must be an integer, got %q\n", args[2])
				os.Exit(1)
			}
			budget = parsed
		}

		maxRounds, _ := cmd.Flags().GetInt("max-rounds")
		plain, _ := cmd.Flags().GetBool("plain")
		fresh, _ := cmd.Flags().GetBool("fresh-threads")
		debug, _ := cmd.Flags().GetBool("debug")
		configPath, _ := cmd.Flags().GetString("config")
		engineURL, _ := cmd.Flags().GetString("engine-url")
		redisURL, _ := cmd.Flags().GetString("redis-url")

		cli.Version = fathom.Version
		err := cli.Execute(cli.RunOptions{
			Query:           query,
			ThreadID:        threadID,
			IterationBudget: budget,
			EngineURL:       engineURL,
			RedisURL:        redisURL,
			MaxRounds:       maxRounds,
			Debug:           debug,
			Plain:           plain,
			ConfigPath:      configPath,
			ConfigExplicit:  cmd.Flags().Changed("config"),
			FreshThreads:    fresh,
		})

		if errors.Is(err, cli.ErrInterrupted) {
			fmt.Println("\nResearch interrupted by user.")
			os.Exit(1)
		}
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Int("max-rounds", 0, "Maximum clarification rounds before giving up (default from config)")
	runCmd.Flags().Bool("plain", false, "Disable the banner and markdown rendering")
	runCmd.Flags().Bool("fresh-threads", false, "Mint a fresh thread id per clarification restart instead of reusing one")
}
