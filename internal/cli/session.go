package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/fathom/internal/config"
	"github.com/aretw0/fathom/internal/presentation/tui"
	"github.com/aretw0/fathom/pkg/domain"
	"github.com/aretw0/fathom/pkg/driver"
	"github.com/aretw0/fathom/pkg/ports"
)

// ErrInterrupted is returned when the user aborts the loop with a signal.
var ErrInterrupted = errors.New("research interrupted by user")

// Version is stamped by cmd at startup for the banner.
var Version = "dev"

// RunResearch owns the blocking CLI interaction loop: invoke, print new
// turns, prompt for clarification answers, render the final report.
func RunResearch(workflow ports.Workflow, cfg config.Config, opts RunOptions, logger *slog.Logger) error {
	if !opts.Plain {
		tui.PrintBanner(Version)
	}

	policy := driver.ReuseThread
	if opts.FreshThreads {
		policy = driver.FreshThreadPerRound
	}

	drv := driver.New(workflow,
		driver.WithMaxRounds(cfg.MaxRounds),
		driver.WithThreadPolicy(policy),
		driver.WithLogger(logger),
	)

	session := domain.NewSession(opts.Query, opts.ThreadID, cfg.ClampBudget(opts.IterationBudget))

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	printSystemMessage("Research query: %s", opts.Query)
	fmt.Println(strings.Repeat("-", 80))

	renderMarkdown := markdownRenderer(opts.Plain)
	reader := bufio.NewReader(os.Stdin)
	rendered := 0
	answer := ""

	for {
		event, err := drv.Advance(sigCtx, session, answer)
		if err != nil {
			if sigCtx.Err() != nil {
				return ErrInterrupted
			}
			return err
		}

		rendered = printNewTurns(event.History, rendered)

		switch event.Kind {
		case driver.EventReportReady:
			fmt.Println("\n" + strings.Repeat("=", 80))
			printSystemMessage("Final research report")
			fmt.Println(strings.Repeat("=", 80) + "\n")
			out, rerr := renderMarkdown(event.Report)
			if rerr != nil {
				out = event.Report
			}
			fmt.Println(out)
			return nil

		case driver.EventClarificationNeeded:
			fmt.Println("\n" + strings.Repeat("-", 80))
			printSystemMessage("Clarification needed")
			fmt.Println(strings.Repeat("-", 80))
			fmt.Println("\nPlease provide your response to continue research:")

			answer, err = promptAnswer(sigCtx, reader)
			if err != nil {
				return err
			}
			// The answered turn is spliced by the driver; it will come back
			// in the next event's history, so rendering just continues.

		case driver.EventIncomplete:
			printSystemMessage("Research ended without a final report. Showing results so far.")
			return nil

		case driver.EventRoundLimit:
			printSystemMessage("Maximum clarification rounds reached. Showing current results.")
			return nil
		}
	}
}

// promptAnswer blocks on one line of input. A signal during the read aborts
// the loop; the in-flight read is abandoned, not cancelled.
func promptAnswer(ctx context.Context, reader *bufio.Reader) (string, error) {
	fmt.Print("\nYour response: ")
	line, err := reader.ReadString('\n')
	if ctx.Err() != nil {
		return "", ErrInterrupted
	}
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// printNewTurns renders transcript turns not yet shown and returns the new
// watermark. Positional tracking is enough here: within one CLI run the
// transcript only grows.
func printNewTurns(history domain.History, rendered int) int {
	for i, msg := range history.All() {
		if i < rendered {
			continue
		}
		fmt.Printf("\n[%s]\n%s\n", strings.ToUpper(string(msg.Role)), strings.TrimSpace(msg.Content))
	}
	if len(history) > rendered {
		return len(history)
	}
	return rendered
}

func markdownRenderer(plain bool) func(string) (string, error) {
	if plain {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return tui.NewRenderer()
}
