package cli

import (
	"fmt"

	"github.com/aretw0/fathom/internal/adapters/redis"
	"github.com/aretw0/fathom/internal/config"
	"github.com/aretw0/fathom/pkg/adapters/graph"
	"github.com/aretw0/fathom/pkg/adapters/memory"
	"github.com/aretw0/fathom/pkg/ports"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	Query           string
	ThreadID        string
	IterationBudget int
	EngineURL       string
	RedisURL        string
	MaxRounds       int
	Debug           bool
	Plain           bool
	ConfigPath      string
	ConfigExplicit  bool
	FreshThreads    bool
}

// Execute resolves configuration and runs a single research session.
func Execute(opts RunOptions) error {
	cfg, err := config.Load(opts.ConfigPath, opts.ConfigExplicit)
	if err != nil {
		return err
	}

	// Flags override config.
	if opts.EngineURL != "" {
		cfg.Engine.URL = opts.EngineURL
	}
	if opts.RedisURL != "" {
		cfg.Redis.URL = opts.RedisURL
	}
	if opts.MaxRounds > 0 {
		cfg.MaxRounds = opts.MaxRounds
	}
	if opts.IterationBudget == 0 {
		opts.IterationBudget = cfg.Budget.Default
	}

	logger := createLogger(opts.Debug)

	store, closeStore, err := setupStore(cfg.Redis.URL)
	if err != nil {
		return err
	}
	defer closeStore()

	graphOpts, err := cfg.Engine.GraphOptions()
	if err != nil {
		return err
	}
	builder := graph.NewBuilder(cfg.Engine.URL,
		graph.WithOptions(graphOpts),
		graph.WithLogger(logger),
	)

	workflow, err := builder.Compile(store)
	if err != nil {
		return fmt.Errorf("error compiling workflow: %w", err)
	}

	return RunResearch(workflow, cfg, opts, logger)
}

// setupStore selects the checkpoint backend: Redis when configured,
// otherwise the in-memory saver.
func setupStore(redisURL string) (ports.CheckpointStore, func(), error) {
	if redisURL == "" {
		return memory.NewSaver(), func() {}, nil
	}

	store, err := redis.New(redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("error connecting to redis: %w", err)
	}
	return store, func() { _ = store.Close() }, nil
}
