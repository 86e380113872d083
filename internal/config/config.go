// Package config loads the optional fathom.yaml file. Flags always win
// over file values; the file exists so operators don't have to repeat
// engine coordinates on every run.
package config

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/fathom/pkg/adapters/graph"
)

// DefaultPath is probed when the user does not pass --config.
const DefaultPath = "fathom.yaml"

// Config is the full file schema.
type Config struct {
	Engine EngineConfig `yaml:"engine"`
	Redis  RedisConfig  `yaml:"redis"`
	// MaxRounds bounds clarification restarts per session.
	MaxRounds int          `yaml:"max_clarification_rounds"`
	Budget    BudgetConfig `yaml:"iteration_budget"`
	Serve     ServeConfig  `yaml:"serve"`
}

// EngineConfig locates the external researcher graph.
type EngineConfig struct {
	URL string `yaml:"url"`
	// Options is free-form and engine-specific; it is decoded into
	// graph.Options via mapstructure so unknown keys fail loudly.
	Options map[string]any `yaml:"options"`
}

// RedisConfig enables the Redis checkpoint store when URL is set.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// BudgetConfig bounds the per-invocation iteration budget.
type BudgetConfig struct {
	Default int `yaml:"default"`
	Min     int `yaml:"min"`
	Max     int `yaml:"max"`
}

// ServeConfig configures the web frontend.
type ServeConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Engine:    EngineConfig{URL: "http://localhost:2024"},
		MaxRounds: 5,
		Budget:    BudgetConfig{Default: 50, Min: 10, Max: 100},
		Serve:     ServeConfig{Addr: ":8080"},
	}
}

// Load reads the config file at path, merged over defaults. When explicit
// is false a missing file is fine (the defaults stand); when the user named
// the path themselves, a missing file is an error.
func Load(path string, explicit bool) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.MaxRounds < 1 {
		return fmt.Errorf("max_clarification_rounds must be >= 1, got %d", c.MaxRounds)
	}
	if c.Budget.Min > c.Budget.Max {
		return fmt.Errorf("iteration_budget min %d exceeds max %d", c.Budget.Min, c.Budget.Max)
	}
	if c.Budget.Default < c.Budget.Min || c.Budget.Default > c.Budget.Max {
		return fmt.Errorf("iteration_budget default %d outside [%d, %d]", c.Budget.Default, c.Budget.Min, c.Budget.Max)
	}
	return nil
}

// ClampBudget forces a requested budget into the configured bounds.
func (c Config) ClampBudget(budget int) int {
	if budget < c.Budget.Min {
		return c.Budget.Min
	}
	if budget > c.Budget.Max {
		return c.Budget.Max
	}
	return budget
}

// GraphOptions decodes the free-form engine options block. Unknown keys
// are rejected rather than silently dropped.
func (c EngineConfig) GraphOptions() (graph.Options, error) {
	var opts graph.Options
	if len(c.Options) == 0 {
		return opts, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &opts,
		ErrorUnused: true,
	})
	if err != nil {
		return opts, fmt.Errorf("failed to build options decoder: %w", err)
	}
	if err := decoder.Decode(c.Options); err != nil {
		return opts, fmt.Errorf("invalid engine options: %w", err)
	}
	return opts, nil
}
