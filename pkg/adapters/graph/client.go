// Package graph is the driven adapter for the external deep-researcher
// graph. The graph itself runs out of process (it performs retrieval,
// reasoning, and report synthesis internally); this package reaches it over
// a single JSON endpoint and snapshots the returned transcript into the
// checkpoint store keyed by thread id.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/fathom/internal/logging"
	"github.com/aretw0/fathom/pkg/domain"
	"github.com/aretw0/fathom/pkg/ports"
)

const defaultTimeout = 15 * time.Minute

// Options carries the free-form engine settings from the config file.
// It uses "mapstructure" tags so the loosely typed `engine.options` block
// can be decoded without hand-written switches.
type Options struct {
	// TimeoutSeconds caps one invocation end to end. Research runs are
	// network-bound and slow; zero means the 15 minute default.
	TimeoutSeconds int `mapstructure:"timeout_seconds"`

	// AuthToken, when set, is sent as a bearer token.
	AuthToken string `mapstructure:"auth_token"`
}

// Builder compiles Workflows against a checkpoint store. It mirrors the
// engine's own compile step: one Builder per engine endpoint, one compiled
// workflow per store.
type Builder struct {
	baseURL string
	client  *http.Client
	token   string
	logger  *slog.Logger
}

// BuilderOption configures the Builder.
type BuilderOption func(*Builder)

// WithHTTPClient replaces the underlying HTTP client (tests).
func WithHTTPClient(c *http.Client) BuilderOption {
	return func(b *Builder) {
		if c != nil {
			b.client = c
		}
	}
}

// WithOptions applies config-file engine options.
func WithOptions(opts Options) BuilderOption {
	return func(b *Builder) {
		if opts.TimeoutSeconds > 0 {
			b.client.Timeout = time.Duration(opts.TimeoutSeconds) * time.Second
		}
		b.token = opts.AuthToken
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) BuilderOption {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBuilder creates a Builder for the engine at baseURL.
func NewBuilder(baseURL string, opts ...BuilderOption) *Builder {
	b := &Builder{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: defaultTimeout},
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Compile binds the engine endpoint to a checkpoint store and returns the
// invokable workflow.
func (b *Builder) Compile(store ports.CheckpointStore) (ports.Workflow, error) {
	if b.baseURL == "" {
		return nil, fmt.Errorf("engine URL is required")
	}
	return &workflow{builder: b, store: store}, nil
}

type workflow struct {
	builder *Builder
	store   ports.CheckpointStore
}

type invokeRequest struct {
	Messages       domain.History `json:"messages"`
	ThreadID       string         `json:"thread_id"`
	RecursionLimit int            `json:"recursion_limit"`
}

// Invoke runs the remote graph from its start state over the given
// transcript. Errors are opaque to callers and never retried here.
func (w *workflow) Invoke(ctx context.Context, history domain.History, cfg ports.InvokeConfig) (*domain.RunResult, error) {
	payload, err := json.Marshal(invokeRequest{
		Messages:       history,
		ThreadID:       cfg.ThreadID,
		RecursionLimit: cfg.IterationBudget,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode invoke request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.builder.baseURL+"/invoke", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build invoke request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if w.builder.token != "" {
		req.Header.Set("Authorization", "Bearer "+w.builder.token)
	}

	resp, err := w.builder.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("engine request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Error bodies are short prose; cap the read regardless.
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("engine returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result domain.RunResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode engine response: %w", err)
	}

	// Snapshot the transcript for thread inspection. Checkpoint failures
	// must not discard a successful run.
	if w.store != nil {
		if err := w.store.Save(ctx, cfg.ThreadID, result.Messages); err != nil {
			w.builder.logger.Warn("failed to checkpoint thread transcript", "thread_id", cfg.ThreadID, "err", err)
		}
	}

	return &result, nil
}
