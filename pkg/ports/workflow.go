// Package ports defines the driven-side interfaces of Fathom's hexagonal
// architecture: the external research workflow and the checkpoint store
// that backs it.
package ports

import (
	"context"

	"github.com/aretw0/fathom/pkg/domain"
)

// InvokeConfig carries the per-invocation knobs of the external engine.
type InvokeConfig struct {
	// ThreadID keys the engine's own checkpointed state between
	// invocations. Reusing an id across unrelated sessions risks state
	// bleed and must be avoided by construction.
	ThreadID string

	// IterationBudget bounds the engine's internal step count for one
	// invocation. The engine may fail the run when it is exceeded.
	IterationBudget int
}

// Workflow is the black-box research engine. One invocation runs the graph
// from its start state over the given transcript until the engine either
// produces a report, asks for input, or gives up.
//
// Invoke is potentially long-running (network-bound) and must honor ctx.
// Any internal failure, including an exceeded iteration budget, surfaces
// as an opaque error; callers never retry.
type Workflow interface {
	Invoke(ctx context.Context, history domain.History, cfg InvokeConfig) (*domain.RunResult, error)
}

// Builder compiles a Workflow against a checkpoint store, mirroring the
// engine's own compile step. A fresh store means a fresh slate for every
// thread id.
type Builder interface {
	Compile(store CheckpointStore) (Workflow, error)
}

// CheckpointStore persists the latest transcript per thread id for the
// lifetime of one store instance. Implementations must tolerate concurrent
// use across threads; per-thread access is already serialized by the
// driver.
type CheckpointStore interface {
	Save(ctx context.Context, threadID string, history domain.History) error
	// Load returns domain.ErrThreadNotFound for unknown ids.
	Load(ctx context.Context, threadID string) (domain.History, error)
	Delete(ctx context.Context, threadID string) error
	List(ctx context.Context) ([]string, error)
}
