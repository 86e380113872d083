// Package driver implements the resumable research loop shared by every
// frontend: invoke the external workflow, classify the outcome, and either
// finish, wait for a human clarification answer, or bail out after the
// round limit.
//
// The driver exposes a synchronous step API (Advance) instead of an
// internal loop so that a blocking CLI, a request-driven web handler, and
// an MCP tool can all drive the same state machine without duplicating it.
// All mutable state lives on the domain.Session passed into each step; the
// driver itself is safe for concurrent use across sessions.
package driver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/fathom/internal/logging"
	"github.com/aretw0/fathom/pkg/classify"
	"github.com/aretw0/fathom/pkg/domain"
	"github.com/aretw0/fathom/pkg/ports"
)

// DefaultMaxRounds bounds clarification restarts to prevent infinite
// question loops.
const DefaultMaxRounds = 5

// ThreadPolicy decides what happens to the thread id when the workflow is
// restarted after a clarification answer.
type ThreadPolicy int

const (
	// ReuseThread keeps the same thread id across restarts, continuing the
	// engine's checkpointed state. This is the CLI behavior.
	ReuseThread ThreadPolicy = iota

	// FreshThreadPerRound mints a new thread id per restart so the replayed
	// history cannot interfere with the engine's checkpoint for the old id.
	// This is the web behavior.
	FreshThreadPerRound
)

// EventKind tags the outcome of one driver step.
type EventKind int

const (
	// EventReportReady: research completed; Event.Report holds the report.
	EventReportReady EventKind = iota
	// EventClarificationNeeded: the engine asked a question; the session is
	// blocked until the next Advance carries an answer.
	EventClarificationNeeded
	// EventIncomplete: the engine stopped without a report or a question.
	// Degraded completion: the partial transcript is all there is.
	EventIncomplete
	// EventRoundLimit: the clarification round limit was reached; no
	// further invocation was made.
	EventRoundLimit
)

// Event is what a frontend receives after each step. History is always the
// full transcript as of the step, ready for display.
type Event struct {
	Kind     EventKind
	Question string
	Report   string
	History  domain.History
	Round    int
}

// InvokeObserver receives the classified outcome and wall time of every
// workflow invocation. Used for metrics; never called on invocation error.
type InvokeObserver func(outcome classify.Outcome, elapsed time.Duration)

// Driver runs the clarification-resumption state machine against one
// workflow.
type Driver struct {
	workflow  ports.Workflow
	detect    classify.QuestionDetector
	maxRounds int
	policy    ThreadPolicy
	logger    *slog.Logger
	observe   InvokeObserver
	now       func() time.Time
}

// New creates a Driver with CLI-flavored defaults: thread reuse, the
// default question heuristic, and a round limit of DefaultMaxRounds.
func New(workflow ports.Workflow, opts ...Option) *Driver {
	d := &Driver{
		workflow:  workflow,
		detect:    classify.DefaultQuestionDetector,
		maxRounds: DefaultMaxRounds,
		policy:    ReuseThread,
		logger:    logging.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Advance performs one step of the session state machine.
//
// In PhaseRunning, answer is ignored and the workflow is invoked over the
// current history. In PhaseAwaitingClarification, answer is spliced into
// the returned history (an empty answer falls back to the original query),
// the round counter advances, and, unless the round limit was just
// reached, the workflow restarts from its start state over the augmented
// transcript.
//
// A workflow failure is returned as an error, never retried; the session
// keeps its phase so the frontend decides what to do with the wreckage.
func (d *Driver) Advance(ctx context.Context, s *domain.Session, answer string) (Event, error) {
	switch s.Phase {
	case domain.PhaseRunning:
		return d.invoke(ctx, s)

	case domain.PhaseAwaitingClarification:
		if strings.TrimSpace(answer) == "" {
			d.logger.Warn("empty clarification answer, continuing with original query", "thread_id", s.ThreadID)
			answer = s.Query
		}
		s.History = s.History.Append(domain.Message{Role: domain.RoleUser, Content: answer})
		s.Round++
		s.Question = ""

		if d.policy == FreshThreadPerRound {
			s.ThreadID = d.mintRestartThreadID(s.ThreadID)
		}

		if s.Round >= d.maxRounds {
			s.Phase = domain.PhaseAborted
			d.logger.Warn("maximum clarification rounds reached", "rounds", s.Round)
			return Event{Kind: EventRoundLimit, History: s.History, Round: s.Round}, nil
		}

		s.Phase = domain.PhaseRunning
		d.logger.Info("restarting workflow with clarification",
			"round", s.Round, "thread_id", s.ThreadID, "messages", len(s.History))
		return d.invoke(ctx, s)

	default:
		return Event{}, fmt.Errorf("cannot advance session in terminal phase %q", s.Phase)
	}
}

func (d *Driver) invoke(ctx context.Context, s *domain.Session) (Event, error) {
	cfg := ports.InvokeConfig{
		ThreadID:        s.ThreadID,
		IterationBudget: s.IterationBudget,
	}

	d.logger.Info("invoking workflow", "thread_id", s.ThreadID, "messages", len(s.History))
	start := d.now()
	result, err := d.workflow.Invoke(ctx, s.History.Clone(), cfg)
	if err != nil {
		return Event{}, fmt.Errorf("workflow invocation failed: %w", err)
	}
	elapsed := time.Since(start)

	// Adopt the returned transcript wholesale; the engine appends its own
	// turns during a run.
	s.History = result.Messages

	verdict := classify.Classify(result, d.detect)
	if d.observe != nil {
		d.observe(verdict.Outcome, elapsed)
	}
	d.logger.Info("workflow completed",
		"outcome", verdict.Outcome.String(), "messages", len(result.Messages), "elapsed", elapsed)

	switch verdict.Outcome {
	case classify.Complete:
		s.Phase = domain.PhaseDone
		s.Report = result.FinalReport
		return Event{Kind: EventReportReady, Report: s.Report, History: s.History, Round: s.Round}, nil

	case classify.NeedsClarification:
		s.Phase = domain.PhaseAwaitingClarification
		s.Question = verdict.Question
		return Event{Kind: EventClarificationNeeded, Question: s.Question, History: s.History, Round: s.Round}, nil

	default:
		s.Phase = domain.PhaseDone
		return Event{Kind: EventIncomplete, History: s.History, Round: s.Round}, nil
	}
}

// mintRestartThreadID derives a fresh thread id from the session's base id
// so the restarted run gets a clean checkpoint slate. Restarts of restarts
// re-derive from the original base rather than stacking suffixes.
func (d *Driver) mintRestartThreadID(current string) string {
	base, _, _ := strings.Cut(current, "_clarified_")
	return fmt.Sprintf("%s_clarified_%d", base, d.now().Unix())
}
