package domain

// Phase is the lifecycle state of a research session.
type Phase string

const (
	// PhaseRunning: an invocation may be started over the current history.
	PhaseRunning Phase = "running"
	// PhaseAwaitingClarification: the engine asked a question and the
	// session is blocked on a human answer.
	PhaseAwaitingClarification Phase = "awaiting_clarification"
	// PhaseDone: a report was produced, or the run ended without one and
	// the partial transcript stands as the outcome.
	PhaseDone Phase = "done"
	// PhaseAborted: the clarification round limit was reached.
	PhaseAborted Phase = "aborted"
)

// Session is the resumable state of one research conversation. It is a
// plain value owned by whichever frontend drives it; the driver mutates it
// in place on every step.
type Session struct {
	// Query is the original research question, kept verbatim as the
	// fallback answer when a clarification prompt comes back empty.
	Query string `json:"query"`

	// ThreadID keys the engine's checkpointed state. Under a fresh-thread
	// restart policy the driver rewrites it between rounds.
	ThreadID string `json:"thread_id"`

	// IterationBudget bounds the engine's internal steps per invocation.
	IterationBudget int `json:"iteration_budget"`

	// Round counts clarification answers given so far.
	Round int `json:"round"`

	Phase   Phase   `json:"phase"`
	History History `json:"history"`

	// Question is the pending clarification prompt, set only while
	// awaiting an answer.
	Question string `json:"question,omitempty"`

	// Report is the final report markdown, set only once done.
	Report string `json:"report,omitempty"`
}

// NewSession starts a session in PhaseRunning with the query as the sole
// transcript turn.
func NewSession(query, threadID string, iterationBudget int) *Session {
	return &Session{
		Query:           query,
		ThreadID:        threadID,
		IterationBudget: iterationBudget,
		Phase:           PhaseRunning,
		History:         NewHistory(query),
	}
}

// Terminal reports whether no further driver steps are possible.
func (s *Session) Terminal() bool {
	return s.Phase == PhaseDone || s.Phase == PhaseAborted
}
