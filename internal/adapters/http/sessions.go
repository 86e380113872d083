package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/aretw0/fathom/internal/config"
	"github.com/aretw0/fathom/internal/metrics"
	"github.com/aretw0/fathom/pkg/adapters/memory"
	"github.com/aretw0/fathom/pkg/domain"
	"github.com/aretw0/fathom/pkg/driver"
	"github.com/aretw0/fathom/pkg/ports"
)

// UIPhase is the session lifecycle as the browser sees it. It is a
// superset of the driver phases: a web session exists before any query and
// survives errors.
type UIPhase string

const (
	UIIdle     UIPhase = "idle"
	UIAwaiting UIPhase = "awaiting_clarification"
	UIDone     UIPhase = "done"
	UIAborted  UIPhase = "aborted"
	UIError    UIPhase = "error"
)

// Session is one browser user's state. Display is the chat transcript shown
// as bubbles; it accumulates across queries, while each query gets its own
// driver run underneath. Held in memory only; browser sessions do not
// survive a server restart.
type Session struct {
	ID       string           `json:"id"`
	ThreadID string           `json:"thread_id"`
	Budget   int              `json:"iteration_budget"`
	Phase    UIPhase          `json:"phase"`
	Display  []domain.Message `json:"messages"`
	Question string           `json:"question,omitempty"`
	Report   string           `json:"report,omitempty"`
	Error    string           `json:"error,omitempty"`
	Round    int              `json:"round"`

	mu      sync.Mutex      // serializes driver steps for this session
	stateMu sync.RWMutex    // guards the exported fields against readers
	run     *domain.Session // current driver run, nil while idle
	drv     *driver.Driver
}

// View returns a consistent copy of the UI-visible state. Handlers encode
// the view, never the live session, since a driver step may be mutating it
// concurrently.
func (s *Session) View() Session {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	view := Session{
		ID:       s.ID,
		ThreadID: s.ThreadID,
		Budget:   s.Budget,
		Phase:    s.Phase,
		Question: s.Question,
		Report:   s.Report,
		Error:    s.Error,
		Round:    s.Round,
	}
	view.Display = append(view.Display, s.Display...)
	return view
}

// Manager owns all web sessions. Each session compiles its own workflow
// against a private in-memory checkpoint store so concurrent users cannot
// bleed state into each other; reset recreates both.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	builder ports.Builder
	cfg     config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewManager creates a session manager backed by the given workflow
// builder.
func NewManager(builder ports.Builder, cfg config.Config, logger *slog.Logger, m *metrics.Metrics) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		builder:  builder,
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
	}
}

// Create registers a new session. threadID defaults to "1" (the UI sidebar
// default); budget is clamped into the configured bounds.
func (m *Manager) Create(threadID string, budget int) (*Session, error) {
	if threadID == "" {
		threadID = "1"
	}
	if budget == 0 {
		budget = m.cfg.Budget.Default
	}
	budget = m.cfg.ClampBudget(budget)

	s := &Session{
		ID:       uuid.NewString(),
		ThreadID: threadID,
		Budget:   budget,
		Phase:    UIIdle,
	}
	if err := m.rebuild(s); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.Sessions.Inc()
	}
	m.logger.Info("session created", "session_id", s.ID, "thread_id", threadID, "budget", budget)
	return s, nil
}

// Get looks up a session by id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

// Reset discards all interaction state and recreates the checkpoint store
// and workflow, exactly like starting over. Thread id and budget survive;
// they are sidebar configuration, not interaction state.
func (m *Manager) Reset(id string) (*Session, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stateMu.Lock()
	s.Display = nil
	s.Phase = UIIdle
	s.Question = ""
	s.Report = ""
	s.Error = ""
	s.Round = 0
	s.stateMu.Unlock()
	s.run = nil
	if err := m.rebuild(s); err != nil {
		return nil, err
	}
	m.logger.Info("session reset", "session_id", s.ID)
	return s, nil
}

// rebuild compiles a fresh workflow against a fresh in-memory checkpoint
// store for this session.
func (m *Manager) rebuild(s *Session) error {
	workflow, err := m.builder.Compile(memory.NewSaver())
	if err != nil {
		return fmt.Errorf("failed to compile workflow: %w", err)
	}

	opts := []driver.Option{
		driver.WithMaxRounds(m.cfg.MaxRounds),
		// The web adapter mints a fresh thread id per clarification restart
		// so the replayed history cannot collide with the engine's
		// checkpoint for the old id.
		driver.WithThreadPolicy(driver.FreshThreadPerRound),
		driver.WithLogger(m.logger),
	}
	if m.metrics != nil {
		opts = append(opts, driver.WithObserver(m.metrics.ObserveInvocation))
	}
	s.drv = driver.New(workflow, opts...)
	return nil
}

// StartQuery begins a new research run inside the session and performs the
// first driver step. Blocks for the duration of the workflow invocation.
func (m *Manager) StartQuery(ctx context.Context, s *Session, query string) error {
	if !s.mu.TryLock() {
		return domain.ErrSessionBusy
	}
	defer s.mu.Unlock()

	if s.Phase == UIAwaiting {
		return errors.New("a clarification answer is pending; answer or cancel first")
	}

	s.stateMu.Lock()
	s.Display = append(s.Display, domain.Message{Role: domain.RoleUser, Content: query})
	s.Error = ""
	s.Report = ""
	s.stateMu.Unlock()
	s.run = domain.NewSession(query, s.ThreadID, s.Budget)

	return m.step(ctx, s, "")
}

// Clarify resumes an awaiting session with the human answer.
func (m *Manager) Clarify(ctx context.Context, s *Session, answer string) error {
	if !s.mu.TryLock() {
		return domain.ErrSessionBusy
	}
	defer s.mu.Unlock()

	if s.Phase != UIAwaiting || s.run == nil {
		return errors.New("session is not awaiting clarification")
	}

	if answer != "" {
		s.stateMu.Lock()
		s.Display = append(s.Display, domain.Message{Role: domain.RoleUser, Content: answer})
		s.stateMu.Unlock()
	}
	if m.metrics != nil {
		m.metrics.Rounds.Inc()
	}
	return m.step(ctx, s, answer)
}

// Cancel abandons a pending clarification. The transcript so far stays
// visible; any in-flight engine work for the old thread is left to finish
// on its own.
func (m *Manager) Cancel(s *Session) error {
	if !s.mu.TryLock() {
		return domain.ErrSessionBusy
	}
	defer s.mu.Unlock()

	if s.Phase != UIAwaiting {
		return errors.New("session is not awaiting clarification")
	}
	s.stateMu.Lock()
	s.Phase = UIDone
	s.Question = ""
	s.stateMu.Unlock()
	s.run = nil
	return nil
}

// step runs one driver advance and folds the outcome into the UI state.
// Workflow failures are captured as an inline error, never swallowed.
func (m *Manager) step(ctx context.Context, s *Session, answer string) error {
	event, err := s.drv.Advance(ctx, s.run, answer)

	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	if err != nil {
		s.Phase = UIError
		s.Error = err.Error()
		s.Question = ""
		// Mirror the error into the transcript so it is visible inline.
		s.Display = append(s.Display, domain.Message{
			Role:    domain.RoleAssistant,
			Content: fmt.Sprintf("I encountered an error: %v. Please check the engine credentials and quota, then start a new query.", err),
		})
		return nil
	}

	s.Round = event.Round
	s.mergeAssistantTurns(event.History)

	switch event.Kind {
	case driver.EventReportReady:
		s.Phase = UIDone
		s.Report = event.Report
		s.Question = ""
	case driver.EventClarificationNeeded:
		s.Phase = UIAwaiting
		s.Question = event.Question
	case driver.EventRoundLimit:
		s.Phase = UIAborted
		s.Question = ""
	default: // EventIncomplete
		s.Phase = UIDone
		s.Question = ""
	}
	return nil
}

// mergeAssistantTurns appends assistant turns from the driver history that
// the chat does not already show. Content-equality is the dedup key; the
// transcript is at most a few dozen turns, so the quadratic scan is fine.
func (s *Session) mergeAssistantTurns(history domain.History) {
	shown := domain.History(s.Display)
	for _, msg := range history.All() {
		if msg.Role != domain.RoleAssistant {
			continue
		}
		if shown.ContainsContent(msg.Content) {
			continue
		}
		s.Display = append(s.Display, msg)
		shown = domain.History(s.Display)
	}
}
