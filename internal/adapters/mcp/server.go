// Package mcp exposes the research loop as Model Context Protocol tools so
// agent hosts can drive Fathom the way a human drives the web UI: start a
// query, answer clarification questions, fetch the report.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/fathom/pkg/domain"
	"github.com/aretw0/fathom/pkg/driver"
	"github.com/aretw0/fathom/pkg/ports"
)

// ResearchResponse is the structured result shared by all research tools.
type ResearchResponse struct {
	SessionID string       `json:"session_id" jsonschema_description:"Handle for follow-up tool calls"`
	Phase     domain.Phase `json:"phase" jsonschema_description:"Session phase after this step"`
	Question  string       `json:"question,omitempty" jsonschema_description:"Clarification question, when phase is awaiting_clarification"`
	Report    string       `json:"report,omitempty" jsonschema_description:"Final markdown report, when phase is done"`
	Messages  int          `json:"messages" jsonschema_description:"Transcript length so far"`
	Round     int          `json:"round" jsonschema_description:"Completed clarification rounds"`
}

// Server wraps the driver and exposes it as an MCP Server.
type Server struct {
	drv       *driver.Driver
	budget    int
	version   string
	mcpServer *server.MCPServer

	mu       sync.Mutex
	sessions map[string]*domain.Session
}

// NewServer creates an MCP server around a compiled workflow.
func NewServer(workflow ports.Workflow, maxRounds, defaultBudget int, version string, logger *slog.Logger) *Server {
	s := &Server{
		drv: driver.New(workflow,
			driver.WithMaxRounds(maxRounds),
			driver.WithThreadPolicy(driver.FreshThreadPerRound),
			driver.WithLogger(logger),
		),
		budget:    defaultBudget,
		version:   version,
		sessions:  make(map[string]*domain.Session),
		mcpServer: server.NewMCPServer("fathom-mcp", version),
	}
	s.registerTools()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	startTool := mcp.NewTool("start_research",
		mcp.WithDescription("Start a deep research run. May return a clarification question instead of a report; answer it with answer_clarification."),
		mcp.WithString("query", mcp.Required(), mcp.Description("The research question to investigate")),
		mcp.WithString("thread_id", mcp.Description("Workflow thread id (defaults to a fresh id)")),
		mcp.WithNumber("iteration_budget", mcp.Description("Upper bound on engine iterations per invocation")),
		mcp.WithOutputSchema[ResearchResponse](),
	)
	s.mcpServer.AddTool(startTool, mcp.NewStructuredToolHandler(s.handleStart))

	answerTool := mcp.NewTool("answer_clarification",
		mcp.WithDescription("Answer a pending clarification question and restart the research workflow with the augmented conversation."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session handle from start_research")),
		mcp.WithString("answer", mcp.Required(), mcp.Description("The clarification answer; empty falls back to the original query")),
		mcp.WithOutputSchema[ResearchResponse](),
	)
	s.mcpServer.AddTool(answerTool, mcp.NewStructuredToolHandler(s.handleAnswer))

	s.mcpServer.AddTool(mcp.NewTool("fetch_report",
		mcp.WithDescription("Fetch the final markdown report of a completed research session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session handle from start_research")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessionID, _ := request.GetArguments()["session_id"].(string)
		session, err := s.lookup(sessionID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if session.Report == "" {
			return mcp.NewToolResultError("no report available for this session"), nil
		}
		return mcp.NewToolResultText(session.Report), nil
	})
}

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ResearchResponse, error) {
	query, _ := args["query"].(string)
	if query == "" {
		return ResearchResponse{}, fmt.Errorf("query is required")
	}

	threadID, _ := args["thread_id"].(string)
	if threadID == "" {
		threadID = uuid.NewString()
	}
	budget := s.budget
	if b, ok := args["iteration_budget"].(float64); ok && b > 0 {
		budget = int(b)
	}

	session := domain.NewSession(query, threadID, budget)
	sessionID := uuid.NewString()
	s.mu.Lock()
	s.sessions[sessionID] = session
	s.mu.Unlock()

	return s.advance(ctx, sessionID, session, "")
}

func (s *Server) handleAnswer(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ResearchResponse, error) {
	sessionID, _ := args["session_id"].(string)
	answer, _ := args["answer"].(string)

	session, err := s.lookup(sessionID)
	if err != nil {
		return ResearchResponse{}, err
	}
	if session.Phase != domain.PhaseAwaitingClarification {
		return ResearchResponse{}, fmt.Errorf("session %s is not awaiting clarification", sessionID)
	}

	return s.advance(ctx, sessionID, session, answer)
}

func (s *Server) advance(ctx context.Context, sessionID string, session *domain.Session, answer string) (ResearchResponse, error) {
	event, err := s.drv.Advance(ctx, session, answer)
	if err != nil {
		return ResearchResponse{}, fmt.Errorf("research failed: %w", err)
	}

	resp := ResearchResponse{
		SessionID: sessionID,
		Phase:     session.Phase,
		Messages:  len(event.History),
		Round:     event.Round,
	}
	switch event.Kind {
	case driver.EventReportReady:
		resp.Report = event.Report
	case driver.EventClarificationNeeded:
		resp.Question = event.Question
	}
	return resp, nil
}

func (s *Server) lookup(sessionID string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}
