package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpAdapter "github.com/aretw0/fathom/internal/adapters/http"
	"github.com/aretw0/fathom/internal/config"
	"github.com/aretw0/fathom/internal/logging"
	"github.com/aretw0/fathom/pkg/domain"
	"github.com/aretw0/fathom/pkg/ports"
)

// scriptedWorkflow replays canned results so handler tests never touch a
// real engine.
type scriptedWorkflow struct {
	script []scriptStep
	calls  int
}

type scriptStep struct {
	result *domain.RunResult
	err    error
}

func (w *scriptedWorkflow) Invoke(ctx context.Context, history domain.History, cfg ports.InvokeConfig) (*domain.RunResult, error) {
	if w.calls >= len(w.script) {
		return nil, fmt.Errorf("unexpected invocation %d", w.calls+1)
	}
	step := w.script[w.calls]
	w.calls++
	return step.result, step.err
}

type fakeBuilder struct {
	wf       ports.Workflow
	compiles int
}

func (b *fakeBuilder) Compile(store ports.CheckpointStore) (ports.Workflow, error) {
	b.compiles++
	return b.wf, nil
}

// sessionView mirrors the session JSON shape.
type sessionView struct {
	ID       string           `json:"id"`
	ThreadID string           `json:"thread_id"`
	Budget   int              `json:"iteration_budget"`
	Phase    string           `json:"phase"`
	Messages []domain.Message `json:"messages"`
	Question string           `json:"question"`
	Report   string           `json:"report"`
	Error    string           `json:"error"`
	Round    int              `json:"round"`
}

func newTestServer(t *testing.T, wf ports.Workflow) (*httptest.Server, *fakeBuilder) {
	t.Helper()
	builder := &fakeBuilder{wf: wf}
	handler := httpAdapter.NewHandler(builder, config.Default(), logging.NewNop())
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, builder
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func decodeSession(t *testing.T, resp *http.Response) sessionView {
	t.Helper()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view sessionView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	return view
}

func createSession(t *testing.T, srv *httptest.Server, body map[string]any) sessionView {
	t.Helper()
	return decodeSession(t, postJSON(t, srv.URL+"/api/sessions", body))
}

func reportResult(prior domain.History, report string) *domain.RunResult {
	return &domain.RunResult{
		Messages:    prior.Append(domain.Message{Role: domain.RoleAssistant, Content: report}),
		FinalReport: report,
	}
}

func TestCreateSession_Defaults(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedWorkflow{})

	view := createSession(t, srv, map[string]any{})

	assert.NotEmpty(t, view.ID)
	assert.Equal(t, "1", view.ThreadID)
	assert.Equal(t, 50, view.Budget)
	assert.Equal(t, "idle", view.Phase)
	assert.Empty(t, view.Messages)
}

func TestCreateSession_ClampsBudget(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedWorkflow{})

	assert.Equal(t, 100, createSession(t, srv, map[string]any{"iteration_budget": 500}).Budget)
	assert.Equal(t, 10, createSession(t, srv, map[string]any{"iteration_budget": 3}).Budget)
	assert.Equal(t, 42, createSession(t, srv, map[string]any{"iteration_budget": 42}).Budget)
}

func TestCreateSession_KeepsRequestedThreadID(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedWorkflow{})

	view := createSession(t, srv, map[string]any{"thread_id": "research_7"})
	assert.Equal(t, "research_7", view.ThreadID)
}

func TestQuery_ProducesReport(t *testing.T) {
	base := domain.NewHistory("Tell me about AI.")
	srv, _ := newTestServer(t, &scriptedWorkflow{script: []scriptStep{
		{result: reportResult(base, "# AI Report")},
	}})

	session := createSession(t, srv, map[string]any{})
	view := decodeSession(t, postJSON(t, srv.URL+"/api/sessions/"+session.ID+"/query",
		map[string]any{"query": "Tell me about AI."}))

	assert.Equal(t, "done", view.Phase)
	assert.Equal(t, "# AI Report", view.Report)
	require.Len(t, view.Messages, 2)
	assert.Equal(t, domain.RoleUser, view.Messages[0].Role)
	assert.Equal(t, domain.RoleAssistant, view.Messages[1].Role)
}

func TestQuery_EmptyQueryRejected(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedWorkflow{})
	session := createSession(t, srv, map[string]any{})

	resp := postJSON(t, srv.URL+"/api/sessions/"+session.ID+"/query", map[string]any{"query": ""})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestClarificationFlow(t *testing.T) {
	question := "Which aspect of AI interests you?"
	base := domain.NewHistory("Tell me about AI.")
	asked := base.Append(domain.Message{Role: domain.RoleAssistant, Content: question})

	srv, _ := newTestServer(t, &scriptedWorkflow{script: []scriptStep{
		{result: &domain.RunResult{Messages: asked}},
		{result: reportResult(asked, "# Safety Report")},
	}})

	session := createSession(t, srv, map[string]any{})
	view := decodeSession(t, postJSON(t, srv.URL+"/api/sessions/"+session.ID+"/query",
		map[string]any{"query": "Tell me about AI."}))

	assert.Equal(t, "awaiting_clarification", view.Phase)
	assert.Equal(t, question, view.Question)

	view = decodeSession(t, postJSON(t, srv.URL+"/api/sessions/"+session.ID+"/clarify",
		map[string]any{"answer": "AI safety."}))

	assert.Equal(t, "done", view.Phase)
	assert.Equal(t, "# Safety Report", view.Report)
	assert.Equal(t, 1, view.Round)
	assert.Empty(t, view.Question)

	// Bubbles: query, question, answer, report.
	require.Len(t, view.Messages, 4)
	assert.Equal(t, "AI safety.", view.Messages[2].Content)
}

func TestClarify_RequiresPendingQuestion(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedWorkflow{})
	session := createSession(t, srv, map[string]any{})

	resp := postJSON(t, srv.URL+"/api/sessions/"+session.ID+"/clarify", map[string]any{"answer": "x"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestQuery_RejectedWhileAwaiting(t *testing.T) {
	asked := domain.NewHistory("q").
		Append(domain.Message{Role: domain.RoleAssistant, Content: "Which one?"})
	srv, _ := newTestServer(t, &scriptedWorkflow{script: []scriptStep{
		{result: &domain.RunResult{Messages: asked}},
	}})

	session := createSession(t, srv, map[string]any{})
	_ = decodeSession(t, postJSON(t, srv.URL+"/api/sessions/"+session.ID+"/query",
		map[string]any{"query": "q"}))

	resp := postJSON(t, srv.URL+"/api/sessions/"+session.ID+"/query", map[string]any{"query": "another"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCancel_AbandonsPendingClarification(t *testing.T) {
	asked := domain.NewHistory("q").
		Append(domain.Message{Role: domain.RoleAssistant, Content: "Which one?"})
	srv, _ := newTestServer(t, &scriptedWorkflow{script: []scriptStep{
		{result: &domain.RunResult{Messages: asked}},
	}})

	session := createSession(t, srv, map[string]any{})
	_ = decodeSession(t, postJSON(t, srv.URL+"/api/sessions/"+session.ID+"/query",
		map[string]any{"query": "q"}))

	view := decodeSession(t, postJSON(t, srv.URL+"/api/sessions/"+session.ID+"/cancel", map[string]any{}))
	assert.Equal(t, "done", view.Phase)
	assert.Empty(t, view.Question)

	// The transcript so far stays visible.
	assert.Len(t, view.Messages, 2)
}

func TestReset_ClearsInteractionStateKeepsConfig(t *testing.T) {
	base := domain.NewHistory("q")
	srv, builder := newTestServer(t, &scriptedWorkflow{script: []scriptStep{
		{result: reportResult(base, "# Report")},
	}})

	session := createSession(t, srv, map[string]any{"thread_id": "research_7", "iteration_budget": 80})
	_ = decodeSession(t, postJSON(t, srv.URL+"/api/sessions/"+session.ID+"/query",
		map[string]any{"query": "q"}))

	view := decodeSession(t, postJSON(t, srv.URL+"/api/sessions/"+session.ID+"/reset", map[string]any{}))

	assert.Equal(t, "idle", view.Phase)
	assert.Empty(t, view.Messages)
	assert.Empty(t, view.Report)
	assert.Equal(t, 0, view.Round)
	assert.Equal(t, "research_7", view.ThreadID)
	assert.Equal(t, 80, view.Budget)

	// Reset compiles a fresh workflow against a fresh checkpoint store.
	assert.Equal(t, 2, builder.compiles)
}

func TestReportDownload(t *testing.T) {
	base := domain.NewHistory("q")
	srv, _ := newTestServer(t, &scriptedWorkflow{script: []scriptStep{
		{result: reportResult(base, "# Report\n\nBody.")},
	}})

	session := createSession(t, srv, map[string]any{})
	_ = decodeSession(t, postJSON(t, srv.URL+"/api/sessions/"+session.ID+"/query",
		map[string]any{"query": "q"}))

	resp, err := http.Get(srv.URL + "/api/sessions/" + session.ID + "/report")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/markdown", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="research_report.md"`, resp.Header.Get("Content-Disposition"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "# Report\n\nBody.", string(body))
}

func TestReportDownload_NoReportIs404(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedWorkflow{})
	session := createSession(t, srv, map[string]any{})

	resp, err := http.Get(srv.URL + "/api/sessions/" + session.ID + "/report")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEngineFailureSurfacesInline(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedWorkflow{script: []scriptStep{
		{err: errors.New("engine unreachable")},
	}})

	session := createSession(t, srv, map[string]any{})
	view := decodeSession(t, postJSON(t, srv.URL+"/api/sessions/"+session.ID+"/query",
		map[string]any{"query": "q"}))

	assert.Equal(t, "error", view.Phase)
	assert.Contains(t, view.Error, "engine unreachable")

	// The failure also appears as an assistant bubble.
	require.Len(t, view.Messages, 2)
	assert.Equal(t, domain.RoleAssistant, view.Messages[1].Role)
	assert.Contains(t, view.Messages[1].Content, "engine unreachable")
}

func TestUnknownSessionIs404(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedWorkflow{})

	resp, err := http.Get(srv.URL + "/api/sessions/nope/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, &scriptedWorkflow{})

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	base := domain.NewHistory("q")
	srv, _ := newTestServer(t, &scriptedWorkflow{script: []scriptStep{
		{result: reportResult(base, "# Report")},
	}})

	session := createSession(t, srv, map[string]any{})
	_ = decodeSession(t, postJSON(t, srv.URL+"/api/sessions/"+session.ID+"/query",
		map[string]any{"query": "q"}))

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "fathom_workflow_invocations_total")
}
