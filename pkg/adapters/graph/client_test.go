package graph_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/fathom/pkg/adapters/graph"
	"github.com/aretw0/fathom/pkg/adapters/memory"
	"github.com/aretw0/fathom/pkg/domain"
	"github.com/aretw0/fathom/pkg/ports"
)

func TestBuilder_CompileRequiresURL(t *testing.T) {
	_, err := graph.NewBuilder("").Compile(memory.NewSaver())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine URL is required")
}

func TestWorkflow_InvokeSendsTranscriptAndConfig(t *testing.T) {
	var got struct {
		Messages       domain.History `json:"messages"`
		ThreadID       string         `json:"thread_id"`
		RecursionLimit int            `json:"recursion_limit"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/invoke", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer sekrit", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_ = json.NewEncoder(w).Encode(domain.RunResult{
			Messages: got.Messages.
				Append(domain.Message{Role: domain.RoleAssistant, Content: "# Report"}),
			FinalReport: "# Report",
		})
	}))
	defer srv.Close()

	builder := graph.NewBuilder(srv.URL+"/", graph.WithOptions(graph.Options{AuthToken: "sekrit"}))
	workflow, err := builder.Compile(memory.NewSaver())
	require.NoError(t, err)

	history := domain.NewHistory("Tell me about AI.")
	result, err := workflow.Invoke(context.Background(), history, ports.InvokeConfig{
		ThreadID:        "t1",
		IterationBudget: 50,
	})
	require.NoError(t, err)

	assert.Equal(t, history, got.Messages)
	assert.Equal(t, "t1", got.ThreadID)
	assert.Equal(t, 50, got.RecursionLimit)
	assert.Equal(t, "# Report", result.FinalReport)
	require.Len(t, result.Messages, 2)
}

func TestWorkflow_InvokeCheckpointsTranscript(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(domain.RunResult{
			Messages: domain.NewHistory("q").
				Append(domain.Message{Role: domain.RoleAssistant, Content: "Which aspect?"}),
		})
	}))
	defer srv.Close()

	store := memory.NewSaver()
	workflow, err := graph.NewBuilder(srv.URL).Compile(store)
	require.NoError(t, err)

	_, err = workflow.Invoke(context.Background(), domain.NewHistory("q"), ports.InvokeConfig{ThreadID: "t1"})
	require.NoError(t, err)

	saved, err := store.Load(context.Background(), "t1")
	require.NoError(t, err)
	assert.Len(t, saved, 2)
}

func TestWorkflow_InvokeSurfacesEngineErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "recursion limit exceeded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	workflow, err := graph.NewBuilder(srv.URL).Compile(memory.NewSaver())
	require.NoError(t, err)

	_, err = workflow.Invoke(context.Background(), domain.NewHistory("q"), ports.InvokeConfig{ThreadID: "t1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Contains(t, err.Error(), "recursion limit exceeded")
}

func TestWorkflow_InvokeRejectsMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	workflow, err := graph.NewBuilder(srv.URL).Compile(memory.NewSaver())
	require.NoError(t, err)

	_, err = workflow.Invoke(context.Background(), domain.NewHistory("q"), ports.InvokeConfig{ThreadID: "t1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode engine response")
}

func TestWorkflow_InvokeHonorsContextCancellation(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server can watch the connection and cancel
		// r.Context() when the client disconnects; otherwise Close deadlocks.
		_, _ = io.Copy(io.Discard, r.Body)
		close(started)
		<-r.Context().Done()
	}))
	defer srv.Close()

	workflow, err := graph.NewBuilder(srv.URL).Compile(memory.NewSaver())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err = workflow.Invoke(ctx, domain.NewHistory("q"), ports.InvokeConfig{ThreadID: "t1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
