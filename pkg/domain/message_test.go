package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/fathom/pkg/domain"
)

func TestNewHistory(t *testing.T) {
	h := domain.NewHistory("Tell me about AI.")
	require.Len(t, h, 1)
	assert.Equal(t, domain.RoleUser, h[0].Role)
	assert.Equal(t, "Tell me about AI.", h[0].Content)
}

func TestHistory_AppendDoesNotMutateReceiver(t *testing.T) {
	base := domain.NewHistory("q")

	a := base.Append(domain.Message{Role: domain.RoleAssistant, Content: "first branch"})
	b := base.Append(domain.Message{Role: domain.RoleAssistant, Content: "second branch"})

	require.Len(t, base, 1)
	require.Len(t, a, 2)
	require.Len(t, b, 2)
	assert.Equal(t, "first branch", a[1].Content)
	assert.Equal(t, "second branch", b[1].Content)
}

func TestHistory_CloneIsIndependent(t *testing.T) {
	h := domain.NewHistory("q").
		Append(domain.Message{Role: domain.RoleAssistant, Content: "a"})

	c := h.Clone()
	c[0].Content = "mutated"

	assert.Equal(t, "q", h[0].Content)
	assert.Nil(t, domain.History(nil).Clone())
}

func TestHistory_Last(t *testing.T) {
	_, ok := domain.History{}.Last()
	assert.False(t, ok)

	h := domain.NewHistory("q").
		Append(domain.Message{Role: domain.RoleAssistant, Content: "tail"})
	last, ok := h.Last()
	require.True(t, ok)
	assert.Equal(t, "tail", last.Content)
}

func TestHistory_AllYieldsInOrder(t *testing.T) {
	h := domain.NewHistory("q").
		Append(domain.Message{Role: domain.RoleAssistant, Content: "a"}).
		Append(domain.Message{Role: domain.RoleUser, Content: "b"})

	var contents []string
	for i, msg := range h.All() {
		assert.Equal(t, len(contents), i)
		contents = append(contents, msg.Content)
	}
	assert.Equal(t, []string{"q", "a", "b"}, contents)
}

func TestHistory_ContainsContent(t *testing.T) {
	h := domain.NewHistory("q").
		Append(domain.Message{Role: domain.RoleAssistant, Content: "finding"})

	assert.True(t, h.ContainsContent("finding"))
	assert.False(t, h.ContainsContent("Finding"))
	assert.False(t, h.ContainsContent("absent"))
}

func TestNewSession(t *testing.T) {
	s := domain.NewSession("Tell me about AI.", "1", 50)

	assert.Equal(t, domain.PhaseRunning, s.Phase)
	assert.Equal(t, "1", s.ThreadID)
	assert.Equal(t, 50, s.IterationBudget)
	assert.Equal(t, 0, s.Round)
	require.Len(t, s.History, 1)
	assert.Equal(t, "Tell me about AI.", s.History[0].Content)
	assert.False(t, s.Terminal())
}

func TestSession_Terminal(t *testing.T) {
	s := domain.NewSession("q", "1", 50)

	for phase, terminal := range map[domain.Phase]bool{
		domain.PhaseRunning:               false,
		domain.PhaseAwaitingClarification: false,
		domain.PhaseDone:                  true,
		domain.PhaseAborted:               true,
	} {
		s.Phase = phase
		assert.Equal(t, terminal, s.Terminal(), "phase %s", phase)
	}
}
