package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/fathom/pkg/domain"
)

// RunCheckpointStoreContract verifies that a CheckpointStore implementation
// adheres to the interface contract. Adapter test suites call this against
// their concrete store.
func RunCheckpointStoreContract(t *testing.T, store CheckpointStore) {
	ctx := context.Background()
	threadID := "contract-thread-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		history := domain.NewHistory("Compare X to Y.").
			Append(domain.Message{Role: domain.RoleAssistant, Content: "Which aspect?"})

		err := store.Save(ctx, threadID, history)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, threadID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, history, loaded)
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		longer := domain.NewHistory("Compare X to Y.").
			Append(domain.Message{Role: domain.RoleAssistant, Content: "Which aspect?"}).
			Append(domain.Message{Role: domain.RoleUser, Content: "Performance."})
		require.NoError(t, store.Save(ctx, threadID, longer))

		loaded, err := store.Load(ctx, threadID)
		require.NoError(t, err)
		assert.Len(t, loaded, 3)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+threadID)
		assert.ErrorIs(t, err, domain.ErrThreadNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, threadID, domain.NewHistory("q")))
		require.NoError(t, store.Delete(ctx, threadID))

		_, err := store.Load(ctx, threadID)
		assert.ErrorIs(t, err, domain.ErrThreadNotFound, "Load after Delete should return ErrThreadNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := threadID + "-1"
		id2 := threadID + "-2"
		_ = store.Save(ctx, id1, domain.NewHistory("q1"))
		_ = store.Save(ctx, id2, domain.NewHistory("q2"))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		threads, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, threads, id1)
		assert.Contains(t, threads, id2)
	})
}
