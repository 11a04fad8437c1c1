package ports

import (
	"context"
	"testing"
	"time"

	"github.com/parley-dev/parley/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStateStoreContract runs a suite of tests to verify that a StateStore
// implementation adheres to the interface contract, including an exact
// round trip of the full conversation snapshot.
func RunStateStoreContract(t *testing.T, store StateStore) {
	ctx := context.Background()
	convID := "contract-test-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		state := domain.NewState(convID)
		state.Phase = domain.PhaseCollectingSlot
		state.ActiveTask = "request_time_off"
		state.QueuedTasks = []string{"schedule_meeting"}
		state.SlotBeingCollected = "start_date"
		state.Slots["employee_name"] = &domain.SlotRecord{Value: "John Smith", Confirmed: true}
		state.Slots["start_date"] = &domain.SlotRecord{
			Value:                             "next Monday",
			RetryCount:                        1,
			NormalizedCandidate:               "2025-01-13",
			AwaitingNormalizationConfirmation: true,
		}
		state.PendingNormalization = map[string]string{"start_date": "2025-01-13"}

		err := store.Save(ctx, convID, state)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, convID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, state.Phase, loaded.Phase)
		assert.Equal(t, state.ActiveTask, loaded.ActiveTask)
		assert.Equal(t, state.QueuedTasks, loaded.QueuedTasks)
		assert.Equal(t, state.SlotBeingCollected, loaded.SlotBeingCollected)
		require.Contains(t, loaded.Slots, "start_date")
		assert.Equal(t, *state.Slots["start_date"], *loaded.Slots["start_date"])
		assert.Equal(t, *state.Slots["employee_name"], *loaded.Slots["employee_name"])
		assert.Equal(t, state.PendingNormalization, loaded.PendingNormalization)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+convID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Isolation", func(t *testing.T) {
		// Mutating a loaded state must not leak back into the store.
		state := domain.NewState(convID)
		state.Slots["reason"] = &domain.SlotRecord{Value: "vacation"}
		require.NoError(t, store.Save(ctx, convID, state))

		loaded, err := store.Load(ctx, convID)
		require.NoError(t, err)
		loaded.Slots["reason"].Value = "mutated"
		loaded.Phase = domain.PhaseTerminated

		again, err := store.Load(ctx, convID)
		require.NoError(t, err)
		assert.Equal(t, "vacation", again.Slots["reason"].Value)
		assert.Equal(t, domain.PhaseInit, again.Phase)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, convID, domain.NewState(convID)))

		err := store.Delete(ctx, convID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, convID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := convID + "-1"
		id2 := convID + "-2"
		_ = store.Save(ctx, id1, domain.NewState(id1))
		_ = store.Save(ctx, id2, domain.NewState(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		conversations, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, conversations, id1)
		assert.Contains(t, conversations, id2)
	})
}
