package machine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-dev/parley/pkg/domain"
	"github.com/parley-dev/parley/pkg/schema"
)

func newTestMachine(t *testing.T) *Machine {
	t.Helper()
	return New(schema.Builtin(), "conv-1")
}

func startTimeOff(t *testing.T) *Machine {
	t.Helper()
	m := newTestMachine(t)
	require.True(t, m.SetActiveTask("request_time_off"))
	return m
}

func TestSetActiveTask(t *testing.T) {
	t.Run("activates from INIT with a clean slot namespace", func(t *testing.T) {
		m := newTestMachine(t)
		assert.True(t, m.SetActiveTask("request_time_off"))
		assert.Equal(t, domain.PhaseCollectingSlot, m.Phase())
		assert.Equal(t, "request_time_off", m.ActiveTask())
		assert.Empty(t, m.State().Slots)
	})

	t.Run("queues while another task is in progress", func(t *testing.T) {
		m := startTimeOff(t)
		m.FillSlot("employee_name", "John Smith", false)
		m.ConfirmSlot("employee_name")

		assert.False(t, m.SetActiveTask("schedule_meeting"))
		assert.Equal(t, "request_time_off", m.ActiveTask())
		assert.Equal(t, []string{"schedule_meeting"}, m.QueuedTasks())

		// Active slots are untouched by the queuing.
		assert.Equal(t, map[string]string{"employee_name": "John Smith"}, m.ConfirmedSlots())
	})

	t.Run("re-queuing the same task is a no-op, position preserved", func(t *testing.T) {
		m := startTimeOff(t)
		assert.False(t, m.SetActiveTask("schedule_meeting"))
		assert.False(t, m.SetActiveTask("submit_it_ticket"))
		assert.False(t, m.SetActiveTask("schedule_meeting"))
		assert.Equal(t, []string{"schedule_meeting", "submit_it_ticket"}, m.QueuedTasks())
	})

}

func TestConfirmedSlotImmutability(t *testing.T) {
	m := startTimeOff(t)

	require.True(t, m.FillSlot("employee_name", "John Smith", false))
	require.True(t, m.ConfirmSlot("employee_name"))

	// Any later fill with a different value must be refused.
	assert.False(t, m.FillSlot("employee_name", "Jane Doe", false))
	assert.False(t, m.FillSlot("employee_name", "Jane Doe", true))
	assert.Equal(t, "John Smith", m.State().Slots["employee_name"].Value)
	assert.True(t, m.State().Slots["employee_name"].Confirmed)
}

func TestFillSlotPreservesRetryCount(t *testing.T) {
	m := startTimeOff(t)

	m.IncrementRetry("start_date")
	m.IncrementRetry("start_date")
	require.True(t, m.FillSlot("start_date", "2026-09-01", false))

	assert.Equal(t, 2, m.State().Slots["start_date"].RetryCount)
}

func TestRetryBound(t *testing.T) {
	m := startTimeOff(t)

	// True exactly twice, false on the third call, false thereafter.
	assert.True(t, m.IncrementRetry("notify_manager"))
	assert.True(t, m.IncrementRetry("notify_manager"))
	assert.False(t, m.IncrementRetry("notify_manager"))
	assert.False(t, m.IncrementRetry("notify_manager"))
	assert.Equal(t, 4, m.State().Slots["notify_manager"].RetryCount)
}

func TestConfirmSlotAdoptsNormalizationCandidate(t *testing.T) {
	m := startTimeOff(t)

	require.True(t, m.FillSlot("start_date", "next Monday", false))
	m.SetPendingNormalization("start_date", "2026-09-07")

	rec := m.State().Slots["start_date"]
	assert.True(t, rec.AwaitingNormalizationConfirmation)
	assert.Equal(t, "2026-09-07", rec.NormalizedCandidate)

	require.True(t, m.ConfirmSlot("start_date"))
	assert.Equal(t, "2026-09-07", rec.Value)
	assert.True(t, rec.Confirmed)
	assert.Empty(t, rec.NormalizedCandidate)
	assert.False(t, rec.AwaitingNormalizationConfirmation)
	assert.False(t, m.HasPendingNormalization())
}

func TestRejectNormalizationKeepsRawValue(t *testing.T) {
	m := startTimeOff(t)

	m.FillSlot("start_date", "next Monday", false)
	m.SetPendingNormalization("start_date", "2026-09-07")
	m.RejectNormalization("start_date")

	rec := m.State().Slots["start_date"]
	assert.Equal(t, "next Monday", rec.Value)
	assert.False(t, rec.Confirmed)
	assert.Empty(t, rec.NormalizedCandidate)
	assert.False(t, m.HasPendingNormalization())
}

func TestConfirmSlotWithoutRecord(t *testing.T) {
	m := startTimeOff(t)
	assert.False(t, m.ConfirmSlot("start_date"))
}

func TestPendingSurfacesFirstInSchemaOrder(t *testing.T) {
	m := startTimeOff(t)

	m.FillSlot("end_date", "next Friday", false)
	m.SetPendingNormalization("end_date", "2026-09-11")
	m.FillSlot("start_date", "next Monday", false)
	m.SetPendingNormalization("start_date", "2026-09-07")

	slot, proposed, ok := m.Pending()
	require.True(t, ok)
	assert.Equal(t, "start_date", slot)
	assert.Equal(t, "2026-09-07", proposed)
	assert.Equal(t, []string{"start_date", "end_date"}, m.PendingSlots())
}

func TestNextMissingSlotFollowsSchemaOrder(t *testing.T) {
	m := startTimeOff(t)

	assert.Equal(t, "employee_name", m.NextMissingSlot("request_time_off"))

	m.FillSlot("employee_name", "John Smith", false)
	m.ConfirmSlot("employee_name")
	assert.Equal(t, "start_date", m.NextMissingSlot("request_time_off"))

	// Filling out of order never reorders the request sequence.
	m.FillSlot("end_date", "2026-09-11", false)
	m.ConfirmSlot("end_date")
	assert.Equal(t, "start_date", m.NextMissingSlot("request_time_off"))
}

func TestNextCollectibleSlotSkipsExhausted(t *testing.T) {
	m := startTimeOff(t)

	m.FillSlot("employee_name", "John Smith", false)
	m.ConfirmSlot("employee_name")

	m.IncrementRetry("start_date")
	m.IncrementRetry("start_date")
	m.IncrementRetry("start_date")

	// start_date is still "missing" but no longer collectible.
	assert.Equal(t, "start_date", m.NextMissingSlot("request_time_off"))
	assert.Equal(t, "end_date", m.NextCollectibleSlot("request_time_off"))
}

func confirmAll(t *testing.T, m *Machine, task string) {
	t.Helper()
	order, err := m.registry.SlotOrder(task)
	require.NoError(t, err)
	for _, name := range order {
		m.FillSlot(name, "v", false)
		m.ConfirmSlot(name)
	}
}

func TestAdvance(t *testing.T) {
	t.Run("collecting to ready when all slots confirmed", func(t *testing.T) {
		m := startTimeOff(t)
		confirmAll(t, m, "request_time_off")
		m.Advance()
		assert.Equal(t, domain.PhaseReadyToExecute, m.Phase())
	})

	t.Run("collecting to confirming when a normalization is pending", func(t *testing.T) {
		m := startTimeOff(t)
		m.FillSlot("start_date", "next Monday", false)
		m.SetPendingNormalization("start_date", "2026-09-07")
		m.Advance()
		assert.Equal(t, domain.PhaseConfirmingNormalization, m.Phase())
	})

	t.Run("collecting stays put otherwise", func(t *testing.T) {
		m := startTimeOff(t)
		m.Advance()
		assert.Equal(t, domain.PhaseCollectingSlot, m.Phase())
	})

	t.Run("confirming returns to collecting after resolution", func(t *testing.T) {
		m := startTimeOff(t)
		m.FillSlot("start_date", "next Monday", false)
		m.SetPendingNormalization("start_date", "2026-09-07")
		m.Advance()
		require.Equal(t, domain.PhaseConfirmingNormalization, m.Phase())

		m.ConfirmSlot("start_date")
		m.Advance()
		assert.Equal(t, domain.PhaseCollectingSlot, m.Phase())
	})

	t.Run("init is a fixed point", func(t *testing.T) {
		m := newTestMachine(t)
		m.Advance()
		assert.Equal(t, domain.PhaseInit, m.Phase())
	})
}

// exhaust burns through a slot's retry attempts.
func exhaust(t *testing.T, m *Machine, slot string) {
	t.Helper()
	m.IncrementRetry(slot)
	m.IncrementRetry(slot)
	m.IncrementRetry(slot)
}

func TestFinishCollection(t *testing.T) {
	t.Run("moves to ready when the only remaining slots are exhausted", func(t *testing.T) {
		m := startTimeOff(t)
		for _, name := range []string{"employee_name", "start_date", "end_date", "time_off_type", "reason"} {
			m.FillSlot(name, "v", false)
			m.ConfirmSlot(name)
		}
		exhaust(t, m, "notify_manager")
		m.SetCurrentSlot("notify_manager")

		assert.True(t, m.FinishCollection())
		assert.Equal(t, domain.PhaseReadyToExecute, m.Phase())
		assert.Empty(t, m.CurrentSlot())
		// The gate that Execute relies on now opens.
		assert.True(t, m.StartExecution())
	})

	t.Run("refused while a collectible slot remains", func(t *testing.T) {
		m := startTimeOff(t)
		exhaust(t, m, "employee_name")

		assert.False(t, m.FinishCollection())
		assert.Equal(t, domain.PhaseCollectingSlot, m.Phase())
	})

	t.Run("refused outside collection", func(t *testing.T) {
		m := newTestMachine(t)
		assert.False(t, m.FinishCollection())
		assert.Equal(t, domain.PhaseInit, m.Phase())

		m2 := startTimeOff(t)
		confirmAll(t, m2, "request_time_off")
		m2.Advance()
		require.Equal(t, domain.PhaseReadyToExecute, m2.Phase())
		assert.False(t, m2.FinishCollection())
	})
}

func TestExecutionLifecycle(t *testing.T) {
	t.Run("start execution requires ready phase", func(t *testing.T) {
		m := startTimeOff(t)
		assert.False(t, m.StartExecution())

		confirmAll(t, m, "request_time_off")
		m.Advance()
		assert.True(t, m.StartExecution())
		assert.Equal(t, domain.PhaseExecutingAction, m.Phase())
	})

	t.Run("complete action with empty queue returns to INIT", func(t *testing.T) {
		m := startTimeOff(t)
		confirmAll(t, m, "request_time_off")
		m.Advance()
		m.StartExecution()
		m.CompleteAction()

		assert.Equal(t, domain.PhaseInit, m.Phase())
		assert.Empty(t, m.ActiveTask())
	})

	t.Run("complete action dequeues the next task", func(t *testing.T) {
		m := startTimeOff(t)
		assert.False(t, m.SetActiveTask("schedule_meeting"))

		confirmAll(t, m, "request_time_off")
		m.Advance()
		m.StartExecution()
		m.CompleteAction()

		assert.Equal(t, domain.PhaseCollectingSlot, m.Phase())
		assert.Equal(t, "schedule_meeting", m.ActiveTask())
		assert.Empty(t, m.QueuedTasks())
		// The dequeued task starts with a clean slot namespace.
		assert.Empty(t, m.State().Slots)
	})
}

func TestTerminateIsSink(t *testing.T) {
	m := startTimeOff(t)
	m.FillSlot("employee_name", "John Smith", false)
	m.Terminate()

	assert.Equal(t, domain.PhaseTerminated, m.Phase())

	assert.False(t, m.SetActiveTask("schedule_meeting"))
	assert.False(t, m.FillSlot("start_date", "2026-09-01", false))
	assert.False(t, m.ConfirmSlot("employee_name"))
	assert.False(t, m.IncrementRetry("start_date"))
	m.Advance()
	assert.Equal(t, domain.PhaseTerminated, m.Phase())
}

func TestSnapshotRoundTrip(t *testing.T) {
	fixed := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	m := New(schema.Builtin(), "conv-42", WithClock(func() time.Time { return fixed }))

	require.True(t, m.SetActiveTask("request_time_off"))
	m.FillSlot("employee_name", "John Smith", false)
	m.ConfirmSlot("employee_name")
	m.FillSlot("start_date", "next Monday", false)
	m.SetPendingNormalization("start_date", "2026-09-07")
	m.IncrementRetry("reason")
	m.SetCurrentSlot("start_date")
	m.SetActiveTask("schedule_meeting") // queued

	blob, err := m.Snapshot()
	require.NoError(t, err)

	restored := New(schema.Builtin(), "conv-42")
	require.NoError(t, restored.Restore(blob))

	assert.Equal(t, m.State().Phase, restored.State().Phase)
	assert.Equal(t, m.State().ActiveTask, restored.State().ActiveTask)
	assert.Equal(t, m.State().QueuedTasks, restored.State().QueuedTasks)
	assert.Equal(t, m.State().SlotBeingCollected, restored.State().SlotBeingCollected)
	assert.Equal(t, m.State().PendingNormalization, restored.State().PendingNormalization)
	assert.Equal(t, m.State().Slots, restored.State().Slots)
	assert.True(t, m.State().LastUpdated.Equal(restored.State().LastUpdated))
}
