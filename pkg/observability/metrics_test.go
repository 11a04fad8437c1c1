package observability

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-dev/parley"
	"github.com/parley-dev/parley/pkg/domain"
)

func nopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHooksRecordMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	hooks := m.Hooks(nopLogger())
	ctx := context.Background()

	hooks.OnTurnEnd(ctx, &domain.TurnEvent{Action: domain.ActionAskSlot})
	hooks.OnTurnEnd(ctx, &domain.TurnEvent{Action: domain.ActionAskSlot})
	hooks.OnPhaseChange(ctx, &domain.PhaseEvent{From: domain.PhaseInit, To: domain.PhaseCollectingSlot})
	hooks.OnSlotFilled(ctx, &domain.SlotEvent{Task: "request_time_off", Slot: "employee_name"})
	hooks.OnTaskStarted(ctx, &domain.TaskEvent{Task: "request_time_off"})
	hooks.OnTaskQueued(ctx, &domain.TaskEvent{Task: "schedule_meeting"})
	hooks.OnActionExecuted(ctx, &domain.TaskEvent{Task: "request_time_off"})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TurnsTotal.WithLabelValues("ask_slot")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PhaseChanges.WithLabelValues("COLLECTING_SLOT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SlotsFilled.WithLabelValues("request_time_off")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TasksStarted.WithLabelValues("request_time_off")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TasksQueued.WithLabelValues("schedule_meeting")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActionsExecuted.WithLabelValues("request_time_off")))
}

func TestHooksObserveEngineTurns(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	engine, err := parley.New(nil, parley.WithLifecycleHooks(m.Hooks(nopLogger())))
	require.NoError(t, err)

	ctx := context.Background()
	id, err := engine.StartConversation(ctx)
	require.NoError(t, err)

	_, err = engine.ProcessTurn(ctx, id, "I need to request some time off")
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TasksStarted.WithLabelValues("request_time_off")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TurnsTotal.WithLabelValues("ask_slot")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PhaseChanges.WithLabelValues("COLLECTING_SLOT")))
}

func TestMergeRunsEveryHookSet(t *testing.T) {
	var calls []string
	a := domain.LifecycleHooks{
		OnTurnEnd: func(context.Context, *domain.TurnEvent) { calls = append(calls, "a") },
	}
	b := domain.LifecycleHooks{
		OnTurnEnd:     func(context.Context, *domain.TurnEvent) { calls = append(calls, "b") },
		OnPhaseChange: func(context.Context, *domain.PhaseEvent) { calls = append(calls, "b-phase") },
	}

	merged := Merge(a, b)
	merged.OnTurnEnd(context.Background(), &domain.TurnEvent{})
	merged.OnPhaseChange(context.Background(), &domain.PhaseEvent{})

	assert.Equal(t, []string{"a", "b", "b-phase"}, calls)
	assert.Nil(t, merged.OnSlotFilled)
}
