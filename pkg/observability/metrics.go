// Package observability provides ready-made lifecycle hooks that record
// conversation metrics to Prometheus and structured logs via slog.
package observability

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/parley-dev/parley/pkg/domain"
)

// Metrics holds the Prometheus collectors for the dialogue engine.
type Metrics struct {
	TurnsTotal      *prometheus.CounterVec
	PhaseChanges    *prometheus.CounterVec
	SlotsFilled     *prometheus.CounterVec
	TasksStarted    *prometheus.CounterVec
	TasksQueued     *prometheus.CounterVec
	ActionsExecuted *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// Pass prometheus.DefaultRegisterer to use the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TurnsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parley_turns_total",
				Help: "Total processed turns, by resulting action",
			},
			[]string{"action"},
		),
		PhaseChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parley_phase_changes_total",
				Help: "Phase transitions, by target phase",
			},
			[]string{"to"},
		),
		SlotsFilled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parley_slots_filled_total",
				Help: "Confirmed slot fills, by task",
			},
			[]string{"task"},
		),
		TasksStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parley_tasks_started_total",
				Help: "Tasks activated, by task",
			},
			[]string{"task"},
		),
		TasksQueued: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parley_tasks_queued_total",
				Help: "Tasks queued behind an active one, by task",
			},
			[]string{"task"},
		),
		ActionsExecuted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parley_actions_executed_total",
				Help: "Completed task executions, by task",
			},
			[]string{"task"},
		),
	}
	reg.MustRegister(
		m.TurnsTotal,
		m.PhaseChanges,
		m.SlotsFilled,
		m.TasksStarted,
		m.TasksQueued,
		m.ActionsExecuted,
	)
	return m
}

// Hooks returns lifecycle hooks that record metrics and log each event.
// Compose with your own hooks via Merge if you need both.
func (m *Metrics) Hooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTurnEnd: func(ctx context.Context, e *domain.TurnEvent) {
			m.TurnsTotal.WithLabelValues(string(e.Action)).Inc()
			logger.Info("turn_end",
				"conversation_id", e.ConversationID,
				"phase", e.Phase,
				"action", e.Action,
			)
		},
		OnPhaseChange: func(ctx context.Context, e *domain.PhaseEvent) {
			m.PhaseChanges.WithLabelValues(string(e.To)).Inc()
			logger.Info("phase_change",
				"conversation_id", e.ConversationID,
				"from", e.From,
				"to", e.To,
			)
		},
		OnSlotFilled: func(ctx context.Context, e *domain.SlotEvent) {
			m.SlotsFilled.WithLabelValues(e.Task).Inc()
			logger.Info("slot_filled",
				"conversation_id", e.ConversationID,
				"task", e.Task,
				"slot", e.Slot,
			)
		},
		OnTaskStarted: func(ctx context.Context, e *domain.TaskEvent) {
			m.TasksStarted.WithLabelValues(e.Task).Inc()
			logger.Info("task_started", "conversation_id", e.ConversationID, "task", e.Task)
		},
		OnTaskQueued: func(ctx context.Context, e *domain.TaskEvent) {
			m.TasksQueued.WithLabelValues(e.Task).Inc()
			logger.Info("task_queued", "conversation_id", e.ConversationID, "task", e.Task)
		},
		OnActionExecuted: func(ctx context.Context, e *domain.TaskEvent) {
			m.ActionsExecuted.WithLabelValues(e.Task).Inc()
			logger.Info("action_executed", "conversation_id", e.ConversationID, "task", e.Task)
		},
	}
}

// Merge combines hook sets; every non-nil callback in each set runs.
func Merge(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		h := h
		out.OnTurnStart = chainTurn(out.OnTurnStart, h.OnTurnStart)
		out.OnTurnEnd = chainTurn(out.OnTurnEnd, h.OnTurnEnd)
		out.OnPhaseChange = chainPhase(out.OnPhaseChange, h.OnPhaseChange)
		out.OnSlotFilled = chainSlot(out.OnSlotFilled, h.OnSlotFilled)
		out.OnTaskStarted = chainTask(out.OnTaskStarted, h.OnTaskStarted)
		out.OnTaskQueued = chainTask(out.OnTaskQueued, h.OnTaskQueued)
		out.OnActionExecuted = chainTask(out.OnActionExecuted, h.OnActionExecuted)
	}
	return out
}

func chainTurn(a, b func(context.Context, *domain.TurnEvent)) func(context.Context, *domain.TurnEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *domain.TurnEvent) { a(ctx, e); b(ctx, e) }
}

func chainPhase(a, b func(context.Context, *domain.PhaseEvent)) func(context.Context, *domain.PhaseEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *domain.PhaseEvent) { a(ctx, e); b(ctx, e) }
}

func chainSlot(a, b func(context.Context, *domain.SlotEvent)) func(context.Context, *domain.SlotEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *domain.SlotEvent) { a(ctx, e); b(ctx, e) }
}

func chainTask(a, b func(context.Context, *domain.TaskEvent)) func(context.Context, *domain.TaskEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *domain.TaskEvent) { a(ctx, e); b(ctx, e) }
}
