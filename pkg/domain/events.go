package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTurnStart      EventType = "turn_start"
	EventTurnEnd        EventType = "turn_end"
	EventPhaseChange    EventType = "phase_change"
	EventSlotFilled     EventType = "slot_filled"
	EventTaskStarted    EventType = "task_started"
	EventTaskQueued     EventType = "task_queued"
	EventActionExecuted EventType = "action_executed"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp      time.Time `json:"timestamp"`
	Type           EventType `json:"type"`
	ConversationID string    `json:"conversation_id"`
}

// TurnEvent represents the start or end of one processed utterance.
type TurnEvent struct {
	EventBase
	Phase  Phase      `json:"phase"`
	Action ActionKind `json:"action,omitempty"` // set on turn_end
}

// PhaseEvent represents a phase transition.
type PhaseEvent struct {
	EventBase
	From Phase `json:"from"`
	To   Phase `json:"to"`
}

// SlotEvent represents a slot fill or confirmation.
type SlotEvent struct {
	EventBase
	Task      string `json:"task"`
	Slot      string `json:"slot"`
	Confirmed bool   `json:"confirmed"`
}

// TaskEvent represents a task being started, queued, or executed.
type TaskEvent struct {
	EventBase
	Task string `json:"task"`
}

// LifecycleHooks defines callbacks for engine observability.
// Nil callbacks are skipped; hooks must not mutate conversation state.
type LifecycleHooks struct {
	OnTurnStart      func(context.Context, *TurnEvent)
	OnTurnEnd        func(context.Context, *TurnEvent)
	OnPhaseChange    func(context.Context, *PhaseEvent)
	OnSlotFilled     func(context.Context, *SlotEvent)
	OnTaskStarted    func(context.Context, *TaskEvent)
	OnTaskQueued     func(context.Context, *TaskEvent)
	OnActionExecuted func(context.Context, *TaskEvent)
}
