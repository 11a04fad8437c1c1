package runtime

import (
	"context"

	"github.com/parley-dev/parley/pkg/domain"
	"github.com/parley-dev/parley/pkg/machine"
)

func (e *Engine) base(m *machine.Machine, typ domain.EventType) domain.EventBase {
	return domain.EventBase{
		Timestamp:      e.now(),
		Type:           typ,
		ConversationID: m.State().ConversationID,
	}
}

func (e *Engine) emitTurnStart(ctx context.Context, m *machine.Machine) {
	if e.hooks.OnTurnStart == nil {
		return
	}
	e.hooks.OnTurnStart(ctx, &domain.TurnEvent{
		EventBase: e.base(m, domain.EventTurnStart),
		Phase:     m.Phase(),
	})
}

func (e *Engine) emitTurnEnd(ctx context.Context, m *machine.Machine, result domain.TurnResult) {
	if e.hooks.OnTurnEnd == nil {
		return
	}
	e.hooks.OnTurnEnd(ctx, &domain.TurnEvent{
		EventBase: e.base(m, domain.EventTurnEnd),
		Phase:     m.Phase(),
		Action:    result.Kind(),
	})
}

func (e *Engine) emitPhaseChange(ctx context.Context, m *machine.Machine, from, to domain.Phase) {
	if e.hooks.OnPhaseChange == nil {
		return
	}
	e.hooks.OnPhaseChange(ctx, &domain.PhaseEvent{
		EventBase: e.base(m, domain.EventPhaseChange),
		From:      from,
		To:        to,
	})
}

func (e *Engine) emitSlotFilled(ctx context.Context, m *machine.Machine, task, slot string) {
	if e.hooks.OnSlotFilled == nil {
		return
	}
	e.hooks.OnSlotFilled(ctx, &domain.SlotEvent{
		EventBase: e.base(m, domain.EventSlotFilled),
		Task:      task,
		Slot:      slot,
		Confirmed: true,
	})
}

func (e *Engine) emitTaskStarted(ctx context.Context, m *machine.Machine, task string) {
	if e.hooks.OnTaskStarted == nil {
		return
	}
	e.hooks.OnTaskStarted(ctx, &domain.TaskEvent{
		EventBase: e.base(m, domain.EventTaskStarted),
		Task:      task,
	})
}

func (e *Engine) emitTaskQueued(ctx context.Context, m *machine.Machine, task string) {
	if e.hooks.OnTaskQueued == nil {
		return
	}
	e.hooks.OnTaskQueued(ctx, &domain.TaskEvent{
		EventBase: e.base(m, domain.EventTaskQueued),
		Task:      task,
	})
}
