package runtime

import (
	"context"

	"github.com/parley-dev/parley/pkg/domain"
	"github.com/parley-dev/parley/pkg/machine"
)

// collectSlots runs the slot-collection algorithm for one utterance:
// determine the slot under collection, ask the selector which slots the
// utterance might answer, fall back to single-slot extraction for terse
// answers, and either fill-and-confirm, open a normalization round, or
// count a failed attempt against the current slot.
func (e *Engine) collectSlots(ctx context.Context, m *machine.Machine, utterance string) domain.TurnResult {
	task := m.ActiveTask()
	if task == "" {
		// Collecting with no active task is unreachable through the public
		// API; recover by treating the turn as a fresh one.
		return e.handleIntent(ctx, m, utterance)
	}

	current := m.CurrentSlot()
	if current == "" {
		current = m.NextCollectibleSlot(task)
		if current != "" {
			m.SetCurrentSlot(current)
		}
	}

	candidates := e.selectSlots(ctx, utterance, task, filledSlotNames(m))

	values := make(map[string]string, len(candidates))
	order := make([]string, 0, len(candidates))
	for _, slot := range candidates {
		if _, seen := values[slot]; seen {
			continue
		}
		if v := e.extractValue(ctx, utterance, slot, task); v != "" {
			values[slot] = v
			order = append(order, slot)
		}
	}

	// Terse answers carry no keyword signal for the selector; try the slot
	// we actually asked about.
	if len(values) == 0 && current != "" {
		if v := e.extractValue(ctx, utterance, current, task); v != "" {
			values[current] = v
			order = append(order, current)
		}
	}

	if len(values) == 0 {
		return e.failedAttempt(ctx, m, current, utterance)
	}

	// Every extracted value is filled this turn, ambiguous or not; one
	// utterance answering several slots must not cost the user a repeat.
	for _, slot := range order {
		raw := values[slot]
		if !m.FillSlot(slot, raw, false) {
			continue // slot already confirmed; the fill was refused
		}

		if proposed, ok := e.proposeNormalization(ctx, slot, raw, task); ok {
			m.SetPendingNormalization(slot, proposed)
			continue
		}

		// Values volunteered in free text are trusted without a separate
		// confirmation round; normalization is the safety net for
		// ambiguity, not reconfirmation.
		m.ConfirmSlot(slot)
		e.emitSlotFilled(ctx, m, task, slot)
	}

	// Ambiguous values share one confirmation round; the first proposal in
	// schema order is surfaced and a single reply settles all of them.
	if m.HasPendingNormalization() {
		m.Advance()
		return e.reaskPending(m)
	}

	return e.askNext(ctx, m)
}

// failedAttempt handles an utterance that answered no slot. It first
// checks for an interrupting task intent (queued behind the active one),
// then charges a failed collection attempt against the current slot.
// While attempts remain the slot is re-asked; once exhausted it is skipped
// permanently for this task instance.
func (e *Engine) failedAttempt(ctx context.Context, m *machine.Machine, current, utterance string) domain.TurnResult {
	task := m.ActiveTask()

	if current == "" && matchesExecutionConfirmation(utterance) {
		// Nothing left to collect and the user gave a go-ahead. Close out
		// collection first so the execution hand-off is honorable.
		m.FinishCollection()
		return domain.ExecuteAction{Task: task, Slots: m.ConfirmedSlots()}
	}

	// An utterance that answers nothing may be the user asking for a
	// different task mid-conversation. Detection runs only on this
	// fallback path so slot answers are never mistaken for interruptions.
	if detected := e.detectIntent(ctx, utterance); detected != "" && detected != task && e.registry.Has(detected) {
		if !m.SetActiveTask(detected) {
			e.emitTaskQueued(ctx, m, detected)
			return domain.IntentQueued{Task: detected, Position: queuePosition(m, detected)}
		}
	}

	if current == "" {
		m.FinishCollection()
		return domain.ReadyToExecute{Task: task}
	}

	if m.IncrementRetry(current) {
		prompt, err := e.registry.Prompt(task, current)
		if err != nil {
			e.logger.Error("prompt lookup failed", "task", task, "slot", current, "err", err)
			return domain.ErrorResult{Reason: "no prompt for slot " + current}
		}
		return domain.RetrySlot{Task: task, Slot: current, Prompt: prompt, Attempt: retryCount(m, current)}
	}

	e.logger.Info("slot retries exhausted", "task", task, "slot", current)
	m.SetCurrentSlot("")
	return e.askNext(ctx, m)
}

// filledSlotNames returns the slots that already hold a value, confirmed
// or awaiting normalization. The selector must never re-select these.
func filledSlotNames(m *machine.Machine) []string {
	var filled []string
	for name, rec := range m.State().Slots {
		if rec.Confirmed || rec.Value != "" {
			filled = append(filled, name)
		}
	}
	return filled
}

func retryCount(m *machine.Machine, slot string) int {
	if rec, ok := m.State().Slots[slot]; ok {
		return rec.RetryCount
	}
	return 0
}
