package runtime

import (
	"context"
	"strings"

	"github.com/parley-dev/parley/pkg/domain"
	"github.com/parley-dev/parley/pkg/machine"
)

var affirmWords = map[string]bool{
	"yes": true, "yeah": true, "yep": true, "sure": true,
	"ok": true, "okay": true, "confirm": true, "correct": true,
}

var negateWords = map[string]bool{
	"no": true, "nope": true, "nah": true, "incorrect": true, "wrong": true,
}

var executionWords = []string{
	"yes", "yeah", "yep", "sure", "ok", "okay",
	"proceed", "go ahead", "execute", "submit",
}

func matchesAffirmation(utterance string) bool {
	return affirmWords[normalizeReply(utterance)]
}

func matchesNegation(utterance string) bool {
	return negateWords[normalizeReply(utterance)]
}

// matchesExecutionConfirmation is looser than the yes/no lexicons: a
// go-ahead can be embedded in a longer sentence ("ok, go ahead please").
func matchesExecutionConfirmation(utterance string) bool {
	lower := strings.ToLower(utterance)
	for _, w := range executionWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func normalizeReply(utterance string) string {
	return strings.Trim(strings.ToLower(strings.TrimSpace(utterance)), ".!,")
}

// handleNormalizationReply resolves a pending normalization round. An
// affirmative adopts the proposed candidates and confirms their slots; a
// negative discards the proposals and re-collects. Anything ambiguous
// re-asks the same question without mutating state.
func (e *Engine) handleNormalizationReply(ctx context.Context, m *machine.Machine, utterance string) domain.TurnResult {
	task := m.ActiveTask()

	switch {
	case matchesAffirmation(utterance):
		for _, slot := range m.PendingSlots() {
			if m.ConfirmSlot(slot) {
				e.emitSlotFilled(ctx, m, task, slot)
			}
		}
		return e.askNext(ctx, m)

	case matchesNegation(utterance):
		for _, slot := range m.PendingSlots() {
			m.RejectNormalization(slot)
		}
		return e.askNext(ctx, m)

	default:
		return e.reaskPending(m)
	}
}

// reaskPending re-surfaces the pending proposal. Proposals are resolved
// one at a time: even when the container holds several, only the first in
// schema order is shown, and a single yes or no settles all of them.
func (e *Engine) reaskPending(m *machine.Machine) domain.TurnResult {
	slot, proposed, ok := m.Pending()
	if !ok {
		// Phase says a confirmation is pending but no proposal exists;
		// fall back to collecting.
		m.Advance()
		return e.askNextFromCollecting(m)
	}
	raw := ""
	if rec, exists := m.State().Slots[slot]; exists {
		raw = rec.Value
	}
	return domain.ConfirmNormalization{Task: m.ActiveTask(), Slot: slot, Raw: raw, Proposed: proposed}
}

// askNextFromCollecting is askNext without the confirming-phase branch,
// for recovery paths that must not loop back into reaskPending.
func (e *Engine) askNextFromCollecting(m *machine.Machine) domain.TurnResult {
	task := m.ActiveTask()
	if m.Phase() == domain.PhaseReadyToExecute {
		return domain.ReadyToExecute{Task: task}
	}
	next := m.NextCollectibleSlot(task)
	if next == "" {
		m.FinishCollection()
		return domain.ReadyToExecute{Task: task}
	}
	m.SetCurrentSlot(next)
	prompt, err := e.registry.Prompt(task, next)
	if err != nil {
		return domain.ErrorResult{Reason: "no prompt for slot " + next}
	}
	return domain.AskSlot{Task: task, Slot: next, Prompt: prompt}
}
