package machine

import "github.com/parley-dev/parley/pkg/domain"

// Advance applies the condition-driven transition table. It is the only
// operation that moves phase as a consequence of data changes; explicit
// triggers (SetActiveTask, StartExecution, Terminate) handle the rest.
//
//	COLLECTING_SLOT          all confirmed          -> READY_TO_EXECUTE
//	COLLECTING_SLOT          pending normalization  -> CONFIRMING_NORMALIZATION
//	CONFIRMING_NORMALIZATION all confirmed          -> READY_TO_EXECUTE
//	CONFIRMING_NORMALIZATION otherwise              -> COLLECTING_SLOT
//	EXECUTING_ACTION                                -> COMPLETED
//	COMPLETED                queue non-empty        -> dequeue head, activate it
//	COMPLETED                queue empty            -> INIT, no active task
//
// INIT, READY_TO_EXECUTE, GENERAL_CHAT, and TERMINATED are fixed points.
func (m *Machine) Advance() {
	switch m.state.Phase {
	case domain.PhaseCollectingSlot:
		if m.state.ActiveTask == "" {
			return
		}
		if m.AllSlotsConfirmed(m.state.ActiveTask) {
			m.transitionTo(domain.PhaseReadyToExecute)
		} else if len(m.state.PendingNormalization) > 0 {
			m.transitionTo(domain.PhaseConfirmingNormalization)
		}

	case domain.PhaseConfirmingNormalization:
		if m.state.ActiveTask == "" {
			return
		}
		if m.AllSlotsConfirmed(m.state.ActiveTask) {
			m.transitionTo(domain.PhaseReadyToExecute)
		} else {
			m.transitionTo(domain.PhaseCollectingSlot)
		}

	case domain.PhaseExecutingAction:
		m.transitionTo(domain.PhaseCompleted)

	case domain.PhaseCompleted:
		if len(m.state.QueuedTasks) > 0 {
			next := m.state.QueuedTasks[0]
			m.state.QueuedTasks = m.state.QueuedTasks[1:]
			if len(m.state.QueuedTasks) == 0 {
				m.state.QueuedTasks = nil
			}
			// COMPLETED is not a task-in-progress phase, so this activates.
			m.transitionTo(domain.PhaseInit)
			m.SetActiveTask(next)
		} else {
			m.state.ActiveTask = ""
			m.transitionTo(domain.PhaseInit)
		}
	}
}

// FinishCollection is the skipped-slot completion path. When every schema
// slot is either confirmed or has exhausted its retry attempts, collection
// can go no further, and the task proceeds to READY_TO_EXECUTE with what
// was gathered. Advance never takes this transition on its own: it demands
// full confirmation. Reports whether the transition happened.
func (m *Machine) FinishCollection() bool {
	if m.state.Phase != domain.PhaseCollectingSlot {
		return false
	}
	if m.state.ActiveTask == "" || m.NextCollectibleSlot(m.state.ActiveTask) != "" {
		return false
	}
	m.state.SlotBeingCollected = ""
	m.transitionTo(domain.PhaseReadyToExecute)
	return true
}
