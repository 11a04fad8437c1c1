package domain

import "time"

// Phase defines the current stage of a conversation.
type Phase string

const (
	PhaseInit                    Phase = "INIT"
	PhaseCollectingSlot          Phase = "COLLECTING_SLOT"
	PhaseConfirmingNormalization Phase = "CONFIRMING_NORMALIZATION"
	PhaseReadyToExecute          Phase = "READY_TO_EXECUTE"
	PhaseExecutingAction         Phase = "EXECUTING_ACTION"
	PhaseCompleted               Phase = "COMPLETED"
	PhaseGeneralChat             Phase = "GENERAL_CHAT"
	PhaseTerminated              Phase = "TERMINATED"
)

// TaskInProgress reports whether the phase belongs to an active task flow.
// A new task detected in one of these phases is queued, never activated.
func (p Phase) TaskInProgress() bool {
	switch p {
	case PhaseCollectingSlot, PhaseConfirmingNormalization, PhaseReadyToExecute, PhaseExecutingAction:
		return true
	}
	return false
}

// Terminal reports whether the phase is the sink state.
func (p Phase) Terminal() bool {
	return p == PhaseTerminated
}

// SlotRecord holds a collected value for a single slot, with its
// confirmation status and retry metadata.
//
// Once Confirmed is true, Value and Confirmed are immutable for the
// lifetime of the active task instance.
type SlotRecord struct {
	Value      string `json:"value"`
	Confirmed  bool   `json:"confirmed"`
	RetryCount int    `json:"retryCount"`

	// NormalizedCandidate is a proposed replacement for an ambiguous raw
	// value, pending explicit user confirmation.
	NormalizedCandidate               string `json:"normalizedCandidate,omitempty"`
	AwaitingNormalizationConfirmation bool   `json:"awaitingNormalizationConfirmation,omitempty"`
}

// State represents the complete snapshot of one conversation.
// It is owned by exactly one machine instance and serialized as-is by the
// persistence layer; the JSON field names are the canonical storage schema.
type State struct {
	Phase      Phase  `json:"phase"`
	ActiveTask string `json:"activeTask,omitempty"`

	// QueuedTasks holds tasks detected while another task was in progress,
	// FIFO, duplicates suppressed.
	QueuedTasks []string `json:"queuedTasks,omitempty"`

	Slots              map[string]*SlotRecord `json:"slots"`
	SlotBeingCollected string                 `json:"slotBeingCollected,omitempty"`

	// PendingNormalization maps slot name to the proposed replacement value.
	// The container allows multiple entries, but proposals are surfaced and
	// resolved one at a time.
	PendingNormalization map[string]string `json:"pendingNormalization,omitempty"`

	ConversationID string    `json:"conversationId"`
	LastUpdated    time.Time `json:"lastUpdated"`
}

// NewState creates a clean state for a fresh conversation.
func NewState(conversationID string) *State {
	return &State{
		Phase:          PhaseInit,
		Slots:          make(map[string]*SlotRecord),
		ConversationID: conversationID,
	}
}

// Clone creates a deep copy of the state for safe mutation or storage.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	next := *s
	next.QueuedTasks = append([]string(nil), s.QueuedTasks...)
	next.Slots = make(map[string]*SlotRecord, len(s.Slots))
	for name, rec := range s.Slots {
		copied := *rec
		next.Slots[name] = &copied
	}
	if s.PendingNormalization != nil {
		next.PendingNormalization = make(map[string]string, len(s.PendingNormalization))
		for name, proposed := range s.PendingNormalization {
			next.PendingNormalization[name] = proposed
		}
	}
	return &next
}

// ConfirmedSlots returns the confirmed slot values as a plain mapping.
func (s *State) ConfirmedSlots() map[string]string {
	out := make(map[string]string)
	for name, rec := range s.Slots {
		if rec.Confirmed {
			out[name] = rec.Value
		}
	}
	return out
}
