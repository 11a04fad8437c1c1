// Package machine implements the per-conversation dialogue state machine.
//
// A Machine owns exactly one domain.State and exposes atomic, invariant
// preserving mutations: confirmed slots are never overwritten, retries are
// bounded, slot requests follow schema order, and competing tasks are queued
// rather than interrupting the active one. All operations are synchronous
// and total; invariant violations are reported as boolean returns, never as
// errors or panics.
package machine

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/parley-dev/parley/pkg/domain"
	"github.com/parley-dev/parley/pkg/schema"
)

// MaxRetries is the per-slot attempt bound. IncrementRetry reports false
// once the counter reaches it; the caller must give up on the slot.
const MaxRetries = 3

// Machine drives the phase transitions and slot memory of one conversation.
// It is single-writer: callers must serialize access per conversation.
type Machine struct {
	state    *domain.State
	registry *schema.Registry
	now      func() time.Time
}

// Option configures a Machine.
type Option func(*Machine)

// WithClock injects the time source used for LastUpdated stamps.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		m.now = now
	}
}

// New creates a machine with a fresh state at phase INIT.
func New(registry *schema.Registry, conversationID string, opts ...Option) *Machine {
	m := &Machine{
		state:    domain.NewState(conversationID),
		registry: registry,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Attach wraps an existing state (typically loaded from a store).
func Attach(registry *schema.Registry, state *domain.State, opts ...Option) *Machine {
	m := New(registry, state.ConversationID, opts...)
	m.state = state
	if m.state.Slots == nil {
		m.state.Slots = make(map[string]*domain.SlotRecord)
	}
	return m
}

// State returns the underlying state. Callers must treat it as read-only;
// all mutation goes through the machine's operations.
func (m *Machine) State() *domain.State { return m.state }

// Phase returns the current phase.
func (m *Machine) Phase() domain.Phase { return m.state.Phase }

// ActiveTask returns the active task name, or "" if none.
func (m *Machine) ActiveTask() string { return m.state.ActiveTask }

// QueuedTasks returns a copy of the pending task queue.
func (m *Machine) QueuedTasks() []string {
	return append([]string(nil), m.state.QueuedTasks...)
}

// ConfirmedSlots returns the confirmed slot values as a plain mapping.
func (m *Machine) ConfirmedSlots() map[string]string {
	return m.state.ConfirmedSlots()
}

// CurrentSlot returns the slot currently being collected, or "".
func (m *Machine) CurrentSlot() string { return m.state.SlotBeingCollected }

func (m *Machine) touch() {
	m.state.LastUpdated = m.now()
}

func (m *Machine) transitionTo(next domain.Phase) {
	m.state.Phase = next
	m.touch()
}

// SetActiveTask activates a task, or queues it when another task is in
// progress. Activation resets the slot namespace; this is the sole entry
// point that starts a task and the sole reset point for slot memory.
// Returns false when the task was queued (or the conversation is terminated).
func (m *Machine) SetActiveTask(name string) bool {
	if m.state.Phase.Terminal() {
		return false
	}
	if m.state.Phase.TaskInProgress() {
		for _, queued := range m.state.QueuedTasks {
			if queued == name {
				return false // already queued, position preserved
			}
		}
		m.state.QueuedTasks = append(m.state.QueuedTasks, name)
		m.touch()
		return false
	}

	m.state.ActiveTask = name
	m.state.Slots = make(map[string]*domain.SlotRecord)
	m.state.SlotBeingCollected = ""
	m.state.PendingNormalization = nil
	m.transitionTo(domain.PhaseCollectingSlot)
	return true
}

// SetGeneralChat clears the active task and moves to GENERAL_CHAT.
func (m *Machine) SetGeneralChat() {
	if m.state.Phase.Terminal() {
		return
	}
	m.state.ActiveTask = ""
	m.transitionTo(domain.PhaseGeneralChat)
}

// FillSlot creates or replaces the record for a slot, preserving any retry
// count already accumulated. It never overwrites a confirmed slot: in that
// case it returns false and performs no mutation.
func (m *Machine) FillSlot(name, value string, confirmed bool) bool {
	if m.state.Phase.Terminal() {
		return false
	}
	retries := 0
	if existing, ok := m.state.Slots[name]; ok {
		if existing.Confirmed {
			return false
		}
		retries = existing.RetryCount
	}
	m.state.Slots[name] = &domain.SlotRecord{
		Value:      value,
		Confirmed:  confirmed,
		RetryCount: retries,
	}
	m.touch()
	return true
}

// ConfirmSlot marks a slot record confirmed. If the record carries a
// normalization candidate awaiting confirmation, the candidate becomes the
// value. Any pending-normalization entry for the slot is cleared.
// Returns false if the slot has no record yet.
func (m *Machine) ConfirmSlot(name string) bool {
	if m.state.Phase.Terminal() {
		return false
	}
	rec, ok := m.state.Slots[name]
	if !ok {
		return false
	}
	if rec.AwaitingNormalizationConfirmation && rec.NormalizedCandidate != "" {
		rec.Value = rec.NormalizedCandidate
	}
	rec.Confirmed = true
	rec.NormalizedCandidate = ""
	rec.AwaitingNormalizationConfirmation = false
	m.clearPending(name)
	m.touch()
	return true
}

// RejectNormalization discards the proposed candidate for a slot, keeping
// the raw value and confirmation state untouched.
func (m *Machine) RejectNormalization(name string) {
	if m.state.Phase.Terminal() {
		return
	}
	if rec, ok := m.state.Slots[name]; ok {
		rec.NormalizedCandidate = ""
		rec.AwaitingNormalizationConfirmation = false
	}
	m.clearPending(name)
	m.touch()
}

func (m *Machine) clearPending(name string) {
	delete(m.state.PendingNormalization, name)
	if len(m.state.PendingNormalization) == 0 {
		m.state.PendingNormalization = nil
	}
}

// SetPendingNormalization records a proposed replacement value for a slot.
// The container accepts multiple entries, but by design proposals are
// surfaced to the user one at a time, in schema order (see Pending).
func (m *Machine) SetPendingNormalization(name, proposed string) {
	if m.state.Phase.Terminal() {
		return
	}
	if m.state.PendingNormalization == nil {
		m.state.PendingNormalization = make(map[string]string)
	}
	m.state.PendingNormalization[name] = proposed
	if rec, ok := m.state.Slots[name]; ok {
		rec.NormalizedCandidate = proposed
		rec.AwaitingNormalizationConfirmation = true
	}
	m.touch()
}

// Pending returns the first pending normalization proposal in schema order.
func (m *Machine) Pending() (slot, proposed string, ok bool) {
	if len(m.state.PendingNormalization) == 0 || m.state.ActiveTask == "" {
		return "", "", false
	}
	order, err := m.registry.SlotOrder(m.state.ActiveTask)
	if err != nil {
		return "", "", false
	}
	for _, name := range order {
		if p, exists := m.state.PendingNormalization[name]; exists {
			return name, p, true
		}
	}
	return "", "", false
}

// PendingSlots returns all slots with pending proposals, in schema order.
func (m *Machine) PendingSlots() []string {
	if len(m.state.PendingNormalization) == 0 || m.state.ActiveTask == "" {
		return nil
	}
	order, err := m.registry.SlotOrder(m.state.ActiveTask)
	if err != nil {
		return nil
	}
	var out []string
	for _, name := range order {
		if _, exists := m.state.PendingNormalization[name]; exists {
			out = append(out, name)
		}
	}
	return out
}

// HasPendingNormalization reports whether any proposal awaits resolution.
func (m *Machine) HasPendingNormalization() bool {
	return len(m.state.PendingNormalization) > 0
}

// IncrementRetry bumps the retry counter for a slot, creating an empty
// unconfirmed record if none exists yet. It reports true while attempts
// remain and false once MaxRetries is reached; false means the caller must
// give up on this slot.
func (m *Machine) IncrementRetry(name string) bool {
	if m.state.Phase.Terminal() {
		return false
	}
	rec, ok := m.state.Slots[name]
	if !ok {
		rec = &domain.SlotRecord{}
		m.state.Slots[name] = rec
	}
	rec.RetryCount++
	m.touch()
	return rec.RetryCount < MaxRetries
}

// SetCurrentSlot records which slot is being collected ("" to clear).
func (m *Machine) SetCurrentSlot(name string) {
	if m.state.Phase.Terminal() {
		return
	}
	m.state.SlotBeingCollected = name
	m.touch()
}

// NextMissingSlot returns the first slot in schema order without a
// confirmed record, or "" when every slot is confirmed.
func (m *Machine) NextMissingSlot(task string) string {
	order, err := m.registry.SlotOrder(task)
	if err != nil {
		return ""
	}
	for _, name := range order {
		if rec, ok := m.state.Slots[name]; !ok || !rec.Confirmed {
			return name
		}
	}
	return ""
}

// NextCollectibleSlot is NextMissingSlot restricted to slots that still
// have retry attempts left. A slot whose retries are exhausted is skipped
// permanently for this task instance; it is never auto-filled.
func (m *Machine) NextCollectibleSlot(task string) string {
	order, err := m.registry.SlotOrder(task)
	if err != nil {
		return ""
	}
	for _, name := range order {
		rec, ok := m.state.Slots[name]
		if ok && (rec.Confirmed || rec.RetryCount >= MaxRetries) {
			continue
		}
		return name
	}
	return ""
}

// AllSlotsConfirmed reports whether every schema slot has a confirmed record.
func (m *Machine) AllSlotsConfirmed(task string) bool {
	if task == "" {
		return false
	}
	order, err := m.registry.SlotOrder(task)
	if err != nil {
		return false
	}
	for _, name := range order {
		rec, ok := m.state.Slots[name]
		if !ok || !rec.Confirmed {
			return false
		}
	}
	return true
}

// StartExecution moves READY_TO_EXECUTE to EXECUTING_ACTION.
// It is a no-op from any other phase.
func (m *Machine) StartExecution() bool {
	if m.state.Phase != domain.PhaseReadyToExecute {
		return false
	}
	m.transitionTo(domain.PhaseExecutingAction)
	return true
}

// CompleteAction marks the action completed and immediately evaluates
// queued-task dequeuing.
func (m *Machine) CompleteAction() {
	if m.state.Phase.Terminal() {
		return
	}
	m.transitionTo(domain.PhaseCompleted)
	m.Advance()
}

// Terminate forces the conversation into its sink state. No further phase
// changes or mutations are permitted afterwards.
func (m *Machine) Terminate() {
	m.transitionTo(domain.PhaseTerminated)
}

// Snapshot serializes the full state as JSON. The round trip through
// Restore is exact.
func (m *Machine) Snapshot() ([]byte, error) {
	data, err := json.Marshal(m.state)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state: %w", err)
	}
	return data, nil
}

// Restore replaces the machine's state with a previously taken snapshot.
func (m *Machine) Restore(blob []byte) error {
	var state domain.State
	if err := json.Unmarshal(blob, &state); err != nil {
		return fmt.Errorf("failed to unmarshal state: %w", err)
	}
	if state.Slots == nil {
		state.Slots = make(map[string]*domain.SlotRecord)
	}
	m.state = &state
	return nil
}
