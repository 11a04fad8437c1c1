// Package runtime implements the turn orchestrator: the component that
// reads the conversation's phase, consults the pluggable language
// collaborators, and issues the state machine the mutations their output
// implies. It owns no state of its own; the machine is the single source
// of truth and the orchestrator never bypasses it to infer phase.
package runtime

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/parley-dev/parley/internal/logging"
	"github.com/parley-dev/parley/pkg/domain"
	"github.com/parley-dev/parley/pkg/machine"
	"github.com/parley-dev/parley/pkg/ports"
	"github.com/parley-dev/parley/pkg/schema"
)

// Engine processes one utterance per call against a conversation's state
// machine. Collaborators are injected at construction; a nil collaborator
// behaves as one that never produces a result, so every turn degrades
// gracefully instead of failing.
type Engine struct {
	registry   *schema.Registry
	detector   ports.IntentDetector
	selector   ports.SlotSelector
	extractor  ports.SlotExtractor
	normalizer ports.Normalizer
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithIntentDetector sets the intent detection collaborator.
func WithIntentDetector(d ports.IntentDetector) Option {
	return func(e *Engine) { e.detector = d }
}

// WithSlotSelector sets the slot applicability collaborator.
func WithSlotSelector(s ports.SlotSelector) Option {
	return func(e *Engine) { e.selector = s }
}

// WithSlotExtractor sets the value extraction collaborator.
func WithSlotExtractor(x ports.SlotExtractor) Option {
	return func(e *Engine) { e.extractor = x }
}

// WithNormalizer sets the value normalization collaborator.
func WithNormalizer(n ports.Normalizer) Option {
	return func(e *Engine) { e.normalizer = n }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithHooks sets the lifecycle callbacks.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(e *Engine) { e.hooks = h }
}

// WithClock sets the time source used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an orchestrator over the given schema registry.
func NewEngine(registry *schema.Registry, opts ...Option) *Engine {
	e := &Engine{
		registry: registry,
		logger:   logging.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ProcessTurn consumes one user utterance and returns the next semantic
// action for the caller to render. The turn is atomic with respect to the
// machine: whatever mutation occurred before a collaborator failure is
// kept, and the result degrades to a safe fallback rather than an error.
func (e *Engine) ProcessTurn(ctx context.Context, m *machine.Machine, utterance string) domain.TurnResult {
	before := m.Phase()
	e.emitTurnStart(ctx, m)

	result := e.dispatch(ctx, m, strings.TrimSpace(utterance))

	if after := m.Phase(); after != before {
		e.emitPhaseChange(ctx, m, before, after)
	}
	e.emitTurnEnd(ctx, m, result)
	return result
}

func (e *Engine) dispatch(ctx context.Context, m *machine.Machine, utterance string) domain.TurnResult {
	if utterance == "" {
		return domain.Clarify{}
	}

	switch m.Phase() {
	case domain.PhaseTerminated:
		return domain.Terminated{}

	case domain.PhaseInit, domain.PhaseGeneralChat:
		return e.handleIntent(ctx, m, utterance)

	case domain.PhaseConfirmingNormalization:
		return e.handleNormalizationReply(ctx, m, utterance)

	case domain.PhaseCollectingSlot:
		return e.collectSlots(ctx, m, utterance)

	case domain.PhaseReadyToExecute:
		if matchesExecutionConfirmation(utterance) {
			return domain.ExecuteAction{Task: m.ActiveTask(), Slots: m.ConfirmedSlots()}
		}
		// Anything else is treated as late slot input (a correction or a
		// volunteered refinement), not as a refusal.
		return e.collectSlots(ctx, m, utterance)

	case domain.PhaseExecutingAction:
		return domain.Processing{}

	default:
		e.logger.Error("unhandled phase", "phase", m.Phase())
		return domain.ErrorResult{Reason: "unhandled conversation phase"}
	}
}

// handleIntent runs intent detection from the non-task phases. A detected
// task either activates (clean slot namespace, first question asked) or
// queues behind the active one; no detection means general chat.
func (e *Engine) handleIntent(ctx context.Context, m *machine.Machine, utterance string) domain.TurnResult {
	task := e.detectIntent(ctx, utterance)
	if task == "" {
		if m.Phase() == domain.PhaseInit {
			m.SetGeneralChat()
		}
		return domain.GeneralChat{Utterance: utterance}
	}

	if !e.registry.Has(task) {
		// The detector named a task the registry does not know. That is a
		// configuration fault, not a conversational one.
		e.logger.Error("detected task missing from registry", "task", task)
		return domain.ErrorResult{Reason: "unknown task: " + task}
	}

	if !m.SetActiveTask(task) {
		e.emitTaskQueued(ctx, m, task)
		return domain.IntentQueued{Task: task, Position: queuePosition(m, task)}
	}

	e.emitTaskStarted(ctx, m, task)
	return e.askNext(ctx, m)
}

// askNext advances the machine and requests the next collectible slot, or
// reports readiness when none remain.
func (e *Engine) askNext(ctx context.Context, m *machine.Machine) domain.TurnResult {
	m.Advance()
	task := m.ActiveTask()

	switch m.Phase() {
	case domain.PhaseReadyToExecute:
		m.SetCurrentSlot("")
		return domain.ReadyToExecute{Task: task}
	case domain.PhaseConfirmingNormalization:
		return e.reaskPending(m)
	}

	next := m.NextCollectibleSlot(task)
	if next == "" {
		// Every remaining slot has exhausted its attempts; close out
		// collection and offer execution with what was gathered.
		m.FinishCollection()
		return domain.ReadyToExecute{Task: task}
	}

	m.SetCurrentSlot(next)
	prompt, err := e.registry.Prompt(task, next)
	if err != nil {
		e.logger.Error("prompt lookup failed", "task", task, "slot", next, "err", err)
		return domain.ErrorResult{Reason: "no prompt for slot " + next}
	}
	return domain.AskSlot{Task: task, Slot: next, Prompt: prompt}
}

func queuePosition(m *machine.Machine, task string) int {
	for i, queued := range m.QueuedTasks() {
		if queued == task {
			return i + 1
		}
	}
	return 0
}

// detectIntent wraps the collaborator; failure and absence both read as
// "no intent".
func (e *Engine) detectIntent(ctx context.Context, utterance string) string {
	if e.detector == nil {
		return ""
	}
	task, err := e.detector.DetectIntent(ctx, utterance)
	if err != nil {
		e.logger.Warn("intent detection failed", "err", err)
		return ""
	}
	return task
}

func (e *Engine) selectSlots(ctx context.Context, utterance, task string, filled []string) []string {
	if e.selector == nil {
		return nil
	}
	slots, err := e.selector.SelectSlots(ctx, utterance, task, filled)
	if err != nil {
		e.logger.Warn("slot selection failed", "task", task, "err", err)
		return nil
	}
	return slots
}

func (e *Engine) extractValue(ctx context.Context, utterance, slot, task string) string {
	if e.extractor == nil {
		return ""
	}
	value, err := e.extractor.ExtractSlot(ctx, utterance, slot, task)
	if err != nil {
		e.logger.Warn("slot extraction failed", "task", task, "slot", slot, "err", err)
		return ""
	}
	return value
}

// proposeNormalization asks the normalizer whether the raw value is
// ambiguous and, if so, for a concrete candidate. A failed or absent
// normalizer means the raw value stands as-is.
func (e *Engine) proposeNormalization(ctx context.Context, slot, raw, task string) (string, bool) {
	if e.normalizer == nil {
		return "", false
	}
	if !e.normalizer.NeedsConfirmation(ctx, slot, raw) {
		return "", false
	}
	proposed, err := e.normalizer.Normalize(ctx, slot, raw, task)
	if err != nil {
		e.logger.Warn("normalization failed", "task", task, "slot", slot, "err", err)
		return "", false
	}
	if proposed == "" || proposed == raw {
		return "", false
	}
	return proposed, true
}
