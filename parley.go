package parley

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/parley-dev/parley/internal/runtime"
	"github.com/parley-dev/parley/pkg/adapters/memory"
	"github.com/parley-dev/parley/pkg/domain"
	"github.com/parley-dev/parley/pkg/machine"
	"github.com/parley-dev/parley/pkg/nlu"
	"github.com/parley-dev/parley/pkg/ports"
	"github.com/parley-dev/parley/pkg/schema"
	"github.com/parley-dev/parley/pkg/session"
)

// Engine is the high-level entry point for the Parley library.
// It wires the task registry, the turn orchestrator, the language
// collaborators, and the persistence layer behind one conversation API.
type Engine struct {
	registry   *schema.Registry
	store      ports.StateStore
	sessions   *session.Manager
	runtime    *runtime.Engine
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	locker     ports.DistributedLocker
	detector   ports.IntentDetector
	selector   ports.SlotSelector
	extractor  ports.SlotExtractor
	normalizer ports.Normalizer
	clock      func() time.Time
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithStore injects a persistence adapter. Defaults to the in-memory store.
func WithStore(store ports.StateStore) Option {
	return func(e *Engine) { e.store = store }
}

// WithLocker enables distributed locking for multi-replica deployments.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) { e.locker = locker }
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) { e.hooks = hooks }
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithIntentDetector replaces the built-in rule-based intent detector.
func WithIntentDetector(d ports.IntentDetector) Option {
	return func(e *Engine) { e.detector = d }
}

// WithSlotSelector replaces the built-in slot selector.
func WithSlotSelector(s ports.SlotSelector) Option {
	return func(e *Engine) { e.selector = s }
}

// WithSlotExtractor replaces the built-in slot extractor.
func WithSlotExtractor(x ports.SlotExtractor) Option {
	return func(e *Engine) { e.extractor = x }
}

// WithNormalizer replaces the built-in value normalizer.
func WithNormalizer(n ports.Normalizer) Option {
	return func(e *Engine) { e.normalizer = n }
}

// WithClock injects the time source. Useful for deterministic tests and
// for normalizers that resolve relative dates.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.clock = now }
}

// New initializes a Parley Engine over a task registry.
// A nil registry selects the built-in HR task catalog. Collaborators and
// storage not overridden by options fall back to the rule-based built-ins
// and the in-memory store.
func New(registry *schema.Registry, opts ...Option) (*Engine, error) {
	eng := &Engine{
		registry: registry,
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.registry == nil {
		eng.registry = schema.Builtin()
	}
	if eng.store == nil {
		eng.store = memory.NewStore()
	}
	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if eng.detector == nil {
		eng.detector = nlu.NewDetector()
	}
	if eng.selector == nil {
		eng.selector = nlu.NewSelector(eng.registry)
	}
	if eng.extractor == nil {
		eng.extractor = nlu.NewExtractor()
	}
	if eng.normalizer == nil {
		eng.normalizer = nlu.NewNormalizer(nlu.WithNormalizerClock(eng.clock))
	}

	sessionOpts := []session.Option{session.WithLogger(eng.logger)}
	if eng.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(eng.locker))
	}
	eng.sessions = session.NewManager(eng.store, sessionOpts...)

	eng.runtime = runtime.NewEngine(
		eng.registry,
		runtime.WithIntentDetector(eng.detector),
		runtime.WithSlotSelector(eng.selector),
		runtime.WithSlotExtractor(eng.extractor),
		runtime.WithNormalizer(eng.normalizer),
		runtime.WithLogger(eng.logger),
		runtime.WithHooks(eng.hooks),
		runtime.WithClock(eng.clock),
	)

	return eng, nil
}

// Registry exposes the task catalog the engine was built with.
func (e *Engine) Registry() *schema.Registry {
	return e.registry
}

// StartConversation creates a fresh conversation and returns its ID.
func (e *Engine) StartConversation(ctx context.Context) (string, error) {
	id := session.NewConversationID()
	if _, err := e.sessions.LoadOrStart(ctx, id); err != nil {
		return "", err
	}
	return id, nil
}

// ProcessTurn consumes one user utterance for a conversation and returns
// the next semantic action. The turn is atomic: state is loaded (or
// created), mutated, and persisted under the per-conversation lock. An
// error means the turn did not commit; conversational failures never
// surface here, they come back as TurnResult variants.
func (e *Engine) ProcessTurn(ctx context.Context, conversationID, utterance string) (domain.TurnResult, error) {
	var result domain.TurnResult
	err := e.sessions.WithLock(ctx, conversationID, func(ctx context.Context) error {
		state, err := e.loadOrCreate(ctx, conversationID)
		if err != nil {
			return err
		}

		m := machine.Attach(e.registry, state, machine.WithClock(e.clock))
		result = e.runtime.ProcessTurn(ctx, m, utterance)

		if err := e.store.Save(ctx, conversationID, m.State()); err != nil {
			return fmt.Errorf("failed to persist turn: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ExecuteFunc performs the side-effecting work of a confirmed task.
type ExecuteFunc func(ctx context.Context, task string, slots map[string]string) error

// Execute drives the execution phases around the caller's side effect:
// READY_TO_EXECUTE moves to EXECUTING_ACTION, do runs, and on success the
// action completes, dequeuing any queued task. If do fails, the
// conversation returns to READY_TO_EXECUTE so the user can retry.
func (e *Engine) Execute(ctx context.Context, conversationID string, do ExecuteFunc) error {
	return e.sessions.WithLock(ctx, conversationID, func(ctx context.Context) error {
		state, err := e.store.Load(ctx, conversationID)
		if err != nil {
			return err
		}

		m := machine.Attach(e.registry, state, machine.WithClock(e.clock))
		task := m.ActiveTask()
		if !m.StartExecution() {
			return fmt.Errorf("conversation %s is not ready to execute", conversationID)
		}

		if err := do(ctx, task, m.ConfirmedSlots()); err != nil {
			// The EXECUTING_ACTION phase was never persisted; the stored
			// state is still READY_TO_EXECUTE, so the user can retry.
			return fmt.Errorf("action execution failed: %w", err)
		}

		m.CompleteAction()
		e.emitActionExecuted(ctx, conversationID, task)

		if err := e.store.Save(ctx, conversationID, m.State()); err != nil {
			return fmt.Errorf("failed to persist execution: %w", err)
		}
		return nil
	})
}

// Conversation returns the persisted state of one conversation.
func (e *Engine) Conversation(ctx context.Context, conversationID string) (*domain.State, error) {
	return e.sessions.Load(ctx, conversationID)
}

// Conversations lists the IDs of all persisted conversations.
func (e *Engine) Conversations(ctx context.Context) ([]string, error) {
	return e.sessions.List(ctx)
}

// EndConversation terminates and persists the conversation; it remains
// loadable (in its sink state) until deleted.
func (e *Engine) EndConversation(ctx context.Context, conversationID string) error {
	return e.sessions.WithLock(ctx, conversationID, func(ctx context.Context) error {
		state, err := e.store.Load(ctx, conversationID)
		if err != nil {
			return err
		}
		m := machine.Attach(e.registry, state, machine.WithClock(e.clock))
		m.Terminate()
		return e.store.Save(ctx, conversationID, m.State())
	})
}

// DeleteConversation removes the conversation from storage.
func (e *Engine) DeleteConversation(ctx context.Context, conversationID string) error {
	return e.sessions.Delete(ctx, conversationID)
}

func (e *Engine) loadOrCreate(ctx context.Context, conversationID string) (*domain.State, error) {
	state, err := e.store.Load(ctx, conversationID)
	if err == nil {
		return state, nil
	}
	if err != domain.ErrSessionNotFound {
		return nil, err
	}
	return domain.NewState(conversationID), nil
}

func (e *Engine) emitActionExecuted(ctx context.Context, conversationID, task string) {
	if e.hooks.OnActionExecuted == nil {
		return
	}
	e.hooks.OnActionExecuted(ctx, &domain.TaskEvent{
		EventBase: domain.EventBase{
			Timestamp:      e.clock(),
			Type:           domain.EventActionExecuted,
			ConversationID: conversationID,
		},
		Task: task,
	})
}
