package domain

// ActionKind identifies a TurnResult variant.
type ActionKind string

const (
	ActionAskSlot              ActionKind = "ask_slot"
	ActionRetrySlot            ActionKind = "retry_slot"
	ActionReadyToExecute       ActionKind = "ready_to_execute"
	ActionConfirmNormalization ActionKind = "confirm_normalization"
	ActionExecuteAction        ActionKind = "execute_action"
	ActionGeneralChat          ActionKind = "general_chat"
	ActionIntentQueued         ActionKind = "intent_queued"
	ActionClarify              ActionKind = "clarify"
	ActionTerminated           ActionKind = "terminated"
	ActionProcessing           ActionKind = "processing"
	ActionError                ActionKind = "error"
)

// TurnResult is the structured outcome of processing one user utterance.
// It is a closed union: exactly one concrete type exists per ActionKind,
// each carrying only the fields relevant to that action. The host switches
// on the concrete type to render the turn.
type TurnResult interface {
	Kind() ActionKind

	// turnResult restricts implementations to this package.
	turnResult()
}

// AskSlot requests the value for a single slot from the user.
type AskSlot struct {
	Task   string `json:"task"`
	Slot   string `json:"slot"`
	Prompt string `json:"prompt"`
}

// RetrySlot re-requests a slot after a failed collection attempt.
type RetrySlot struct {
	Task    string `json:"task"`
	Slot    string `json:"slot"`
	Prompt  string `json:"prompt"`
	Attempt int    `json:"attempt"`
}

// ReadyToExecute signals that slot collection is complete and the engine
// awaits an execution confirmation.
type ReadyToExecute struct {
	Task string `json:"task"`
}

// ConfirmNormalization asks the user to accept or reject a proposed
// replacement for an ambiguous slot value.
type ConfirmNormalization struct {
	Task     string `json:"task"`
	Slot     string `json:"slot"`
	Raw      string `json:"raw"`
	Proposed string `json:"proposed"`
}

// ExecuteAction hands the confirmed task and its slot values to the caller
// for side-effecting execution. The caller drives BeginExecution and
// CompleteExecution around the actual work.
type ExecuteAction struct {
	Task  string            `json:"task"`
	Slots map[string]string `json:"slots"`
}

// GeneralChat signals a non-task utterance; response text is left to the host.
type GeneralChat struct {
	Utterance string `json:"utterance"`
}

// IntentQueued signals that a detected task was queued behind the active one.
type IntentQueued struct {
	Task     string `json:"task"`
	Position int    `json:"position"`
}

// Clarify asks the user to repeat an empty or unusable utterance.
type Clarify struct{}

// Terminated signals that the conversation has reached its sink state.
type Terminated struct{}

// Processing is the neutral fallback when no other action applies.
type Processing struct{}

// ErrorResult reports a configuration-level failure (e.g. a collaborator
// naming a task missing from the registry). Conversational failures never
// produce this; they degrade to Clarify or RetrySlot.
type ErrorResult struct {
	Reason string `json:"reason"`
}

func (AskSlot) Kind() ActionKind              { return ActionAskSlot }
func (RetrySlot) Kind() ActionKind            { return ActionRetrySlot }
func (ReadyToExecute) Kind() ActionKind       { return ActionReadyToExecute }
func (ConfirmNormalization) Kind() ActionKind { return ActionConfirmNormalization }
func (ExecuteAction) Kind() ActionKind        { return ActionExecuteAction }
func (GeneralChat) Kind() ActionKind          { return ActionGeneralChat }
func (IntentQueued) Kind() ActionKind         { return ActionIntentQueued }
func (Clarify) Kind() ActionKind              { return ActionClarify }
func (Terminated) Kind() ActionKind           { return ActionTerminated }
func (Processing) Kind() ActionKind           { return ActionProcessing }
func (ErrorResult) Kind() ActionKind          { return ActionError }

func (AskSlot) turnResult()              {}
func (RetrySlot) turnResult()            {}
func (ReadyToExecute) turnResult()       {}
func (ConfirmNormalization) turnResult() {}
func (ExecuteAction) turnResult()        {}
func (GeneralChat) turnResult()          {}
func (IntentQueued) turnResult()         {}
func (Clarify) turnResult()              {}
func (Terminated) turnResult()           {}
func (Processing) turnResult()           {}
func (ErrorResult) turnResult()          {}
