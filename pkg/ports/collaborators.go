package ports

import "context"

// IntentDetector classifies a user utterance into a task name.
// An empty string means no task intent was detected. Errors are treated by
// the orchestrator as "no result"; they never fail a turn.
type IntentDetector interface {
	DetectIntent(ctx context.Context, utterance string) (string, error)
}

// SlotSelector returns the slot names an utterance might answer, for the
// active task, excluding slots already filled. The result may be empty and
// must never include a filled slot.
type SlotSelector interface {
	SelectSlots(ctx context.Context, utterance, task string, filled []string) ([]string, error)
}

// SlotExtractor extracts a verbatim value span for one slot from the
// utterance. An empty string means no value was found; the extractor must
// never paraphrase.
type SlotExtractor interface {
	ExtractSlot(ctx context.Context, utterance, slot, task string) (string, error)
}

// Normalizer converts ambiguous raw values (relative dates, vague times)
// into concrete candidates. A candidate is only ever adopted after explicit
// user confirmation.
type Normalizer interface {
	// NeedsConfirmation reports whether the raw value is ambiguous enough
	// to require a normalization round.
	NeedsConfirmation(ctx context.Context, slot, raw string) bool

	// Normalize proposes a concrete replacement for the raw value.
	// An empty string means no proposal could be made.
	Normalize(ctx context.Context, slot, raw, task string) (string, error)
}
