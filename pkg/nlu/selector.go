package nlu

import (
	"context"
	"regexp"
	"strings"

	"github.com/parley-dev/parley/pkg/schema"
)

var namelike = regexp.MustCompile(`^[A-Za-z\s.\-']{2,50}$`)

// Selector decides which slots an utterance might answer, by keyword
// matching against per-slot cue words. It only considers the task's own
// unfilled slots: it never returns a filled slot and never invents one.
type Selector struct {
	registry *schema.Registry
	keywords map[string][]string
}

// NewSelector creates a selector over a registry with the built-in cue table.
func NewSelector(registry *schema.Registry) *Selector {
	return &Selector{registry: registry, keywords: builtinSlotKeywords()}
}

// SelectSlots returns the subset of the task's unfilled slots whose cue
// words appear in the utterance, in schema order. Short name-like
// utterances additionally match any unfilled *_name slot.
func (s *Selector) SelectSlots(ctx context.Context, utterance, task string, filled []string) ([]string, error) {
	order, err := s.registry.SlotOrder(task)
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(utterance)
	lower := strings.ToLower(trimmed)
	if lower == "" {
		return nil, nil
	}

	filledSet := make(map[string]bool, len(filled))
	for _, name := range filled {
		filledSet[name] = true
	}

	looksLikeName := len(strings.Fields(trimmed)) <= 3 && len(trimmed) < 50 && namelike.MatchString(trimmed)

	var selected []string
	for _, slot := range order {
		if filledSet[slot] {
			continue
		}
		// Short utterances that look like a person's name answer name
		// slots even without cue words.
		if looksLikeName && strings.Contains(slot, "name") {
			selected = append(selected, slot)
			continue
		}
		for _, cue := range s.keywords[slot] {
			if strings.Contains(lower, cue) {
				selected = append(selected, slot)
				break
			}
		}
	}
	return selected, nil
}

func builtinSlotKeywords() map[string][]string {
	return map[string][]string{
		"employee_name":     {"my name", "i am", "this is", "i'm", "call me"},
		"requester_name":    {"my name", "i am", "this is", "i'm", "call me"},
		"organizer_name":    {"my name", "i am", "i'm organizing", "i'm", "call me"},
		"start_date":        {"start", "begin", "from", "starting"},
		"end_date":          {"end", "until", "return", "back", "ending"},
		"date":              {"date", "when", "day"},
		"incident_date":     {"occurred", "happened", "incident"},
		"start_time":        {"start", "begin", "at", "from"},
		"end_time":          {"end", "until", "finish"},
		"time_off_type":     {"vacation", "sick", "personal", "pto"},
		"reason":            {"because", "reason", "why"},
		"notify_manager":    {"notify", "manager", "supervisor"},
		"participants":      {"participants", "attendees", "people", "with"},
		"meeting_platform":  {"zoom", "teams", "google meet", "platform"},
		"agenda":            {"agenda", "topic", "discuss", "about"},
		"issue_category":    {"category", "hardware", "software", "network"},
		"issue_description": {"problem", "issue", "broken", "not working", "error"},
		"urgency":           {"urgent", "urgency", "priority", "critical"},
		"affected_system":   {"system", "application", "tool"},
		"contact_email":     {"email", "contact", "@"},
		"provider_name":     {"provider", "doctor", "hospital", "clinic"},
		"claim_amount":      {"amount", "cost", "price", "$", "dollar"},
		"claim_type":        {"visit", "prescription", "procedure"},
		"description":       {"description", "details", "explain"},
	}
}
