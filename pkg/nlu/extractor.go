package nlu

import (
	"context"
	"regexp"
	"strings"
)

var (
	nameIntro    = regexp.MustCompile(`(?i)(?:i am|my name is|this is|call me|i'm)\s+([A-Za-z\s.\-']{2,50})`)
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
		regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`),
		regexp.MustCompile(`(?i)\b(?:next\s+|this\s+|last\s+)?(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`),
		regexp.MustCompile(`(?i)\b(?:tomorrow|today|yesterday|next week|this week)\b`),
		regexp.MustCompile(`(?i)\b(?:january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2}\b`),
	}
	timePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b\d{1,2}:\d{2}\s*(?:am|pm)\b`),
		regexp.MustCompile(`\b\d{1,2}:\d{2}\b`),
		regexp.MustCompile(`(?i)\b(?:morning|afternoon|evening|noon|midnight)\b`),
	}
	emailPattern   = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	amountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\$\d+(?:\.\d{2})?`),
		regexp.MustCompile(`(?i)\b\d+(?:\.\d{2})?\s*(?:dollars?|usd)\b`),
	}
	affirmPattern = regexp.MustCompile(`(?i)\b(yes|yeah|yep|sure|ok|okay)\b`)
	negatePattern = regexp.MustCompile(`(?i)\b(no|nope|nah|don't|do not)\b`)
)

// skipPhrases are utterances that read as non-answers; the extractor never
// treats them as a direct value.
var skipPhrases = []string{"i don't know", "not sure", "maybe", "i think"}

// Extractor finds verbatim value spans by slot-type pattern matching.
// It extracts, never generates: if the answer is not present in the
// utterance, it returns "".
type Extractor struct{}

// NewExtractor creates the rule-based extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractSlot extracts a value for the slot from the utterance.
// The slot name's vocabulary (name/date/time/email/amount/notify) picks the
// pattern family; short utterances fall back to a direct-answer heuristic.
func (e *Extractor) ExtractSlot(ctx context.Context, utterance, slot, task string) (string, error) {
	trimmed := strings.TrimSpace(utterance)
	if trimmed == "" {
		return "", nil
	}
	lowerSlot := strings.ToLower(slot)

	switch {
	case strings.Contains(lowerSlot, "name"):
		if v := extractName(trimmed); v != "" {
			return v, nil
		}

	case strings.Contains(lowerSlot, "date"):
		for _, p := range datePatterns {
			if m := p.FindString(trimmed); m != "" {
				return m, nil
			}
		}

	case strings.Contains(lowerSlot, "time"):
		for _, p := range timePatterns {
			if m := p.FindString(trimmed); m != "" {
				return m, nil
			}
		}

	case strings.Contains(lowerSlot, "email"):
		if m := emailPattern.FindString(trimmed); m != "" {
			return m, nil
		}

	case strings.Contains(lowerSlot, "amount"):
		for _, p := range amountPatterns {
			if m := p.FindString(trimmed); m != "" {
				return m, nil
			}
		}

	case strings.Contains(lowerSlot, "notify"):
		if affirmPattern.MatchString(trimmed) {
			return "yes", nil
		}
		if negatePattern.MatchString(trimmed) {
			return "no", nil
		}
		return "", nil
	}

	return directAnswer(trimmed), nil
}

// extractName pulls a person's name, either from an introduction phrase or
// from a short name-shaped utterance.
func extractName(utterance string) string {
	if m := nameIntro.FindStringSubmatch(utterance); m != nil {
		name := strings.TrimSpace(m[1])
		if len(strings.Fields(name)) <= 3 {
			return titleCase(name)
		}
	}
	if len(strings.Fields(utterance)) <= 3 && len(utterance) < 50 && namelike.MatchString(utterance) {
		return titleCase(utterance)
	}
	return ""
}

// directAnswer treats a short utterance as the answer itself, unless it
// reads as a non-answer.
func directAnswer(utterance string) string {
	if len(utterance) >= 100 || len(strings.Fields(utterance)) > 5 {
		return ""
	}
	lower := strings.ToLower(utterance)
	for _, phrase := range skipPhrases {
		if strings.Contains(lower, phrase) {
			return ""
		}
	}
	return utterance
}

func titleCase(s string) string {
	words := strings.Fields(strings.TrimSpace(s))
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
