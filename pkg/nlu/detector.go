package nlu

import (
	"context"
	"regexp"
	"strings"
)

// detectionThreshold is the minimum score before an intent is reported,
// to avoid false positives on weak keyword overlap.
const detectionThreshold = 2.0

// Rule contributes a weighted score when any of its keywords or patterns
// match the utterance.
type Rule struct {
	Keywords []string
	Patterns []*regexp.Regexp
	Weight   float64
}

// Detector is a weighted keyword/pattern intent classifier.
// It returns exactly one task name, or "" when no clear task intent exists.
type Detector struct {
	rules map[string][]Rule
}

// NewDetector creates a detector with the built-in HR task rules.
func NewDetector() *Detector {
	return NewDetectorWithRules(builtinIntentRules())
}

// NewDetectorWithRules creates a detector from a custom rule table,
// keyed by task name.
func NewDetectorWithRules(rules map[string][]Rule) *Detector {
	return &Detector{rules: rules}
}

// DetectIntent scores every task's rules against the utterance and returns
// the best one if it clears the threshold. Ties resolve to the
// lexicographically smallest task name so detection stays deterministic.
func (d *Detector) DetectIntent(ctx context.Context, utterance string) (string, error) {
	lower := strings.ToLower(utterance)
	if strings.TrimSpace(lower) == "" {
		return "", nil
	}

	best := ""
	bestScore := 0.0
	for task, rules := range d.rules {
		score := 0.0
		for _, rule := range rules {
			for _, kw := range rule.Keywords {
				if strings.Contains(lower, kw) {
					score += rule.Weight
				}
			}
			for _, p := range rule.Patterns {
				if p.MatchString(lower) {
					score += rule.Weight
				}
			}
		}
		if score > bestScore || (score == bestScore && score > 0 && task < best) {
			best = task
			bestScore = score
		}
	}

	if bestScore >= detectionThreshold {
		return best, nil
	}
	return "", nil
}

func builtinIntentRules() map[string][]Rule {
	return map[string][]Rule{
		"request_time_off": {
			{Keywords: []string{"time off", "vacation", "leave", "day off", "pto", "sick leave", "personal day"}, Weight: 3},
			{Keywords: []string{"request", "need", "want", "take"}, Weight: 1},
			{Patterns: []*regexp.Regexp{
				regexp.MustCompile(`\b(off|leave|vacation)\b`),
				regexp.MustCompile(`\b(tomorrow|next week|monday|friday)\b`),
			}, Weight: 2},
		},
		"schedule_meeting": {
			{Keywords: []string{"meeting", "schedule", "book", "calendar", "appointment"}, Weight: 3},
			{Keywords: []string{"set up", "arrange", "organize"}, Weight: 2},
			{Patterns: []*regexp.Regexp{
				regexp.MustCompile(`\b(meeting|appointment)\b`),
				regexp.MustCompile(`\b(schedule|book|set)\b`),
			}, Weight: 2},
		},
		"submit_it_ticket": {
			{Keywords: []string{"it ticket", "it issue", "technical", "computer", "laptop", "software", "hardware"}, Weight: 3},
			{Keywords: []string{"problem", "broken", "not working", "error", "bug"}, Weight: 2},
			{Keywords: []string{"submit", "file", "report"}, Weight: 1},
			{Patterns: []*regexp.Regexp{
				regexp.MustCompile(`\b(it|tech|technical)\b.*\b(issue|problem|ticket)\b`),
			}, Weight: 3},
		},
		"file_medical_claim": {
			{Keywords: []string{"medical claim", "health insurance", "doctor", "hospital", "prescription"}, Weight: 3},
			{Keywords: []string{"claim", "reimbursement", "medical expense"}, Weight: 2},
			{Keywords: []string{"file", "submit", "process"}, Weight: 1},
			{Patterns: []*regexp.Regexp{
				regexp.MustCompile(`\b(medical|health)\b.*\b(claim|expense)\b`),
			}, Weight: 3},
		},
	}
}
