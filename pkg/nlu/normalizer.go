package nlu

import (
	"context"
	"strings"
	"time"
)

var relativeDateWords = []string{
	"tomorrow", "today", "yesterday",
	"next monday", "next tuesday", "next wednesday", "next thursday",
	"next friday", "next saturday", "next sunday",
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
	"next week", "this week",
}

var vagueTimeWords = map[string]string{
	"morning":   "09:00",
	"afternoon": "14:00",
	"evening":   "18:00",
	"noon":      "12:00",
	"midnight":  "00:00",
}

var weekdayNums = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// Normalizer resolves relative dates and vague times into canonical forms.
// Dates are anchored on the injected clock so tests stay deterministic.
type Normalizer struct {
	now func() time.Time
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithNormalizerClock overrides the clock used to anchor relative dates.
func WithNormalizerClock(now func() time.Time) NormalizerOption {
	return func(n *Normalizer) { n.now = now }
}

// NewNormalizer creates a rule-based normalizer anchored on the wall clock.
func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{now: time.Now}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NeedsConfirmation reports whether a raw value is ambiguous enough that the
// resolved form should be echoed back to the user before it is trusted.
func (n *Normalizer) NeedsConfirmation(ctx context.Context, slot, raw string) bool {
	lowerRaw := strings.ToLower(strings.TrimSpace(raw))
	lowerSlot := strings.ToLower(slot)

	if strings.Contains(lowerSlot, "date") {
		for _, w := range relativeDateWords {
			if strings.Contains(lowerRaw, w) {
				return true
			}
		}
	}
	if strings.Contains(lowerSlot, "time") && !strings.Contains(lowerSlot, "time_off") {
		if _, ok := vagueTimeWords[lowerRaw]; ok {
			return true
		}
	}
	return false
}

// Normalize resolves raw into a canonical value: relative dates become
// YYYY-MM-DD, vague times become HH:MM. Values it cannot resolve pass
// through unchanged.
func (n *Normalizer) Normalize(ctx context.Context, slot, raw, task string) (string, error) {
	lowerRaw := strings.ToLower(strings.TrimSpace(raw))
	lowerSlot := strings.ToLower(slot)

	if strings.Contains(lowerSlot, "date") {
		if v := n.normalizeDate(lowerRaw); v != "" {
			return v, nil
		}
	}
	if strings.Contains(lowerSlot, "time") && !strings.Contains(lowerSlot, "time_off") {
		if v, ok := vagueTimeWords[lowerRaw]; ok {
			return v, nil
		}
	}
	return raw, nil
}

func (n *Normalizer) normalizeDate(lowerRaw string) string {
	today := n.now()
	switch lowerRaw {
	case "today":
		return today.Format("2006-01-02")
	case "tomorrow":
		return today.AddDate(0, 0, 1).Format("2006-01-02")
	case "yesterday":
		return today.AddDate(0, 0, -1).Format("2006-01-02")
	}

	hasNext := strings.HasPrefix(lowerRaw, "next ")
	dayWord := strings.TrimPrefix(lowerRaw, "next ")
	dayWord = strings.TrimPrefix(dayWord, "this ")
	if target, ok := weekdayNums[dayWord]; ok {
		ahead := int(target) - int(today.Weekday())
		if ahead <= 0 {
			ahead += 7
		}
		if hasNext {
			ahead += 7
		}
		return today.AddDate(0, 0, ahead).Format("2006-01-02")
	}
	return ""
}
