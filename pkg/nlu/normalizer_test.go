package nlu

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedNormalizer anchors on Wednesday 2025-01-08.
func fixedNormalizer() *Normalizer {
	anchor := time.Date(2025, time.January, 8, 10, 0, 0, 0, time.UTC)
	return NewNormalizer(WithNormalizerClock(func() time.Time { return anchor }))
}

func TestNormalizeDates(t *testing.T) {
	n := fixedNormalizer()
	ctx := context.Background()

	cases := []struct {
		raw  string
		want string
	}{
		{"today", "2025-01-08"},
		{"tomorrow", "2025-01-09"},
		{"yesterday", "2025-01-07"},
		{"friday", "2025-01-10"},
		{"this friday", "2025-01-10"},
		{"monday", "2025-01-13"},
		// "next <weekday>" means the occurrence in the following week,
		// one past the nearest upcoming one.
		{"next monday", "2025-01-20"},
		// A weekday matching the anchor day resolves a full week out.
		{"wednesday", "2025-01-15"},
		{"Next Friday", "2025-01-17"},
		// Already-canonical values pass through unchanged.
		{"2025-03-10", "2025-03-10"},
		{"gibberish", "gibberish"},
	}

	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := n.Normalize(ctx, "start_date", tc.raw, "request_time_off")
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizeVagueTimes(t *testing.T) {
	n := fixedNormalizer()
	ctx := context.Background()

	for raw, want := range map[string]string{
		"morning":   "09:00",
		"afternoon": "14:00",
		"evening":   "18:00",
		"noon":      "12:00",
		"midnight":  "00:00",
	} {
		got, err := n.Normalize(ctx, "start_time", raw, "schedule_meeting")
		require.NoError(t, err)
		assert.Equal(t, want, got, "raw %q", raw)
	}

	// Precise times pass through.
	got, err := n.Normalize(ctx, "start_time", "14:30", "schedule_meeting")
	require.NoError(t, err)
	assert.Equal(t, "14:30", got)
}

func TestNeedsConfirmation(t *testing.T) {
	n := fixedNormalizer()
	ctx := context.Background()

	assert.True(t, n.NeedsConfirmation(ctx, "start_date", "next monday"))
	assert.True(t, n.NeedsConfirmation(ctx, "end_date", "tomorrow"))
	assert.True(t, n.NeedsConfirmation(ctx, "start_time", "morning"))

	assert.False(t, n.NeedsConfirmation(ctx, "start_date", "2025-03-10"))
	assert.False(t, n.NeedsConfirmation(ctx, "start_time", "3:30 pm"))
	assert.False(t, n.NeedsConfirmation(ctx, "reason", "tomorrow"))
	// A vague-time word answering a non-time slot needs no confirmation,
	// and time_off_type does not count as a time slot.
	assert.False(t, n.NeedsConfirmation(ctx, "time_off_type", "morning"))
}
