package nlu

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSlot(t *testing.T) {
	e := NewExtractor()
	ctx := context.Background()

	cases := []struct {
		name      string
		utterance string
		slot      string
		want      string
	}{
		{"name from introduction", "hi, my name is john smith", "employee_name", "John Smith"},
		{"bare name", "alice", "employee_name", "Alice"},
		{"iso date", "I'll be out from 2025-03-10", "start_date", "2025-03-10"},
		{"relative date", "next monday works", "start_date", "next monday"},
		{"clock time", "let's meet at 3:30 pm", "start_time", "3:30 pm"},
		{"vague time", "sometime in the morning", "start_time", "morning"},
		{"email", "reach me at jane@example.com", "contact_email", "jane@example.com"},
		{"dollar amount", "the bill was $150.00 total", "claim_amount", "$150.00"},
		{"spelled-out amount", "around 250 dollars", "claim_amount", "250 dollars"},
		{"notify affirmative", "yes please", "notify_manager", "yes"},
		{"notify negative", "no thanks", "notify_manager", "no"},
		{"notify unparseable", "whatever you think", "notify_manager", ""},
		{"direct short answer", "family emergency", "reason", "family emergency"},
		{"non-answer is skipped", "I don't know", "reason", ""},
		{"rambling answer is skipped", "well honestly it is kind of a long story", "reason", ""},
		{"empty utterance", "   ", "reason", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := e.ExtractSlot(ctx, tc.utterance, tc.slot, "request_time_off")
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExtractNameRejectsLongIntroductions(t *testing.T) {
	e := NewExtractor()

	// An introduction phrase followed by more than a name should not be
	// swallowed whole; with no name match the short-answer fallback applies.
	got, err := e.ExtractSlot(context.Background(), "my name is whatever you want it to be today honestly", "employee_name", "request_time_off")
	require.NoError(t, err)
	assert.Empty(t, got)
}
