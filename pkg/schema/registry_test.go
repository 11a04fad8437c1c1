package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parley-dev/parley/pkg/domain"
)

func TestBuiltinCatalog(t *testing.T) {
	r := Builtin()

	assert.Equal(t, []string{
		"request_time_off",
		"schedule_meeting",
		"submit_it_ticket",
		"file_medical_claim",
	}, r.Tasks())

	order, err := r.SlotOrder("request_time_off")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"employee_name", "start_date", "end_date",
		"time_off_type", "reason", "notify_manager",
	}, order)

	prompt, err := r.Prompt("request_time_off", "employee_name")
	require.NoError(t, err)
	assert.NotEmpty(t, prompt)
}

func TestRegistryUnknownLookups(t *testing.T) {
	r := Builtin()

	_, err := r.Task("order_pizza")
	assert.ErrorIs(t, err, domain.ErrUnknownTask)

	_, err = r.SlotOrder("order_pizza")
	assert.ErrorIs(t, err, domain.ErrUnknownTask)

	_, err = r.Prompt("request_time_off", "favorite_color")
	assert.ErrorIs(t, err, domain.ErrUnknownSlot)

	assert.False(t, r.Has("order_pizza"))
	assert.True(t, r.Has("schedule_meeting"))
}

func TestNewRegistryValidation(t *testing.T) {
	t.Run("rejects duplicate task names", func(t *testing.T) {
		_, err := NewRegistry(
			Task{Name: "a", Slots: []Slot{{Name: "x", Prompt: "?"}}},
			Task{Name: "a", Slots: []Slot{{Name: "y", Prompt: "?"}}},
		)
		assert.Error(t, err)
	})

	t.Run("rejects duplicate slot names within a task", func(t *testing.T) {
		_, err := NewRegistry(Task{Name: "a", Slots: []Slot{
			{Name: "x", Prompt: "?"},
			{Name: "x", Prompt: "again?"},
		}})
		assert.Error(t, err)
	})

	t.Run("rejects a task with no slots", func(t *testing.T) {
		_, err := NewRegistry(Task{Name: "a"})
		assert.Error(t, err)
	})
}
