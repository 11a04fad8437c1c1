// Package schema holds the immutable task schema registry: one entry per
// supported task, each an ordered sequence of slot definitions. The slot
// order is significant; it is the default collection sequence.
package schema

import (
	"fmt"

	"github.com/parley-dev/parley/pkg/domain"
)

// Slot defines a single named datum required by a task.
type Slot struct {
	Name   string `yaml:"name"`
	Prompt string `yaml:"prompt"`
}

// Delivery describes where the executed action should be routed
// (e.g. a Slack channel or an SMS number). The core only carries it;
// actual delivery is the host's concern.
type Delivery struct {
	Channel string `mapstructure:"channel"`
	Target  string `mapstructure:"target"`
}

// Task defines a named unit of work and its ordered slots.
type Task struct {
	Name     string    `yaml:"name"`
	Slots    []Slot    `yaml:"slots"`
	Delivery *Delivery `yaml:"-"`
}

// SlotNames returns the slot names in schema order.
func (t Task) SlotNames() []string {
	names := make([]string, len(t.Slots))
	for i, s := range t.Slots {
		names[i] = s.Name
	}
	return names
}

// Registry is the immutable task schema registry. It is fixed at startup
// and safe for unsynchronized concurrent reads.
type Registry struct {
	tasks map[string]Task
	order []string
}

// NewRegistry builds a registry from task definitions, validating that task
// names are unique and every task has at least one uniquely named slot with
// a prompt.
func NewRegistry(tasks ...Task) (*Registry, error) {
	r := &Registry{tasks: make(map[string]Task, len(tasks))}
	for _, t := range tasks {
		if t.Name == "" {
			return nil, fmt.Errorf("task with empty name")
		}
		if _, dup := r.tasks[t.Name]; dup {
			return nil, fmt.Errorf("duplicate task %q", t.Name)
		}
		if len(t.Slots) == 0 {
			return nil, fmt.Errorf("task %q has no slots", t.Name)
		}
		seen := make(map[string]bool, len(t.Slots))
		for _, s := range t.Slots {
			if s.Name == "" {
				return nil, fmt.Errorf("task %q has a slot with empty name", t.Name)
			}
			if seen[s.Name] {
				return nil, fmt.Errorf("task %q has duplicate slot %q", t.Name, s.Name)
			}
			if s.Prompt == "" {
				return nil, fmt.Errorf("task %q slot %q has no prompt", t.Name, s.Name)
			}
			seen[s.Name] = true
		}
		r.tasks[t.Name] = t
		r.order = append(r.order, t.Name)
	}
	return r, nil
}

// Task returns the schema for a task name.
func (r *Registry) Task(name string) (Task, error) {
	t, ok := r.tasks[name]
	if !ok {
		return Task{}, fmt.Errorf("%w: %q", domain.ErrUnknownTask, name)
	}
	return t, nil
}

// Has reports whether the task is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.tasks[name]
	return ok
}

// Tasks returns all task names in registration order.
func (r *Registry) Tasks() []string {
	return append([]string(nil), r.order...)
}

// SlotOrder returns the ordered slot names for a task.
func (r *Registry) SlotOrder(task string) ([]string, error) {
	t, err := r.Task(task)
	if err != nil {
		return nil, err
	}
	return t.SlotNames(), nil
}

// Prompt returns the question string for a slot of a task.
func (r *Registry) Prompt(task, slot string) (string, error) {
	t, err := r.Task(task)
	if err != nil {
		return "", err
	}
	for _, s := range t.Slots {
		if s.Name == slot {
			return s.Prompt, nil
		}
	}
	return "", fmt.Errorf("%w: %q has no slot %q", domain.ErrUnknownSlot, task, slot)
}
