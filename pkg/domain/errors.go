package domain

import "errors"

// ErrSessionNotFound is returned when a conversation ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrUnknownTask is returned by schema accessors for a task name that is not
// registered. This signals a configuration error, not a conversational one.
var ErrUnknownTask = errors.New("unknown task")

// ErrUnknownSlot is returned by schema accessors for a slot name that does
// not belong to the task's schema.
var ErrUnknownSlot = errors.New("unknown slot")
