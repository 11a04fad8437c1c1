/*
Package domain contains the core domain models for the Parley engine.

It defines the fundamental entities of the dialogue state machine: the
conversation Phase, per-slot records, the session State snapshot, the
TurnResult vocabulary returned by the orchestrator, and lifecycle events.
This package is kept pure and free of external dependencies like I/O or
persistence, following Hexagonal Architecture principles.

# Key Entities

  - Phase: The discrete stage of progress through a task or non-task conversation.
  - SlotRecord: A collected slot value with confirmation and retry metadata.
  - State: The runtime snapshot of one conversation (phase, active task, queue, slots).
  - TurnResult: A closed set of structured actions the host renders or executes.
*/
package domain
