/*
Package parley is a task-oriented dialogue orchestrator: given a registry
of tasks (multi-slot forms filled through conversation), it drives a
conversation from intent detection through slot collection, value
normalization, confirmation, and execution, while queueing competing
intents and persisting progress across turns.

# Concept

Each conversation is a small state machine. The engine owns the phase
transitions and slot memory; pluggable collaborators (intent detector,
slot selector, slot extractor, normalizer) own the language
understanding. This hexagonal split keeps the orchestration deterministic
and testable while collaborators can range from the built-in rule engines
to remote ML services.

# Key Properties

  - Confirmed slot values are never overwritten.
  - Collection attempts per slot are bounded; an exhausted slot is skipped.
  - Slots are requested one at a time, in schema order.
  - A task detected while another is in progress is queued, not lost.
  - Every turn commits an exact, restorable snapshot of the conversation.

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/parley-dev/parley"
	)

	func main() {
		eng, err := parley.New(nil) // built-in HR task catalog
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()
		id, err := eng.StartConversation(ctx)
		if err != nil {
			log.Fatal(err)
		}

		result, err := eng.ProcessTurn(ctx, id, "I need to request time off")
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%#v\n", result) // parley asks for the first slot

		// Switch on the concrete TurnResult type to render each action,
		// and call eng.Execute once the user confirms execution.
	}
*/
package parley
