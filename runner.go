package parley

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/parley-dev/parley/pkg/domain"
)

// Runner handles the interactive conversation loop using provided IO.
// This allows for easy testing and integration with different frontends
// (CLI, TUI, messaging bridges).
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Renderer ContentRenderer
	// OnExecute performs the side effect of a confirmed task. When nil,
	// executions are acknowledged without doing anything.
	OnExecute ExecuteFunc
}

// ContentRenderer transforms response text before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the
// core package to a terminal library.
type ContentRenderer func(string) (string, error)

// NewRunner creates a Runner. Input and Output must be set before Run
// (typically os.Stdin and os.Stdout).
func NewRunner() *Runner {
	return &Runner{}
}

// Run executes the conversation loop until the user exits or the
// conversation terminates.
func (r *Runner) Run(ctx context.Context, engine *Engine) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	lineReader := bufio.NewReader(r.Input)

	conversationID, err := engine.StartConversation(ctx)
	if err != nil {
		return fmt.Errorf("failed to start conversation: %w", err)
	}

	r.print("Hello! How can I help you today? (type 'exit' to quit)")

	for {
		fmt.Fprint(r.Output, "> ")
		text, err := lineReader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("input error: %w", err)
		}
		input := strings.TrimSpace(text)

		if input == "exit" || input == "quit" {
			if err := engine.EndConversation(ctx, conversationID); err != nil {
				return fmt.Errorf("failed to end conversation: %w", err)
			}
			r.print("Goodbye!")
			break
		}

		result, err := engine.ProcessTurn(ctx, conversationID, input)
		if err != nil {
			return fmt.Errorf("turn failed: %w", err)
		}

		r.print(r.renderResult(result))

		switch result.(type) {
		case domain.ExecuteAction:
			if err := engine.Execute(ctx, conversationID, r.execute); err != nil {
				r.print(fmt.Sprintf("Sorry, that didn't go through: %v", err))
				continue
			}
			r.print("Done! Anything else I can help with?")
		case domain.Terminated:
			return nil
		}
	}
	return nil
}

func (r *Runner) execute(ctx context.Context, task string, slots map[string]string) error {
	if r.OnExecute == nil {
		return nil
	}
	return r.OnExecute(ctx, task, slots)
}

// renderResult turns a semantic action into user-facing text. Hosts with
// their own presentation layer switch on the TurnResult type instead.
func (r *Runner) renderResult(result domain.TurnResult) string {
	switch res := result.(type) {
	case domain.AskSlot:
		return res.Prompt
	case domain.RetrySlot:
		return fmt.Sprintf("Sorry, I didn't catch that. %s", res.Prompt)
	case domain.ReadyToExecute:
		return fmt.Sprintf("I have everything I need for %s. Shall I go ahead?", humanizeTask(res.Task))
	case domain.ConfirmNormalization:
		return fmt.Sprintf("I understood %q as %q. Is that correct?", res.Raw, res.Proposed)
	case domain.ExecuteAction:
		return fmt.Sprintf("Submitting %s...", humanizeTask(res.Task))
	case domain.GeneralChat:
		return "I can help with time off requests, meetings, IT tickets, and medical claims. What would you like to do?"
	case domain.IntentQueued:
		return fmt.Sprintf("Got it, I'll take care of %s right after we finish this one.", humanizeTask(res.Task))
	case domain.Clarify:
		return "Could you say that again?"
	case domain.Terminated:
		return "This conversation has ended."
	case domain.Processing:
		return "One moment, still working on it..."
	case domain.ErrorResult:
		return "Something went wrong on our side. Please try again."
	default:
		return ""
	}
}

func (r *Runner) print(msg string) {
	if msg == "" {
		return
	}
	if r.Renderer != nil {
		if rendered, err := r.Renderer(msg); err == nil {
			msg = rendered
		}
	}
	fmt.Fprintln(r.Output, strings.TrimSpace(msg))
}

func humanizeTask(task string) string {
	return strings.ReplaceAll(task, "_", " ")
}
