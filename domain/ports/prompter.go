package ports

import "context"

// Prompter collects values for host_prompt.
type Prompter interface {
	// IsInteractive returns true if running in an interactive terminal.
	IsInteractive() bool

	// Prompt asks for a value matching schema. ready is false when no answer
	// is available yet and the guest should pause.
	Prompt(ctx context.Context, schema map[string]any) (value any, ready bool, err error)
}
