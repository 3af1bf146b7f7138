package hostfuncs

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/middle-dev/middle-sdk/domain/entities"
	"github.com/middle-dev/middle-sdk/domain/ports"
	"github.com/middle-dev/middle-sdk/resumable"
)

// PromptBroker serves host_prompt. Answers are cached per (run, ordinal) so a
// replayed workflow sees the answer its earlier attempt received, and every
// answer is checked against the schema the guest sent.
type PromptBroker struct {
	prompter  ports.Prompter
	validator ports.SchemaValidator

	mu      sync.Mutex
	answers map[callKey]entities.PromptAnswer
}

// NewPromptBroker creates a broker. validator may be nil to skip checking.
func NewPromptBroker(prompter ports.Prompter, validator ports.SchemaValidator) *PromptBroker {
	return &PromptBroker{
		prompter:  prompter,
		validator: validator,
		answers:   make(map[callKey]entities.PromptAnswer),
	}
}

// Prompt answers one prompt call.
func (b *PromptBroker) Prompt(ctx context.Context, in entities.PromptIn) resumable.Resumable[entities.PromptAnswer] {
	runID, ordinal := "", 0
	if run := RunFrom(ctx); run != nil {
		runID, ordinal = run.ID, run.nextPrompt()
	}
	key := callKey{run: runID, ordinal: ordinal}

	b.mu.Lock()
	cached, ok := b.answers[key]
	b.mu.Unlock()
	if ok {
		return resumable.Ready(cached)
	}

	value, ready, err := b.prompter.Prompt(ctx, in.Schema)
	if err != nil {
		return b.store(key, entities.PromptAnswer{Error: err.Error()})
	}
	if !ready {
		return resumable.Pause[entities.PromptAnswer]()
	}

	if b.validator != nil {
		result, err := b.validator.Validate(in.Schema, value)
		if err != nil {
			return b.store(key, entities.PromptAnswer{Error: err.Error()})
		}
		if !result.Valid {
			return b.store(key, entities.PromptAnswer{Error: describe(result)})
		}
	}
	return b.store(key, entities.PromptAnswer{Value: value})
}

// Forget drops the cached answers of run.
func (b *PromptBroker) Forget(run string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for key := range b.answers {
		if key.run == run {
			delete(b.answers, key)
		}
	}
}

func (b *PromptBroker) store(key callKey, ans entities.PromptAnswer) resumable.Resumable[entities.PromptAnswer] {
	b.mu.Lock()
	b.answers[key] = ans
	b.mu.Unlock()
	return resumable.Ready(ans)
}

func describe(result *entities.ValidationResult) string {
	parts := make([]string, 0, len(result.Errors))
	for _, e := range result.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return "answer does not match schema: " + strings.Join(parts, "; ")
}
