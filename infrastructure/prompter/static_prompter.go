package prompter

import (
	"context"
	"sync"
)

// StaticPrompter serves pre-seeded answers in order. Once they run out every
// prompt stays pending.
type StaticPrompter struct {
	mu      sync.Mutex
	answers []any
	next    int
}

// NewStaticPrompter creates a StaticPrompter over answers.
func NewStaticPrompter(answers ...any) *StaticPrompter {
	return &StaticPrompter{answers: append([]any(nil), answers...)}
}

// IsInteractive always returns false.
func (p *StaticPrompter) IsInteractive() bool {
	return false
}

// Prompt returns the next unused answer.
func (p *StaticPrompter) Prompt(_ context.Context, _ map[string]any) (any, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.next >= len(p.answers) {
		return nil, false, nil
	}
	v := p.answers[p.next]
	p.next++
	return v, true, nil
}

// Remaining reports how many answers have not been served.
func (p *StaticPrompter) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.answers) - p.next
}
