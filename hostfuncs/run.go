package hostfuncs

import (
	"context"
	"strings"
	"sync"

	"github.com/middle-dev/middle-sdk/domain/entities"
)

// DefaultMaxOutputSize caps the console output kept per run (1MB).
const DefaultMaxOutputSize = 1 * 1024 * 1024

// Run is the host-side state of one workflow run across its attempts.
//
// A paused workflow is re-invoked from the start, so each attempt issues the
// same pause and prompt calls in the same order. The per-attempt ordinal of a
// call is therefore a stable key for its answer.
type Run struct {
	ID string

	mu        sync.Mutex
	attempt   int
	pauseOrd  int
	promptOrd int
	printOrd  int
	printed   int
	output    *BoundedBuffer
	faults    []entities.PanicReport
}

// NewRun creates run state. outputLimit <= 0 uses DefaultMaxOutputSize.
func NewRun(id string, outputLimit int) *Run {
	if outputLimit <= 0 {
		outputLimit = DefaultMaxOutputSize
	}
	return &Run{ID: id, output: NewBoundedBuffer(outputLimit)}
}

// BeginAttempt starts a new attempt and resets the call ordinals.
func (r *Run) BeginAttempt() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempt++
	r.pauseOrd = 0
	r.promptOrd = 0
	r.printOrd = 0
	return r.attempt
}

// Attempt returns the current attempt number, starting at 1.
func (r *Run) Attempt() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempt
}

// nextPause returns the ordinal of the next pause call in this attempt.
func (r *Run) nextPause() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.pauseOrd
	r.pauseOrd++
	return n
}

// nextPrompt returns the ordinal of the next prompt call in this attempt.
func (r *Run) nextPrompt() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := r.promptOrd
	r.promptOrd++
	return n
}

// appendOutput records a console line and reports whether it is new.
// Replayed attempts print the same lines again; only lines beyond what
// earlier attempts produced are recorded.
func (r *Run) appendOutput(line string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	ord := r.printOrd
	r.printOrd++
	if ord < r.printed {
		return false
	}
	r.printed = ord + 1
	_, _ = r.output.Write([]byte(line))
	if !strings.HasSuffix(line, "\n") {
		_, _ = r.output.Write([]byte{'\n'})
	}
	return true
}

// Output returns the console output collected so far.
func (r *Run) Output() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.output.String()
}

// OutputTruncated reports whether output exceeded the limit.
func (r *Run) OutputTruncated() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.output.Truncated
}

func (r *Run) addFault(report entities.PanicReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.faults = append(r.faults, report)
}

// Faults returns the fault reports received during the run.
func (r *Run) Faults() []entities.PanicReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entities.PanicReport, len(r.faults))
	copy(out, r.faults)
	return out
}

type runKey struct{}

// WithRun returns a context carrying run.
func WithRun(ctx context.Context, run *Run) context.Context {
	return context.WithValue(ctx, runKey{}, run)
}

// RunFrom returns the run carried by ctx, or nil.
func RunFrom(ctx context.Context) *Run {
	run, _ := ctx.Value(runKey{}).(*Run)
	return run
}
