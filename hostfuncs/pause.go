package hostfuncs

import (
	"context"
	"sync"
	"time"
)

type callKey struct {
	run     string
	ordinal int
}

// PauseStore tracks the timers behind host_pause. The first time a call site
// asks, its deadline is fixed; later attempts of the same run get true once
// the deadline has passed.
type PauseStore struct {
	mu        sync.Mutex
	now       func() time.Time
	deadlines map[callKey]time.Time
}

// PauseOption configures a PauseStore.
type PauseOption func(*PauseStore)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) PauseOption {
	return func(s *PauseStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewPauseStore creates an empty store.
func NewPauseStore(opts ...PauseOption) *PauseStore {
	s := &PauseStore{now: time.Now, deadlines: make(map[callKey]time.Time)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Elapsed reports whether the pause at (run, ordinal) of length d is over.
// A zero pause is over immediately.
func (s *PauseStore) Elapsed(run string, ordinal int, d time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	key := callKey{run: run, ordinal: ordinal}
	deadline, ok := s.deadlines[key]
	if !ok {
		deadline = now.Add(d)
		s.deadlines[key] = deadline
	}
	return !now.Before(deadline)
}

// NextDeadline returns the earliest deadline of run still in the future.
func (s *PauseStore) NextDeadline(run string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var (
		next  time.Time
		found bool
	)
	for key, deadline := range s.deadlines {
		if key.run != run || !deadline.After(now) {
			continue
		}
		if !found || deadline.Before(next) {
			next, found = deadline, true
		}
	}
	return next, found
}

// Forget drops every timer of run.
func (s *PauseStore) Forget(run string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.deadlines {
		if key.run == run {
			delete(s.deadlines, key)
		}
	}
}

// Pause serves host_pause for the run carried by ctx.
func (s *PauseStore) Pause(ctx context.Context, millis uint64) bool {
	runID, ordinal := "", 0
	if run := RunFrom(ctx); run != nil {
		runID, ordinal = run.ID, run.nextPause()
	}
	return s.Elapsed(runID, ordinal, time.Duration(millis)*time.Millisecond)
}
