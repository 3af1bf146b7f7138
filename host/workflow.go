package host

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/middle-dev/middle-sdk/application/codec"
	"github.com/middle-dev/middle-sdk/hostfuncs"
	"github.com/middle-dev/middle-sdk/resumable"
)

// ErrStillPaused is returned when a workflow is still paused after the
// configured number of attempts.
var ErrStillPaused = stderrors.New("workflow still paused")

// Step runs one attempt of a workflow under run. A Ready result carries the
// encoded Output Envelope.
func (m *Module) Step(ctx context.Context, run *hostfuncs.Run, name string, input []byte) (resumable.Resumable[msgpack.RawMessage], error) {
	fn, err := m.lookup(name)
	if err != nil {
		return resumable.Pause[msgpack.RawMessage](), err
	}
	if !fn.Workflow {
		return resumable.Pause[msgpack.RawMessage](), fmt.Errorf("%s is not a workflow", fn.Name)
	}

	run.BeginAttempt()
	payload, err := m.CallRaw(hostfuncs.WithRun(ctx, run), fn.Export, input)
	if err != nil {
		return resumable.Pause[msgpack.RawMessage](), err
	}

	var frame resumable.Resumable[msgpack.RawMessage]
	if err := codec.Decode(payload, &frame); err != nil {
		return resumable.Pause[msgpack.RawMessage](), err
	}
	return frame, nil
}

// RunWorkflow re-invokes a workflow until it is Ready. Between attempts it
// waits until the run's next pause deadline, or the poll interval when the
// workflow waits on something other than a timer.
func (m *Module) RunWorkflow(ctx context.Context, name string, input any) (*Result, error) {
	data, err := encodeInput(input)
	if err != nil {
		return nil, err
	}

	cfg := m.exec.cfg.Workflow
	run := m.exec.newRun()
	defer m.exec.services.Forget(run.ID)

	for {
		step, err := m.Step(ctx, run, name, data)
		if err != nil {
			return nil, err
		}
		if payload, ok := step.Get(); ok {
			return &Result{Payload: payload, Output: run.Output(), Attempts: run.Attempt()}, nil
		}
		if run.Attempt() >= cfg.MaxAttempts {
			return nil, fmt.Errorf("%s after %d attempts: %w", name, run.Attempt(), ErrStillPaused)
		}

		wait := cfg.PollInterval
		if deadline, ok := m.exec.services.Pauses.NextDeadline(run.ID); ok {
			wait = time.Until(deadline)
		}
		m.exec.logger.DebugContext(ctx, "workflow paused",
			"function", name, "run", run.ID, "attempt", run.Attempt(), "wait", wait)

		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
