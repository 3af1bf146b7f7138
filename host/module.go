package host

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/middle-dev/middle-sdk/application/codec"
	"github.com/middle-dev/middle-sdk/application/entry"
	"github.com/middle-dev/middle-sdk/domain/entities"
	"github.com/middle-dev/middle-sdk/domain/errors"
	"github.com/middle-dev/middle-sdk/hostfuncs"
)

// Function is an entry point a guest exports.
type Function struct {
	Name       string `json:"name"`
	Workflow   bool   `json:"workflow"`
	Export     string `json:"export"`
	InfoExport string `json:"info_export"`
}

// Result is the outcome of a function call or a finished workflow.
type Result struct {
	// Payload is the encoded Output Envelope.
	Payload []byte
	// Output is the console output of the run.
	Output string
	// Attempts is how many times the entry point ran.
	Attempts int
}

// Decode decodes the Output Envelope into out.
func (r *Result) Decode(out any) error {
	return codec.Decode(r.Payload, out)
}

// Envelope decodes the Output Envelope into its generic form.
func (r *Result) Envelope() (map[string]any, error) {
	var env map[string]any
	if err := r.Decode(&env); err != nil {
		return nil, err
	}
	return env, nil
}

// Module is a loaded guest. Calls into one module are serialized.
type Module struct {
	exec  *Executor
	guest guest

	mu        sync.Mutex
	functions []Function
}

func newModule(e *Executor, g guest) *Module {
	return &Module{exec: e, guest: g, functions: discover(g.exports())}
}

// discover pairs invocation exports with their introspection exports.
func discover(exports []string) []Function {
	have := make(map[string]bool, len(exports))
	for _, name := range exports {
		have[name] = true
	}

	var fns []Function
	for _, name := range exports {
		var fn Function
		switch {
		case strings.HasPrefix(name, entry.FunctionPrefix):
			base := strings.TrimPrefix(name, entry.FunctionPrefix)
			fn = Function{Name: base, Export: name, InfoExport: entry.FunctionInfoPrefix + base}
		case strings.HasPrefix(name, entry.WorkflowPrefix):
			base := strings.TrimPrefix(name, entry.WorkflowPrefix)
			fn = Function{Name: base, Workflow: true, Export: name, InfoExport: entry.WorkflowInfoPrefix + base}
		default:
			continue
		}
		if have[fn.InfoExport] {
			fns = append(fns, fn)
		}
	}
	sort.Slice(fns, func(i, j int) bool { return fns[i].Name < fns[j].Name })
	return fns
}

// Functions lists the module's entry points by name.
func (m *Module) Functions() []Function {
	out := make([]Function, len(m.functions))
	copy(out, m.functions)
	return out
}

// Lookup finds a function by name or by either of its export names.
func (m *Module) Lookup(name string) (Function, bool) {
	for _, fn := range m.functions {
		if fn.Name == name || fn.Export == name || fn.InfoExport == name {
			return fn, true
		}
	}
	return Function{}, false
}

// Close releases the guest instance.
func (m *Module) Close(ctx context.Context) error {
	return m.guest.close(ctx)
}

// Info calls the introspection export of name.
func (m *Module) Info(ctx context.Context, name string) (entities.FnInfo, error) {
	var info entities.FnInfo

	fn, err := m.lookup(name)
	if err != nil {
		return info, err
	}

	run := m.exec.newRun()
	defer m.exec.services.Forget(run.ID)
	run.BeginAttempt()
	ctx = hostfuncs.WithRun(ctx, run)

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.guest.info(ctx, fn.InfoExport)
	if err != nil {
		return info, err
	}
	payload, err := m.result(ctx, run, fn.InfoExport, rec)
	if err != nil {
		return info, err
	}
	return info, codec.Decode(payload, &info)
}

// Call invokes a function once with input as its Input Envelope. Input may
// be any value the codec encodes as a map, or nil for no parameters.
func (m *Module) Call(ctx context.Context, name string, input any) (*Result, error) {
	fn, err := m.lookup(name)
	if err != nil {
		return nil, err
	}
	if fn.Workflow {
		return nil, fmt.Errorf("%s is a workflow; use RunWorkflow", fn.Name)
	}

	data, err := encodeInput(input)
	if err != nil {
		return nil, err
	}

	run := m.exec.newRun()
	defer m.exec.services.Forget(run.ID)
	run.BeginAttempt()

	payload, err := m.CallRaw(hostfuncs.WithRun(ctx, run), fn.Export, data)
	if err != nil {
		return nil, err
	}
	return &Result{Payload: payload, Output: run.Output(), Attempts: 1}, nil
}

// CallRaw sends an encoded Input Envelope to an invocation export and
// returns the encoded result. The run carried by ctx, if any, receives the
// call's console output and faults.
func (m *Module) CallRaw(ctx context.Context, export string, input []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mem := m.guest.memory()
	addr, size, err := hostfuncs.Send(ctx, mem, input)
	if err != nil {
		return nil, fmt.Errorf("failed to send input: %w", err)
	}

	rec, err := m.guest.invoke(ctx, export, addr, size)
	if err != nil {
		return nil, err
	}
	return m.result(ctx, hostfuncs.RunFrom(ctx), export, rec)
}

// result takes the record the guest returned. A null record means the
// guest faulted; the fault it reported becomes the error.
func (m *Module) result(ctx context.Context, run *hostfuncs.Run, export string, rec uint32) ([]byte, error) {
	if rec == 0 && run != nil {
		if faults := run.Faults(); len(faults) > 0 {
			return nil, &errors.GuestFaultError{Report: faults[len(faults)-1]}
		}
	}
	payload, err := hostfuncs.TakeResult(ctx, m.guest.memory(), rec)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", export, err)
	}
	return payload, nil
}

func (m *Module) lookup(name string) (Function, error) {
	fn, ok := m.Lookup(name)
	if !ok {
		return Function{}, fmt.Errorf("unknown function %q", name)
	}
	return fn, nil
}

func encodeInput(input any) ([]byte, error) {
	switch v := input.(type) {
	case nil:
		return codec.Encode(map[string]any{})
	case []byte:
		return v, nil
	default:
		return codec.Encode(v)
	}
}
