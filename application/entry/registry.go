package entry

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/middle-dev/middle-sdk/application/schema"
	"github.com/middle-dev/middle-sdk/domain/entities"
	"github.com/middle-dev/middle-sdk/domain/errors"
	"github.com/middle-dev/middle-sdk/internal/abi"
	"github.com/middle-dev/middle-sdk/resumable"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// Reporter receives faults caught at an entry point boundary.
type Reporter func(entities.PanicReport)

// ContextFunc decorates the context passed to functions that accept one.
type ContextFunc func(context.Context) context.Context

// Entry is a registered, callable entry point.
type Entry struct {
	Descriptor Descriptor
	Export     string
	InfoExport string

	fn       reflect.Value
	withCtx  bool
	inType   reflect.Type
	outType  reflect.Type
	required []string
	fallible bool
	info     entities.FnInfo
}

// Info returns the introspection record for e.
func (e *Entry) Info() entities.FnInfo {
	return e.info
}

// InputType returns the reflected Input Envelope.
func (e *Entry) InputType() reflect.Type {
	return e.inType
}

// OutputType returns the reflected Output Envelope.
func (e *Entry) OutputType() reflect.Type {
	return e.outType
}

// Registry holds the entry points of one guest module.
type Registry struct {
	mu       sync.RWMutex
	arena    *abi.Arena
	logger   *slog.Logger
	reporter Reporter
	ctxFunc  ContextFunc
	byExport map[string]*Entry
	entries  []*Entry
}

// Option configures a Registry.
type Option func(*Registry)

// WithArena sets the arena that backs boundary transfers.
func WithArena(a *abi.Arena) Option {
	return func(r *Registry) {
		if a != nil {
			r.arena = a
		}
	}
}

// WithLogger sets the logger for faults that have no reporter.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithReporter installs the fault reporter.
func WithReporter(rep Reporter) Option {
	return func(r *Registry) {
		r.reporter = rep
	}
}

// WithContext sets the context decorator used for injected context parameters.
func WithContext(fn ContextFunc) Option {
	return func(r *Registry) {
		r.ctxFunc = fn
	}
}

// NewRegistry creates an empty registry backed by abi.Default() unless
// WithArena says otherwise.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		arena:    abi.Default(),
		byExport: make(map[string]*Entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Arena returns the arena backing r.
func (r *Registry) Arena() *abi.Arena {
	return r.arena
}

// SetReporter installs rep as the fault reporter. Passing nil removes it.
func (r *Registry) SetReporter(rep Reporter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reporter = rep
}

// SetContext installs the context decorator.
func (r *Registry) SetContext(fn ContextFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctxFunc = fn
}

// MustRegister registers fn or panics. Use this in init() functions.
func (r *Registry) MustRegister(desc Descriptor, fn any) *Entry {
	e, err := r.Register(desc, fn)
	if err != nil {
		panic(fmt.Sprintf("failed to register entry point: %v", err))
	}
	return e
}

// Register validates fn against desc and makes it callable through its exports.
func (r *Registry) Register(desc Descriptor, fn any) (*Entry, error) {
	fail := func(err error, detail string) error {
		return &errors.SynthesisError{Function: desc.Name, Err: err, Detail: detail}
	}

	fv := reflect.ValueOf(fn)
	if !fv.IsValid() || fv.Kind() != reflect.Func || fv.IsNil() {
		return nil, fail(errors.ErrNotAFunction, fmt.Sprintf("%T", fn))
	}
	ft := fv.Type()
	if ft.IsVariadic() {
		return nil, fail(errors.ErrUnsupportedParam, "variadic parameter")
	}

	withCtx := ft.NumIn() > 0 && ft.In(0) == contextType
	offset := 0
	if withCtx {
		offset = 1
	}
	if ft.NumIn()-offset != len(desc.Params) {
		return nil, fail(errors.ErrParamCount, fmt.Sprintf("%d declared, %d in signature", len(desc.Params), ft.NumIn()-offset))
	}

	if len(desc.Results) == 0 {
		for i := 0; i < ft.NumOut(); i++ {
			desc.Results = append(desc.Results, ft.Out(i).String())
		}
	}
	if err := Validate(desc); err != nil {
		return nil, err
	}

	e := &Entry{
		Descriptor: desc,
		Export:     desc.ExportName(),
		InfoExport: desc.InfoExportName(),
		fn:         fv,
		withCtx:    withCtx,
	}

	switch {
	case ft.NumOut() == 0:
		return nil, fail(errors.ErrMissingReturn, "")
	case ft.NumOut() > 2, ft.NumOut() == 2 && ft.Out(1) != errorType:
		return nil, fail(errors.ErrUnsupportedReturn, ft.String())
	}
	e.fallible = ft.NumOut() == 2

	valueType := ft.Out(0)
	if desc.Kind == KindWorkflow {
		inner, ok := resumable.ValueTypeOf(valueType)
		if !ok || e.fallible {
			return nil, fail(errors.ErrWorkflowReturn, ft.String())
		}
		valueType = inner
	}

	paramTypes := make([]reflect.Type, len(desc.Params))
	for i := range desc.Params {
		paramTypes[i] = ft.In(i + offset)
	}
	e.inType = inputEnvelope(desc.Params, paramTypes)
	e.required = requiredFields(desc.Params, paramTypes)
	e.outType = outputEnvelope(valueType, e.fallible)

	inSchema, err := schema.DeriveDocument(e.inType)
	if err != nil {
		return nil, fmt.Errorf("input schema for %s: %w", desc.Name, err)
	}
	outSchema, err := schema.DeriveDocument(e.outType)
	if err != nil {
		return nil, fmt.Errorf("output schema for %s: %w", desc.Name, err)
	}
	e.info = entities.FnInfo{
		Description:  desc.Description,
		InputSchema:  inSchema,
		OutputSchema: outSchema,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range []string{e.Export, e.InfoExport} {
		if _, taken := r.byExport[name]; taken || isReserved(name) {
			return nil, fail(errors.ErrNameCollision, name)
		}
	}
	r.byExport[e.Export] = e
	r.byExport[e.InfoExport] = e
	r.entries = append(r.entries, e)

	return e, nil
}

// Entries returns registered entries in registration order.
func (r *Registry) Entries() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Lookup finds the entry owning an invocation or introspection export.
func (r *Registry) Lookup(export string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byExport[export]
	return e, ok
}

func isReserved(name string) bool {
	for _, r := range ReservedExports {
		if r == name {
			return true
		}
	}
	return false
}

func (r *Registry) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return slog.Default()
}
