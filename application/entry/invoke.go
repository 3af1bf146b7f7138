package entry

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"github.com/middle-dev/middle-sdk/application/codec"
	"github.com/middle-dev/middle-sdk/domain/entities"
	"github.com/middle-dev/middle-sdk/resumable"
)

// Invoke runs the invocation entry export with the Input Envelope at
// addr/size and returns the address of the record describing the encoded
// Output Envelope. It returns 0 when the call faulted; the fault is reported
// through the installed Reporter.
func (r *Registry) Invoke(export string, addr, size uint32) (rec uint32) {
	defer r.recoverFault(export, &rec)

	rec, err := r.invoke(export, addr, size)
	if err != nil {
		r.fault(faultReport(export, err))
		return 0
	}
	return rec
}

// Info runs the introspection export and returns the address of the record
// describing the encoded FnInfo. No user code runs.
func (r *Registry) Info(export string) (rec uint32) {
	defer r.recoverFault(export, &rec)

	e, ok := r.Lookup(export)
	if !ok || e.InfoExport != export {
		r.fault(faultReport(export, withOrigin(fmt.Errorf("unknown introspection entry point %s", export))))
		return 0
	}

	rec, err := r.transfer(e.info)
	if err != nil {
		r.fault(faultReport(export, err))
		return 0
	}
	return rec
}

func (r *Registry) invoke(export string, addr, size uint32) (uint32, error) {
	e, ok := r.Lookup(export)
	if !ok || e.Export != export {
		// Still consume the input so the host's block is not leaked.
		_, _ = r.arena.Take(addr, size)
		return 0, withOrigin(fmt.Errorf("unknown entry point %s", export))
	}

	payload, err := r.arena.Take(addr, size)
	if err != nil {
		return 0, withOrigin(err)
	}

	in := reflect.New(e.inType)
	if len(payload) > 0 || e.inType.NumField() > 0 {
		if err := codec.Decode(payload, in.Interface()); err != nil {
			return 0, withOrigin(err)
		}
		if err := codec.RequireFields(payload, "input envelope of "+e.Descriptor.Name, e.required...); err != nil {
			return 0, withOrigin(err)
		}
	}

	args := make([]reflect.Value, 0, e.inType.NumField()+1)
	if e.withCtx {
		args = append(args, reflect.ValueOf(r.context()))
	}
	for i := 0; i < e.inType.NumField(); i++ {
		args = append(args, in.Elem().Field(i))
	}

	results := e.fn.Call(args)

	out := reflect.New(e.outType).Elem()
	var body any
	if e.Descriptor.Kind == KindWorkflow {
		d := results[0].Interface().(resumable.Dynamic)
		if d.IsPause() {
			body = frame{State: resumable.StatePause}
		} else {
			if v := d.Any(); v != nil {
				out.Field(0).Set(reflect.ValueOf(v))
			}
			body = frame{State: resumable.StateReady, Value: out.Interface()}
		}
	} else {
		out.Field(0).Set(results[0])
		if e.fallible && !results[1].IsNil() {
			out.Field(1).SetString(results[1].Interface().(error).Error())
		}
		body = out.Interface()
	}

	return r.transfer(body)
}

// transfer encodes v, transfers it and its record, and returns the record
// address. If the record cannot be transferred the payload is reclaimed.
func (r *Registry) transfer(v any) (uint32, error) {
	data, err := codec.Encode(v)
	if err != nil {
		return 0, withOrigin(err)
	}
	blk, err := r.arena.TransferOut(data)
	if err != nil {
		return 0, withOrigin(err)
	}
	rec, err := r.arena.TransferRecord(blk)
	if err != nil {
		if relErr := r.arena.Release(blk.Addr, blk.Len); relErr != nil {
			r.log().Error("reclaim payload", "addr", blk.Addr, "error", relErr)
		}
		return 0, withOrigin(err)
	}
	return rec, nil
}

func (r *Registry) context() context.Context {
	r.mu.RLock()
	fn := r.ctxFunc
	r.mu.RUnlock()

	ctx := context.Background()
	if fn != nil {
		ctx = fn(ctx)
	}
	return ctx
}

func (r *Registry) recoverFault(export string, rec *uint32) {
	p := recover()
	if p == nil {
		return
	}
	file, line, function := panicOrigin()
	r.fault(entities.PanicReport{
		Entry:    export,
		Message:  fmt.Sprint(p),
		File:     file,
		Line:     line,
		Function: function,
	})
	*rec = 0
}

// fault sends report to the reporter, or logs it when none is installed.
// A reporter that itself panics is logged and otherwise ignored.
func (r *Registry) fault(report entities.PanicReport) {
	r.mu.RLock()
	rep := r.reporter
	r.mu.RUnlock()

	if rep == nil {
		r.log().Error("entry point fault", "entry", report.Entry, "error", report.String())
		return
	}

	defer func() {
		if p := recover(); p != nil {
			r.log().Error("fault reporter panicked", "entry", report.Entry, "panic", p)
		}
	}()
	rep(report)
}

// originError records where dispatch failed, for the fault report.
type originError struct {
	err      error
	file     string
	line     int
	function string
}

func (e *originError) Error() string { return e.err.Error() }

func (e *originError) Unwrap() error { return e.err }

// withOrigin tags err with its caller's location. An already tagged error
// keeps its first location.
func withOrigin(err error) error {
	var oe *originError
	if errors.As(err, &oe) {
		return err
	}
	pc, file, line, _ := runtime.Caller(1)
	var function string
	if fn := runtime.FuncForPC(pc); fn != nil {
		function = fn.Name()
	}
	return &originError{err: err, file: file, line: line, function: function}
}

func faultReport(export string, err error) entities.PanicReport {
	report := entities.PanicReport{Entry: export, Message: err.Error()}
	var oe *originError
	if errors.As(err, &oe) {
		report.File, report.Line, report.Function = oe.file, oe.line, oe.function
	}
	return report
}

// panicOrigin finds the first non-runtime frame below the panic.
func panicOrigin() (file string, line int, function string) {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	inRuntime := false
	for {
		f, more := frames.Next()
		if strings.HasPrefix(f.Function, "runtime.") {
			inRuntime = true
		} else if inRuntime {
			return f.File, f.Line, f.Function
		}
		if !more {
			return "", 0, ""
		}
	}
}
