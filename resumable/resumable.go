// Package resumable provides the two-state result used by workflows.
//
// A computation returns Pause when it cannot finish yet and Ready with a value
// when it can. There is no captured continuation: a paused workflow is simply
// invoked again from its start, so any effect before the pausing call runs
// again on every attempt.
//
//	func Greet(ctx context.Context) resumable.Resumable[string] {
//	    return resumable.Then(sdk.Prompt[Name](client), func(r sdk.Result[Name]) resumable.Resumable[string] {
//	        return resumable.Ready("hello " + r.Value.First)
//	    })
//	}
package resumable

import (
	"fmt"
	"reflect"

	"github.com/vmihailenco/msgpack/v5"
)

// State names used on the wire.
const (
	StatePause = "pause"
	StateReady = "ready"
)

// Resumable is either Pause or Ready(value). The zero value is Pause.
type Resumable[T any] struct {
	value T
	ready bool
}

// Pause returns the not-yet-available state.
func Pause[T any]() Resumable[T] {
	return Resumable[T]{}
}

// Ready returns the available state carrying v.
func Ready[T any](v T) Resumable[T] {
	return Resumable[T]{value: v, ready: true}
}

// IsPause reports whether r carries no value yet.
func (r Resumable[T]) IsPause() bool {
	return !r.ready
}

// IsReady reports whether r carries a value.
func (r Resumable[T]) IsReady() bool {
	return r.ready
}

// Get returns the value and whether it is available.
func (r Resumable[T]) Get() (T, bool) {
	return r.value, r.ready
}

// MustGet returns the value and panics on Pause.
func (r Resumable[T]) MustGet() T {
	if !r.ready {
		panic("resumable: MustGet on Pause")
	}
	return r.value
}

// String renders r for logs and test failures.
func (r Resumable[T]) String() string {
	if !r.ready {
		return "Pause"
	}
	return fmt.Sprintf("Ready(%v)", r.value)
}

// Then short-circuits: Pause propagates unchanged, Ready(v) continues with f(v).
func Then[T, U any](r Resumable[T], f func(T) Resumable[U]) Resumable[U] {
	if !r.ready {
		return Pause[U]()
	}
	return f(r.value)
}

// Map transforms a ready value and propagates Pause.
func Map[T, U any](r Resumable[T], f func(T) U) Resumable[U] {
	if !r.ready {
		return Pause[U]()
	}
	return Ready(f(r.value))
}

// Dynamic is implemented by every Resumable instantiation and lets reflective
// callers inspect one without knowing T.
type Dynamic interface {
	IsPause() bool
	Any() any
	ValueType() reflect.Type
}

// Any returns the value as an interface, or nil on Pause.
func (r Resumable[T]) Any() any {
	if !r.ready {
		return nil
	}
	return r.value
}

// ValueType returns the reflected T.
func (r Resumable[T]) ValueType() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// ValueTypeOf reports the T of a Resumable[T] type.
func ValueTypeOf(t reflect.Type) (reflect.Type, bool) {
	if t.Kind() != reflect.Struct || !t.Implements(dynamicType) {
		return nil, false
	}
	d, ok := reflect.Zero(t).Interface().(Dynamic)
	if !ok {
		return nil, false
	}
	return d.ValueType(), true
}

var dynamicType = reflect.TypeOf((*Dynamic)(nil)).Elem()

// Frame is the wire form of a Resumable: {state, value}. Value is absent on Pause.
type Frame[T any] struct {
	State string `json:"state" jsonschema:"enum=pause,enum=ready"`
	Value *T     `json:"value,omitempty"`
}

// ToFrame converts r to its wire form.
func (r Resumable[T]) ToFrame() Frame[T] {
	if !r.ready {
		return Frame[T]{State: StatePause}
	}
	v := r.value
	return Frame[T]{State: StateReady, Value: &v}
}

// FromFrame validates f and converts it back. A ready frame without a value
// carries the zero T.
func FromFrame[T any](f Frame[T]) (Resumable[T], error) {
	switch f.State {
	case StatePause:
		return Pause[T](), nil
	case StateReady:
		if f.Value == nil {
			var zero T
			return Ready(zero), nil
		}
		return Ready(*f.Value), nil
	default:
		return Pause[T](), fmt.Errorf("resumable: unknown state %q", f.State)
	}
}

var (
	_ msgpack.CustomEncoder = Resumable[int]{}
	_ msgpack.CustomDecoder = (*Resumable[int])(nil)
)

// EncodeMsgpack writes r as its Frame.
func (r Resumable[T]) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.Encode(r.ToFrame())
}

// DecodeMsgpack reads a Frame into r.
func (r *Resumable[T]) DecodeMsgpack(dec *msgpack.Decoder) error {
	var f Frame[T]
	if err := dec.Decode(&f); err != nil {
		return err
	}
	out, err := FromFrame(f)
	if err != nil {
		return err
	}
	*r = out
	return nil
}
