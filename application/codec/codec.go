// Package codec is the boundary value codec: a deterministic, self-describing
// MessagePack encoding.
//
// Records are encoded as maps keyed by field name (the `json` tag when present,
// so one set of tags drives both the wire shape and the derived schema). Every
// map, records included, is written with sorted keys, so equal values always
// encode to equal bytes. A decoder needs only the target type.
package codec

import (
	"bytes"
	"fmt"
	"reflect"

	"github.com/middle-dev/middle-sdk/domain/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// structTag is the tag consulted for wire field names.
const structTag = "json"

// Encode serializes v.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag(structTag)
	enc.UseCompactInts(true)

	if err := enc.Encode(v); err != nil {
		return nil, &errors.WireFormatError{Operation: "encode", Type: typeName(v), Err: err}
	}
	out, err := canonicalize(buf.Bytes())
	if err != nil {
		return nil, &errors.WireFormatError{Operation: "encode", Type: typeName(v), Err: err}
	}
	return out, nil
}

// Decode deserializes data into v, which must be a non-nil pointer.
// Empty, truncated, mistyped or over-long input yields a *errors.DecodeError.
func Decode(data []byte, v any) error {
	target := typeName(v)
	if len(data) == 0 {
		return &errors.DecodeError{Err: fmt.Errorf("empty payload"), Target: target}
	}

	r := bytes.NewReader(data)
	dec := msgpack.NewDecoder(r)
	dec.SetCustomStructTag(structTag)
	dec.UseLooseInterfaceDecoding(true)

	if err := dec.Decode(v); err != nil {
		return &errors.DecodeError{Err: err, Target: target, Size: len(data)}
	}
	if r.Len() > 0 {
		return &errors.DecodeError{
			Err:    fmt.Errorf("%d trailing bytes", r.Len()),
			Target: target,
			Size:   len(data),
		}
	}
	return nil
}

// RequireFields checks that data encodes a map holding every name in fields.
// Decoding into a struct alone cannot tell a missing field from a zero one.
func RequireFields(data []byte, target string, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	var present map[string]msgpack.RawMessage
	if err := Decode(data, &present); err != nil {
		return err
	}
	for _, f := range fields {
		if _, ok := present[f]; !ok {
			return &errors.DecodeError{Err: fmt.Errorf("missing required field %q", f), Target: target, Size: len(data)}
		}
	}
	return nil
}

// Convert re-shapes a generic value (as produced by decoding into `any`)
// into dst by encoding and decoding it.
func Convert(src any, dst any) error {
	data, err := Encode(src)
	if err != nil {
		return err
	}
	return Decode(data, dst)
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.String()
}
