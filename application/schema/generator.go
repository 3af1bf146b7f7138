// Package schema provides JSON schema generation utilities for the SDK.
package schema

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
	"github.com/middle-dev/middle-sdk/domain/errors"
)

func newReflector(t reflect.Type) *jsonschema.Reflector {
	return &jsonschema.Reflector{
		// Expand a named root struct inline. Unnamed structs (envelopes) and
		// non-struct types are always reflected inline.
		ExpandedStruct: t.Kind() == reflect.Struct && t.Name() != "",
		Anonymous:      true,
	}
}

// GenerateSchema creates a JSON schema from a Go value.
// It uses the `invopop/jsonschema` library to reflect on the type and
// generate a standard JSON Schema (Draft 2020-12). Fields without
// `omitempty` are required.
func GenerateSchema(v interface{}) ([]byte, error) {
	if v == nil {
		return nil, &errors.SchemaError{Err: fmt.Errorf("nil value")}
	}
	return DeriveSchema(reflect.TypeOf(v))
}

// DeriveSchema generates the schema for t.
func DeriveSchema(t reflect.Type) ([]byte, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	s := newReflector(t).ReflectFromType(t)

	jsonBytes, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, &errors.SchemaError{Type: t.String(), Err: fmt.Errorf("failed to marshal schema: %w", err)}
	}

	return jsonBytes, nil
}

// DeriveDocument generates the schema for t in generic map form, the shape
// carried inside FnInfo and prompt requests.
func DeriveDocument(t reflect.Type) (map[string]any, error) {
	raw, err := DeriveSchema(t)
	if err != nil {
		return nil, err
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &errors.SchemaError{Type: t.String(), Err: err}
	}
	switch d := doc.(type) {
	case map[string]any:
		return d, nil
	case bool:
		// The "accept anything" schema marshals as `true`.
		return map[string]any{}, nil
	default:
		return nil, &errors.SchemaError{Type: t.String(), Err: fmt.Errorf("unexpected schema document %T", doc)}
	}
}
