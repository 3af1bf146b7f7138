package validation

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/middle-dev/middle-sdk/domain/entities"
	domainerrors "github.com/middle-dev/middle-sdk/domain/errors"
	"github.com/middle-dev/middle-sdk/domain/ports"
)

var _ ports.SchemaValidator = (*SchemaValidator)(nil)

// SchemaValidator validates values against JSON Schema documents. Compiled
// schemas are cached by content, so validating many answers against the same
// prompt schema compiles it once.
type SchemaValidator struct {
	mu    sync.Mutex
	cache map[string]*jsonschema.Schema
}

// NewSchemaValidator creates a validator with an empty cache.
func NewSchemaValidator() *SchemaValidator {
	return &SchemaValidator{cache: make(map[string]*jsonschema.Schema)}
}

// Validate checks value against schema. An invalid schema is an error; an
// invalid value is reported in the result.
func (v *SchemaValidator) Validate(schema map[string]any, value any) (*entities.ValidationResult, error) {
	sch, err := v.compile(schema)
	if err != nil {
		return nil, err
	}

	// Round-trip through JSON so numbers and maps have the shapes the
	// validator expects, whatever decoder produced value.
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, &domainerrors.SchemaError{Err: fmt.Errorf("prepare value: %w", err)}
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, &domainerrors.SchemaError{Err: fmt.Errorf("prepare value: %w", err)}
	}

	result := &entities.ValidationResult{Valid: true}
	if err := sch.Validate(doc); err != nil {
		result.Valid = false
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			return nil, &domainerrors.SchemaError{Err: err}
		}
		collectLeaves(ve, &result.Errors)
	}
	return result, nil
}

func (v *SchemaValidator) compile(schema map[string]any) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, &domainerrors.SchemaError{Err: fmt.Errorf("encode schema: %w", err)}
	}
	sum := sha256.Sum256(raw)
	key := hex.EncodeToString(sum[:])

	v.mu.Lock()
	defer v.mu.Unlock()
	if sch, ok := v.cache[key]; ok {
		return sch, nil
	}

	url := "mem://schema/" + key + ".json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(raw)); err != nil {
		return nil, &domainerrors.SchemaError{Err: err}
	}
	sch, err := compiler.Compile(url)
	if err != nil {
		return nil, &domainerrors.SchemaError{Err: err}
	}
	v.cache[key] = sch
	return sch, nil
}

// collectLeaves flattens the cause tree into one entry per failing keyword.
func collectLeaves(ve *jsonschema.ValidationError, out *[]entities.ValidationError) {
	if len(ve.Causes) == 0 {
		field := ve.InstanceLocation
		if field == "" {
			field = "/"
		}
		*out = append(*out, entities.ValidationError{Field: field, Message: ve.Message})
		return
	}
	for _, c := range ve.Causes {
		collectLeaves(c, out)
	}
}
