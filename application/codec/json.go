package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/middle-dev/middle-sdk/domain/errors"
)

// FromJSON parses JSON into the generic shape the codec produces when
// decoding into `any`: integral numbers become int64, others float64.
func FromJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &errors.DecodeError{Err: err, Target: "json", Size: len(data)}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &errors.DecodeError{Err: fmt.Errorf("trailing data after JSON value"), Target: "json", Size: len(data)}
	}
	return normalizeNumbers(v), nil
}

// ToJSON renders a decoded value as indented JSON.
func ToJSON(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// EncodeJSON converts a JSON document straight to its wire encoding.
func EncodeJSON(data []byte) ([]byte, error) {
	v, err := FromJSON(data)
	if err != nil {
		return nil, err
	}
	return Encode(v)
}

// DecodeToJSON converts a wire encoding to JSON.
func DecodeToJSON(data []byte) ([]byte, error) {
	var v any
	if err := Decode(data, &v); err != nil {
		return nil, err
	}
	return ToJSON(v)
}

func normalizeNumbers(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		f, err := val.Float64()
		if err != nil {
			return val.String()
		}
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return int64(f)
		}
		return f
	case map[string]any:
		for k, item := range val {
			val[k] = normalizeNumbers(item)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = normalizeNumbers(item)
		}
		return val
	default:
		return v
	}
}
