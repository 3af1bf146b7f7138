// Package input builds Input Envelopes from command-line text.
package input

import (
	"fmt"
	"strings"

	"github.com/middle-dev/middle-sdk/application/codec"
	"github.com/middle-dev/middle-sdk/domain/errors"
)

// Values is an Input Envelope in its generic form.
type Values = map[string]any

// FromJSON parses a JSON object document. Empty input is the empty envelope.
func FromJSON(data []byte) (Values, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Values{}, nil
	}
	v, err := codec.FromJSON(data)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &errors.ConfigError{Field: "input", Err: fmt.Errorf("input must be a JSON object, got %T", v)}
	}
	return obj, nil
}

// ParseArg splits a key=value argument. The value is read as JSON when it
// parses, and as a plain string otherwise, so x=41 binds a number and
// name=ada a string.
func ParseArg(arg string) (string, any, error) {
	key, raw, ok := strings.Cut(arg, "=")
	if !ok || key == "" {
		return "", nil, &errors.ConfigError{Field: arg, Err: fmt.Errorf("argument must be key=value")}
	}
	if v, err := codec.FromJSON([]byte(raw)); err == nil {
		return key, v, nil
	}
	return key, raw, nil
}

// FromArgs parses key=value arguments into an envelope. Later keys win.
func FromArgs(args []string) (Values, error) {
	out := make(Values, len(args))
	for _, arg := range args {
		k, v, err := ParseArg(arg)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

// Merge returns base overlaid with overrides. Neither argument is modified.
func Merge(base, overrides Values) Values {
	out := make(Values, len(base)+len(overrides))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}
