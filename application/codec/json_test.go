package codec

import (
	"testing"

	"github.com/middle-dev/middle-sdk/domain/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromJSON(t *testing.T) {
	v, err := FromJSON([]byte(`{"x": 41, "y": 2.5, "z": [1, 2.0, "s"], "n": null, "big": 1e3}`))
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"x":   int64(41),
		"y":   2.5,
		"z":   []any{int64(1), int64(2), "s"},
		"n":   nil,
		"big": int64(1000),
	}, v)
}

func TestFromJSON_Invalid(t *testing.T) {
	for _, in := range []string{``, `{`, `{"a":1} {"b":2}`} {
		_, err := FromJSON([]byte(in))
		var decErr *errors.DecodeError
		assert.ErrorAs(t, err, &decErr, "input %q", in)
	}
}

func TestEncodeJSON_DecodesIntoRecord(t *testing.T) {
	data, err := EncodeJSON([]byte(`{"street": "Elm", "zip": 90210}`))
	require.NoError(t, err)

	var addr address
	require.NoError(t, Decode(data, &addr))
	assert.Equal(t, "Elm", addr.Street)
	assert.Equal(t, 90210, *addr.Zip)

	out, err := DecodeToJSON(data)
	require.NoError(t, err)
	assert.JSONEq(t, `{"street": "Elm", "zip": 90210}`, string(out))
}
