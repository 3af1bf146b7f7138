package hostfuncs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/middle-dev/middle-sdk/application/codec"
)

func nop(context.Context, []byte) ([]byte, error) { return nil, nil }

func TestNewRegistry(t *testing.T) {
	tests := []struct {
		name    string
		opts    []RegistryOption
		names   []string
		wantErr string
	}{
		{name: "empty"},
		{name: "byte handler", opts: []RegistryOption{WithByteHandler("echo", nop)}, names: []string{"echo"}},
		{
			name:  "sorted names",
			opts:  []RegistryOption{WithByteHandler("b", nop), WithByteHandler("a", nop), WithHandler("c", echo)},
			names: []string{"a", "b", "c"},
		},
		{name: "duplicate", opts: []RegistryOption{WithByteHandler("x", nop), WithByteHandler("x", nop)}, wantErr: "duplicate handler name"},
		{name: "empty name", opts: []RegistryOption{WithByteHandler("", nop)}, wantErr: "cannot be empty"},
		{name: "nil handler", opts: []RegistryOption{WithByteHandler("x", nil)}, wantErr: "is nil"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := NewRegistry(tt.opts...)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.names == nil {
				assert.Empty(t, reg.Names())
			} else {
				assert.Equal(t, tt.names, reg.Names())
			}
			for _, n := range tt.names {
				assert.True(t, reg.Has(n))
			}
			assert.False(t, reg.Has("nonexistent"))
		})
	}
}

func TestRegistry_Invoke(t *testing.T) {
	var seen string
	reg, err := NewRegistry(
		WithHandler("echo", echo),
		WithByteHandler("name", func(ctx context.Context, _ []byte) ([]byte, error) {
			seen = ctx.(HostContext).FunctionName()
			return nil, nil
		}),
	)
	require.NoError(t, err)

	payload, _ := codec.Encode(echoReq{Input: "x"})
	resp, err := reg.Invoke(context.Background(), "echo", payload)
	require.NoError(t, err)
	var out echoResp
	require.NoError(t, codec.Decode(resp, &out))
	assert.Equal(t, "echo: x", out.Output)

	_, err = reg.Invoke(context.Background(), "name", nil)
	require.NoError(t, err)
	assert.Equal(t, "name", seen)

	_, err = reg.Invoke(context.Background(), "missing", nil)
	var hostErr *HostError
	require.ErrorAs(t, err, &hostErr)
	assert.Equal(t, "NOT_FOUND", hostErr.Kind)
}

func TestRegistry_Names_ReturnsCopy(t *testing.T) {
	reg, err := NewRegistry(WithByteHandler("a", nop))
	require.NoError(t, err)

	names := reg.Names()
	names[0] = "mutated"
	assert.Equal(t, []string{"a"}, reg.Names())
}
