package wazero

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/middle-dev/middle-sdk/hostfuncs"
)

// memoryModule exports one page of memory, allocate(i32) -> i32 returning
// 1024, and a no-op release(i32, i32).
var memoryModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	// types: (i32)->i32, (i32,i32)->()
	0x01, 0x0b, 0x02, 0x60, 0x01, 0x7f, 0x01, 0x7f, 0x60, 0x02, 0x7f, 0x7f, 0x00,
	// functions
	0x03, 0x03, 0x02, 0x00, 0x01,
	// memory: min 1 page
	0x05, 0x03, 0x01, 0x00, 0x01,
	// exports: memory, allocate, release
	0x07, 0x1f, 0x03,
	0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
	0x08, 'a', 'l', 'l', 'o', 'c', 'a', 't', 'e', 0x00, 0x00,
	0x07, 'r', 'e', 'l', 'e', 'a', 's', 'e', 0x00, 0x01,
	// code
	0x0a, 0x0a, 0x02,
	0x05, 0x00, 0x41, 0x80, 0x08, 0x0b,
	0x02, 0x00, 0x0b,
}

// hiddenMemoryModule matches memoryModule except that its memory is not exported.
var hiddenMemoryModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x0b, 0x02, 0x60, 0x01, 0x7f, 0x01, 0x7f, 0x60, 0x02, 0x7f, 0x7f, 0x00,
	0x03, 0x03, 0x02, 0x00, 0x01,
	0x05, 0x03, 0x01, 0x00, 0x01,
	// exports: allocate, release
	0x07, 0x16, 0x02,
	0x08, 'a', 'l', 'l', 'o', 'c', 'a', 't', 'e', 0x00, 0x00,
	0x07, 'r', 'e', 'l', 'e', 'a', 's', 'e', 0x00, 0x01,
	0x0a, 0x0a, 0x02,
	0x05, 0x00, 0x41, 0x80, 0x08, 0x0b,
	0x02, 0x00, 0x0b,
}

// memorylessModule exports allocate and release but declares no memory.
var memorylessModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x0b, 0x02, 0x60, 0x01, 0x7f, 0x01, 0x7f, 0x60, 0x02, 0x7f, 0x7f, 0x00,
	0x03, 0x03, 0x02, 0x00, 0x01,
	0x07, 0x16, 0x02,
	0x08, 'a', 'l', 'l', 'o', 'c', 'a', 't', 'e', 0x00, 0x00,
	0x07, 'r', 'e', 'l', 'e', 'a', 's', 'e', 0x00, 0x01,
	0x0a, 0x0a, 0x02,
	0x05, 0x00, 0x41, 0x80, 0x08, 0x0b,
	0x02, 0x00, 0x0b,
}

// noReleaseModule exports memory and allocate only.
var noReleaseModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x0b, 0x02, 0x60, 0x01, 0x7f, 0x01, 0x7f, 0x60, 0x02, 0x7f, 0x7f, 0x00,
	0x03, 0x03, 0x02, 0x00, 0x01,
	0x05, 0x03, 0x01, 0x00, 0x01,
	// exports: memory, allocate
	0x07, 0x15, 0x02,
	0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
	0x08, 'a', 'l', 'l', 'o', 'c', 'a', 't', 'e', 0x00, 0x00,
	0x0a, 0x0a, 0x02,
	0x05, 0x00, 0x41, 0x80, 0x08, 0x0b,
	0x02, 0x00, 0x0b,
}

// pauseModule imports middle.host_pause and exports check(i64) -> i32
// forwarding to it.
var pauseModule = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	// types: (i64)->i32
	0x01, 0x06, 0x01, 0x60, 0x01, 0x7e, 0x01, 0x7f,
	// imports
	0x02, 0x15, 0x01,
	0x06, 'm', 'i', 'd', 'd', 'l', 'e',
	0x0a, 'h', 'o', 's', 't', '_', 'p', 'a', 'u', 's', 'e', 0x00, 0x00,
	// functions
	0x03, 0x02, 0x01, 0x00,
	// exports: check = func 1
	0x07, 0x09, 0x01, 0x05, 'c', 'h', 'e', 'c', 'k', 0x00, 0x01,
	// code: local.get 0; call 0
	0x0a, 0x08, 0x01, 0x06, 0x00, 0x20, 0x00, 0x10, 0x00, 0x0b,
}

func TestAdapterOptions(t *testing.T) {
	cfg := defaultAdapterConfig()
	assert.Equal(t, "middle", cfg.ModuleName)

	WithModuleName("custom")(&cfg)
	WithModuleName("")(&cfg)
	assert.Equal(t, "custom", cfg.ModuleName)
}

func TestRegisterWithRuntime_Signatures(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	svc := hostfuncs.NewServices(defaultHostConfig(), nil, nil, nil, nil)
	reg, err := hostfuncs.NewRegistry(hostfuncs.WithBundle(svc.Bundle()))
	require.NoError(t, err)
	require.NoError(t, RegisterWithRuntime(ctx, rt, hostfuncs.NewImportServer(reg)))

	mod := rt.Module("middle")
	require.NotNil(t, mod)
	defs := mod.ExportedFunctionDefinitions()

	tests := []struct {
		name    string
		params  []api.ValueType
		results []api.ValueType
	}{
		{hostfuncs.FuncRequest, []api.ValueType{i32, i32}, []api.ValueType{i32}},
		{hostfuncs.FuncPrompt, []api.ValueType{i32, i32}, []api.ValueType{i32}},
		{hostfuncs.FuncPrint, []api.ValueType{i32, i32}, []api.ValueType{}},
		{hostfuncs.FuncPanic, []api.ValueType{i32, i32}, []api.ValueType{}},
		{hostfuncs.FuncPause, []api.ValueType{i64}, []api.ValueType{i32}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, ok := defs[tt.name]
			require.True(t, ok)
			assert.Equal(t, tt.params, def.ParamTypes())
			assert.ElementsMatch(t, tt.results, def.ResultTypes())
		})
	}
}

func TestRegisterWithRuntime_PauseRoundTrip(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	reg, err := hostfuncs.NewRegistry(hostfuncs.WithHandler(hostfuncs.FuncPause,
		func(_ context.Context, millis uint64) bool { return millis < 100 }))
	require.NoError(t, err)
	require.NoError(t, RegisterWithRuntime(ctx, rt, hostfuncs.NewImportServer(reg)))

	mod, err := rt.Instantiate(ctx, pauseModule)
	require.NoError(t, err)

	check := mod.ExportedFunction("check")
	res, err := check.Call(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res[0])

	res, err = check.Call(ctx, 5000)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), res[0])
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	mod, err := rt.Instantiate(ctx, memoryModule)
	require.NoError(t, err)

	mem, err := NewMemory(mod)
	require.NoError(t, err)

	addr, err := mem.Allocate(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, uint32(1024), addr)

	require.NoError(t, mem.Write(addr, []byte("hello")))
	got, err := mem.Read(addr, 5)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)

	require.NoError(t, mem.Write(addr, []byte("J")))
	assert.Equal(t, []byte("hello"), got, "reads are copies")

	require.NoError(t, mem.Release(ctx, addr, 5))

	_, err = mem.Read(65530, 16)
	assert.Error(t, err)
	assert.Error(t, mem.Write(65535, []byte("xy")))
}

func TestNewMemory_MissingExports(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		module  []byte
		wantErr string
	}{
		{"no memory or allocator", pauseModule, "exports no memory"},
		{"memory not declared", memorylessModule, "exports no memory"},
		{"memory not exported", hiddenMemoryModule, "exports no memory"},
		{"release missing", noReleaseModule, `does not export "release"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := wazero.NewRuntime(ctx)
			defer rt.Close(ctx)

			reg, err := hostfuncs.NewRegistry(hostfuncs.WithHandler(hostfuncs.FuncPause,
				func(context.Context, uint64) bool { return true }))
			require.NoError(t, err)
			require.NoError(t, RegisterWithRuntime(ctx, rt, hostfuncs.NewImportServer(reg)))

			mod, err := rt.Instantiate(ctx, tt.module)
			require.NoError(t, err)

			mem, err := NewMemory(mod)
			assert.ErrorContains(t, err, tt.wantErr)
			assert.Nil(t, mem)
		})
	}
}
