package entry_test

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/middle-dev/middle-sdk/application/entry"
	"github.com/middle-dev/middle-sdk/domain/entities"
	domainerrors "github.com/middle-dev/middle-sdk/domain/errors"
	"github.com/middle-dev/middle-sdk/internal/abi"
	"github.com/middle-dev/middle-sdk/resumable"
	"github.com/middle-dev/middle-sdk/testing/guesttest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func addOne(x int) int { return x + 1 }

func TestInvoke_AddOne(t *testing.T) {
	h := guesttest.New()
	e := h.Registry.MustRegister(entry.Descriptor{
		Name:        "AddOne",
		Description: "Adds one to x.",
		Params:      entry.Params("x"),
	}, addOne)
	require.Equal(t, "user_fn__add_one", e.Export)

	var out struct {
		Value int `json:"value"`
	}
	h.MustCall(t, e.Export, map[string]any{"x": 41}, &out)

	assert.Equal(t, 42, out.Value)
	h.AssertNoLeaks(t)
}

func TestInvoke_BindsParametersByName(t *testing.T) {
	h := guesttest.New()
	e := h.Registry.MustRegister(entry.Descriptor{
		Name:   "Describe",
		Params: entry.Params("label", "p", "scale"),
	}, func(label string, p point, scale *int) string {
		s := 1
		if scale != nil {
			s = *scale
		}
		return label + ":" + strconv.Itoa(p.X*s) + "," + strconv.Itoa(p.Y*s)
	})

	var out struct {
		Value string `json:"value"`
	}
	h.MustCall(t, e.Export, map[string]any{"scale": 10, "p": map[string]any{"x": 1, "y": 2}, "label": "pt"}, &out)
	assert.Equal(t, "pt:10,20", out.Value)

	// The optional parameter may be omitted.
	h.MustCall(t, e.Export, map[string]any{"p": map[string]any{"x": 3, "y": 4}, "label": "pt"}, &out)
	assert.Equal(t, "pt:3,4", out.Value)

	h.AssertNoLeaks(t)
}

func TestInvoke_FallibleFunction(t *testing.T) {
	h := guesttest.New()
	e := h.Registry.MustRegister(entry.Descriptor{Name: "Parse", Params: entry.Params("s")}, strconv.Atoi)

	var out struct {
		Value int    `json:"value"`
		Error string `json:"error"`
	}
	h.MustCall(t, e.Export, map[string]any{"s": "12"}, &out)
	assert.Equal(t, 12, out.Value)
	assert.Empty(t, out.Error)

	h.MustCall(t, e.Export, map[string]any{"s": "twelve"}, &out)
	assert.Contains(t, out.Error, "invalid syntax", "user errors travel inside the envelope")
	assert.Empty(t, h.Faults())
	h.AssertNoLeaks(t)
}

func TestInvoke_NoParameters(t *testing.T) {
	h := guesttest.New()
	e := h.Registry.MustRegister(entry.Descriptor{Name: "Version"}, func() string { return "1.0" })

	var out struct {
		Value string `json:"value"`
	}
	h.MustCall(t, e.Export, map[string]any{}, &out)
	assert.Equal(t, "1.0", out.Value)

	payload, err := h.CallRaw(e.Export, nil)
	require.NoError(t, err, "an empty input block is accepted when there is nothing to bind")
	assert.NotEmpty(t, payload)
	h.AssertNoLeaks(t)
}

type clientKey struct{}

func TestInvoke_InjectsContext(t *testing.T) {
	h := guesttest.New(guesttest.WithRegistryOptions(entry.WithContext(func(ctx context.Context) context.Context {
		return context.WithValue(ctx, clientKey{}, "client")
	})))
	e := h.Registry.MustRegister(entry.Descriptor{Name: "Who", Params: entry.Params("name")},
		func(ctx context.Context, name string) string {
			return name + "@" + ctx.Value(clientKey{}).(string)
		})

	var out struct {
		Value string `json:"value"`
	}
	h.MustCall(t, e.Export, map[string]any{"name": "ada"}, &out)
	assert.Equal(t, "ada@client", out.Value)

	info, err := h.Info(e.InfoExport)
	require.NoError(t, err)
	props := info.InputSchema["properties"].(map[string]any)
	assert.Len(t, props, 1, "the context parameter is not part of the envelope")
}

func TestInvoke_Workflow(t *testing.T) {
	h := guesttest.New()
	ready := false
	e := h.Registry.MustRegister(entry.Descriptor{
		Name: "Wait",
		Kind: entry.KindWorkflow,
	}, func() resumable.Resumable[string] {
		if !ready {
			return resumable.Pause[string]()
		}
		return resumable.Ready("done")
	})
	require.Equal(t, "user_workflow__wait", e.Export)

	var out map[string]any
	h.MustCall(t, e.Export, map[string]any{}, &out)
	assert.Equal(t, map[string]any{"state": "pause"}, out)

	ready = true
	h.MustCall(t, e.Export, map[string]any{}, &out)
	assert.Equal(t, map[string]any{"state": "ready", "value": map[string]any{"value": "done"}}, out)

	info, err := h.Info(e.InfoExport)
	require.NoError(t, err)
	props := info.OutputSchema["properties"].(map[string]any)
	assert.Equal(t, "string", props["value"].(map[string]any)["type"], "out schema describes the ready value")
	h.AssertNoLeaks(t)
}

func TestInfo(t *testing.T) {
	h := guesttest.New()
	e := h.Registry.MustRegister(entry.Descriptor{
		Name:        "Move",
		Description: "Moves a point.",
		Params:      entry.Params("from", "dx"),
	}, func(from point, dx int) point { return point{X: from.X + dx, Y: from.Y} })

	info, err := h.Info(e.InfoExport)
	require.NoError(t, err)

	assert.Equal(t, "Moves a point.", info.Description)
	assert.Equal(t, "object", info.InputSchema["type"])
	assert.ElementsMatch(t, []any{"from", "dx"}, info.InputSchema["required"])
	assert.Equal(t, []any{"value"}, info.OutputSchema["required"])
	assert.Equal(t, e.Info(), info)
	h.AssertNoLeaks(t)
}

func TestRegister_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		desc    entry.Descriptor
		fn      any
		wantErr error
	}{
		{"not a function", entry.Descriptor{Name: "X"}, 42, domainerrors.ErrNotAFunction},
		{"nil function", entry.Descriptor{Name: "X"}, (func() int)(nil), domainerrors.ErrNotAFunction},
		{"no result", entry.Descriptor{Name: "X", Params: entry.Params("a")}, func(int) {}, domainerrors.ErrMissingReturn},
		{"param count", entry.Descriptor{Name: "X"}, addOne, domainerrors.ErrParamCount},
		{"variadic", entry.Descriptor{Name: "X", Params: entry.Params("a")}, func(a ...int) int { return 0 }, domainerrors.ErrUnsupportedParam},
		{"bad second result", entry.Descriptor{Name: "X"}, func() (int, bool) { return 0, false }, domainerrors.ErrUnsupportedReturn},
		{"workflow plain result", entry.Descriptor{Name: "X", Kind: entry.KindWorkflow}, func() int { return 0 }, domainerrors.ErrWorkflowReturn},
		{"blank param", entry.Descriptor{Name: "X", Params: entry.Params("_")}, addOne, domainerrors.ErrUnsupportedParam},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := entry.NewRegistry().Register(tt.desc, tt.fn)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRegister_NameCollision(t *testing.T) {
	r := entry.NewRegistry()
	_, err := r.Register(entry.Descriptor{Name: "AddOne", Params: entry.Params("x")}, addOne)
	require.NoError(t, err)

	_, err = r.Register(entry.Descriptor{Name: "addOne", Params: entry.Params("x")}, addOne)
	assert.ErrorIs(t, err, domainerrors.ErrNameCollision)

	assert.Len(t, r.Entries(), 1)
	assert.Panics(t, func() {
		r.MustRegister(entry.Descriptor{Name: "AddOne", Params: entry.Params("x")}, addOne)
	})
}

func TestInvoke_DecodeErrorIsReported(t *testing.T) {
	h := guesttest.New()
	e := h.Registry.MustRegister(entry.Descriptor{Name: "AddOne", Params: entry.Params("x")}, addOne)

	_, err := h.CallRaw(e.Export, []byte{0x82, 0xa1}) // truncated map
	require.Error(t, err)

	var fault *domainerrors.GuestFaultError
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, e.Export, fault.Report.Entry)
	assert.Contains(t, fault.Report.Message, "decode")
	assert.Contains(t, fault.Report.File, "invoke.go")
	assert.NotZero(t, fault.Report.Line)
	assert.Contains(t, fault.Report.Function, "entry.(*Registry).invoke")

	_, err = h.CallRaw(e.Export, nil)
	assert.Error(t, err, "missing input for a function with parameters")

	h.AssertNoLeaks(t)
}

func TestInvoke_MissingRequiredParameter(t *testing.T) {
	h := guesttest.New()
	called := false
	e := h.Registry.MustRegister(entry.Descriptor{Name: "Repeat", Params: entry.Params("s", "n", "sep")},
		func(s string, n int, sep *string) string {
			called = true
			return s
		})

	tests := []struct {
		name    string
		input   map[string]any
		missing string
	}{
		{"second missing", map[string]any{"s": "xy"}, `"n"`},
		{"first missing", map[string]any{"n": 2}, `"s"`},
		{"empty envelope", map[string]any{}, `"s"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.Call(e.Export, tt.input, nil)

			var fault *domainerrors.GuestFaultError
			require.ErrorAs(t, err, &fault)
			assert.Contains(t, fault.Report.Message, "missing required field "+tt.missing)
			assert.NotEmpty(t, fault.Report.File)
		})
	}
	assert.False(t, called, "the function must not run with a partial envelope")

	// Optional parameters may still be left out.
	require.NoError(t, h.Call(e.Export, map[string]any{"s": "xy", "n": 2}, nil))
	assert.True(t, called)
	h.AssertNoLeaks(t)
}

func TestInvoke_RecordTransferFailureReclaimsPayload(t *testing.T) {
	h := guesttest.New(guesttest.WithArenaOptions(abi.WithMaxTotalAllocations(64)))
	e := h.Registry.MustRegister(entry.Descriptor{Name: "Pad", Params: entry.Params("n")},
		func(n int) string { return strings.Repeat("x", n) })

	// A 58-byte output envelope fits the limit; the 8-byte record behind it does not.
	_, err := h.CallRaw(e.Export, []byte{0x81, 0xa1, 'n', 0x31})
	require.Error(t, err)

	var fault *domainerrors.GuestFaultError
	require.ErrorAs(t, err, &fault)
	assert.Contains(t, fault.Report.Message, "limit")
	h.AssertNoLeaks(t)
}

func TestInvoke_PanicIsReported(t *testing.T) {
	h := guesttest.New()
	e := h.Registry.MustRegister(entry.Descriptor{Name: "Divide", Params: entry.Params("a", "b")},
		func(a, b int) int { return a / b })

	err := h.Call(e.Export, map[string]any{"a": 1, "b": 0}, nil)
	require.Error(t, err)

	var fault *domainerrors.GuestFaultError
	require.ErrorAs(t, err, &fault)
	assert.Contains(t, fault.Report.Message, "divide by zero")
	assert.Contains(t, fault.Report.File, "registry_test.go")
	assert.NotZero(t, fault.Report.Line)
	assert.Contains(t, fault.Report.Function, "TestInvoke_PanicIsReported")
	h.AssertNoLeaks(t)
}

func TestInvoke_UnknownExport(t *testing.T) {
	h := guesttest.New()
	h.Registry.MustRegister(entry.Descriptor{Name: "AddOne", Params: entry.Params("x")}, addOne)

	err := h.Call("user_fn__missing", map[string]any{"x": 1}, nil)
	assert.Error(t, err)

	err = h.Call("user_fn_info__add_one", map[string]any{"x": 1}, nil)
	assert.Error(t, err, "info exports are not invocable")

	_, err = h.Info("user_fn__add_one")
	var fault *domainerrors.GuestFaultError
	require.ErrorAs(t, err, &fault)
	assert.Contains(t, fault.Report.File, "invoke.go")
	assert.NotZero(t, fault.Report.Line)
	h.AssertNoLeaks(t)
}

func TestInvoke_WithoutReporter(t *testing.T) {
	r := entry.NewRegistry(entry.WithArena(guesttest.New().Arena))
	r.MustRegister(entry.Descriptor{Name: "Boom"}, func() int { panic(errors.New("boom")) })

	assert.Zero(t, r.Invoke("user_fn__boom", 0, 0))
}

func TestInvoke_ReporterPanicIsContained(t *testing.T) {
	h := guesttest.New()
	h.Registry.SetReporter(func(entities.PanicReport) { panic("reporter broke") })
	h.Registry.MustRegister(entry.Descriptor{Name: "Boom"}, func() int { panic("boom") })

	assert.NotPanics(t, func() {
		assert.Zero(t, h.Registry.Invoke("user_fn__boom", 0, 0))
	})
}
