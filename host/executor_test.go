package host_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	sdk "github.com/middle-dev/middle-sdk"
	"github.com/middle-dev/middle-sdk/application/entry"
	"github.com/middle-dev/middle-sdk/domain/entities"
	domainerrors "github.com/middle-dev/middle-sdk/domain/errors"
	"github.com/middle-dev/middle-sdk/host"
	"github.com/middle-dev/middle-sdk/infrastructure/prompter"
	"github.com/middle-dev/middle-sdk/internal/abi"
	"github.com/middle-dev/middle-sdk/resumable"
)

func TestNewExecutor(t *testing.T) {
	ctx := context.Background()
	e, err := host.NewExecutor(ctx)
	require.NoError(t, err)
	assert.Equal(t, "middle", e.Config().ModuleName)
	assert.True(t, e.Server().Registry().Has("host_pause"))
	assert.NoError(t, e.Close(ctx))
}

func TestNewExecutor_InvalidConfig(t *testing.T) {
	cfg := entities.DefaultHostConfig()
	cfg.Prompt.Mode = "telepathy"

	_, err := host.NewExecutor(context.Background(), host.WithConfig(cfg))
	var cfgErr *domainerrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "HostConfig.Prompt.Mode", cfgErr.Field)
}

func TestLoadModule_RejectsInvalidWasm(t *testing.T) {
	ctx := context.Background()
	e, err := host.NewExecutor(ctx)
	require.NoError(t, err)
	defer e.Close(ctx)

	_, err = e.LoadModule(ctx, []byte("not wasm"))
	assert.ErrorContains(t, err, "failed to instantiate module")
}

type point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// NativeSuite drives entry registries linked in-process through a real
// executor: the host services, import server and boundary protocol all run.
type NativeSuite struct {
	suite.Suite
	ctx   context.Context
	out   *bytes.Buffer
	exec  *host.Executor
	arena *abi.Arena
	reg   *entry.Registry
	mod   *host.Module
}

func (s *NativeSuite) SetupTest() {
	s.ctx = context.Background()
	s.out = &bytes.Buffer{}
	s.arena = abi.NewArena()
	s.reg = entry.NewRegistry(entry.WithArena(s.arena))

	cfg := entities.DefaultHostConfig().Apply(
		entities.WithAllowPrivate(true),
		entities.WithPromptAnswers(21),
	)
	cfg.Workflow.PollInterval = time.Millisecond

	var err error
	s.exec, err = host.NewExecutor(s.ctx, host.WithConfig(cfg), host.WithOutput(s.out))
	s.Require().NoError(err)

	s.register()
	s.mod = s.exec.LinkNative(s.reg)
}

func (s *NativeSuite) TearDownTest() {
	s.Empty(s.arena.Outstanding(), "guest memory blocks leaked")
	s.NoError(s.exec.Close(s.ctx))
}

func TestNativeSuite(t *testing.T) {
	suite.Run(t, new(NativeSuite))
}

func (s *NativeSuite) register() {
	s.reg.MustRegister(entry.Descriptor{
		Name:        "AddOne",
		Description: "Adds one.",
		Params:      entry.Params("x"),
	}, func(x int) int { return x + 1 })

	s.reg.MustRegister(entry.Descriptor{Name: "Shift", Params: entry.Params("p", "dx")},
		func(p point, dx int) point { return point{X: p.X + dx, Y: p.Y} })

	s.reg.MustRegister(entry.Descriptor{Name: "Greet", Params: entry.Params("name")},
		func(ctx context.Context, name string) string {
			sdk.FromContext(ctx).Printf("greeting %s", name)
			return "hello " + name
		})

	s.reg.MustRegister(entry.Descriptor{Name: "Divide", Params: entry.Params("a", "b")},
		func(a, b int) int { return a / b })

	s.reg.MustRegister(entry.Descriptor{Name: "Fetch", Params: entry.Params("url")},
		func(ctx context.Context, url string) (string, error) {
			resp, err := sdk.Get(url).Call(ctx)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%d %s", resp.Code(), resp.Body()), nil
		})

	s.reg.MustRegister(entry.Descriptor{Name: "Nap", Kind: entry.KindWorkflow, Params: entry.Params("ms")},
		func(ctx context.Context, ms int) resumable.Resumable[string] {
			c := sdk.FromContext(ctx)
			c.Print("napping")
			return resumable.Map(c.Pause(time.Duration(ms)*time.Millisecond), func(struct{}) string {
				return "rested"
			})
		})

	s.reg.MustRegister(entry.Descriptor{Name: "Double", Kind: entry.KindWorkflow},
		func(ctx context.Context) resumable.Resumable[int] {
			return resumable.Map(sdk.Prompt[int](sdk.FromContext(ctx)), func(r sdk.Result[int]) int {
				v, err := r.Unwrap()
				if err != nil {
					return -1
				}
				return v * 2
			})
		})

	s.reg.MustRegister(entry.Descriptor{Name: "Forever", Kind: entry.KindWorkflow},
		func() resumable.Resumable[int] { return resumable.Pause[int]() })
}

func (s *NativeSuite) TestFunctions() {
	var names []string
	for _, fn := range s.mod.Functions() {
		names = append(names, fn.Name)
	}
	s.Equal([]string{"add_one", "divide", "double", "fetch", "forever", "greet", "nap", "shift"}, names)

	fn, ok := s.mod.Lookup("user_workflow__nap")
	s.Require().True(ok)
	s.True(fn.Workflow)
	s.Equal("user_workflow_info__nap", fn.InfoExport)

	_, ok = s.mod.Lookup("missing")
	s.False(ok)
}

func (s *NativeSuite) TestInfo() {
	info, err := s.mod.Info(s.ctx, "add_one")
	s.Require().NoError(err)
	s.Equal("Adds one.", info.Description)
	s.Equal("object", info.InputSchema["type"])

	_, err = s.mod.Info(s.ctx, "missing")
	s.Error(err)
}

func (s *NativeSuite) TestCall() {
	res, err := s.mod.Call(s.ctx, "add_one", map[string]any{"x": 41})
	s.Require().NoError(err)

	var out struct {
		Value int `json:"value"`
	}
	s.Require().NoError(res.Decode(&out))
	s.Equal(42, out.Value)
	s.Equal(1, res.Attempts)
}

func (s *NativeSuite) TestCall_Records() {
	res, err := s.mod.Call(s.ctx, "shift", map[string]any{"p": point{X: 1, Y: 2}, "dx": 3})
	s.Require().NoError(err)

	var out struct {
		Value point `json:"value"`
	}
	s.Require().NoError(res.Decode(&out))
	s.Equal(point{X: 4, Y: 2}, out.Value)
}

func (s *NativeSuite) TestCall_Print() {
	res, err := s.mod.Call(s.ctx, "greet", map[string]any{"name": "ada"})
	s.Require().NoError(err)

	env, err := res.Envelope()
	s.Require().NoError(err)
	s.Equal("hello ada", env["value"])
	s.Equal("greeting ada\n", res.Output)
	s.Equal("greeting ada\n", s.out.String())
}

func (s *NativeSuite) TestCall_GuestFault() {
	_, err := s.mod.Call(s.ctx, "divide", map[string]any{"a": 1, "b": 0})

	var fault *domainerrors.GuestFaultError
	s.Require().ErrorAs(err, &fault)
	s.Contains(fault.Report.Message, "divide by zero")
	s.Equal("user_fn__divide", fault.Report.Entry)
}

func (s *NativeSuite) TestCall_Request() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pong"))
	}))
	defer srv.Close()

	res, err := s.mod.Call(s.ctx, "fetch", map[string]any{"url": srv.URL})
	s.Require().NoError(err)

	env, err := res.Envelope()
	s.Require().NoError(err)
	s.Equal("200 pong", env["value"])
	s.Nil(env["error"])
}

func (s *NativeSuite) TestCall_Rejections() {
	_, err := s.mod.Call(s.ctx, "nap", nil)
	s.ErrorContains(err, "use RunWorkflow")

	_, err = s.mod.Call(s.ctx, "nope", nil)
	s.ErrorContains(err, "unknown function")
}

func (s *NativeSuite) TestRunWorkflow_Pause() {
	res, err := s.mod.RunWorkflow(s.ctx, "nap", map[string]any{"ms": 20})
	s.Require().NoError(err)

	env, err := res.Envelope()
	s.Require().NoError(err)
	s.Equal("rested", env["value"])
	s.GreaterOrEqual(res.Attempts, 2)
	s.Equal("napping\n", res.Output, "replayed prints are not repeated")
	s.Equal("napping\n", s.out.String())
}

func (s *NativeSuite) TestRunWorkflow_Prompt() {
	res, err := s.mod.RunWorkflow(s.ctx, "double", nil)
	s.Require().NoError(err)

	env, err := res.Envelope()
	s.Require().NoError(err)
	s.EqualValues(42, env["value"])
}

func (s *NativeSuite) TestRunWorkflow_MaxAttempts() {
	_, err := s.mod.RunWorkflow(s.ctx, "forever", nil)
	s.ErrorIs(err, host.ErrStillPaused)
}

func (s *NativeSuite) TestRunWorkflow_ContextCanceled() {
	ctx, cancel := context.WithTimeout(s.ctx, 20*time.Millisecond)
	defer cancel()

	_, err := s.mod.RunWorkflow(ctx, "nap", map[string]any{"ms": 60_000})
	s.True(errors.Is(err, context.DeadlineExceeded))
}

func (s *NativeSuite) TestStep() {
	run := hostRun("step-1")
	step, err := s.mod.Step(s.ctx, run, "forever", []byte{0x80})
	s.Require().NoError(err)
	s.True(step.IsPause())
	s.Equal(1, run.Attempt())

	_, err = s.mod.Step(s.ctx, run, "add_one", []byte{0x80})
	s.ErrorContains(err, "not a workflow")
}

func TestLinkNative_PromptWithoutAnswers(t *testing.T) {
	ctx := context.Background()
	cfg := entities.DefaultHostConfig().Apply(entities.WithMaxAttempts(2))
	cfg.Workflow.PollInterval = time.Millisecond

	e, err := host.NewExecutor(ctx, host.WithConfig(cfg), host.WithPrompter(prompter.NewStaticPrompter()))
	require.NoError(t, err)
	defer e.Close(ctx)

	reg := entry.NewRegistry(entry.WithArena(abi.NewArena()))
	reg.MustRegister(entry.Descriptor{Name: "Ask", Kind: entry.KindWorkflow},
		func(ctx context.Context) resumable.Resumable[string] {
			return resumable.Map(sdk.Prompt[string](sdk.FromContext(ctx)), func(r sdk.Result[string]) string {
				return r.Value
			})
		})

	_, err = e.LinkNative(reg).RunWorkflow(ctx, "ask", nil)
	assert.ErrorIs(t, err, host.ErrStillPaused)
	assert.Empty(t, reg.Arena().Outstanding())
}
