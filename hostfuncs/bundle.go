package hostfuncs

import (
	"context"
	"io"
	"log/slog"

	"github.com/middle-dev/middle-sdk/domain/entities"
	"github.com/middle-dev/middle-sdk/domain/errors"
	"github.com/middle-dev/middle-sdk/domain/ports"
)

// Import names of the `middle` host module.
const (
	ModuleName = "middle"

	FuncRequest = "host_request"
	FuncPrint   = "host_print"
	FuncPause   = "host_pause"
	FuncPrompt  = "host_prompt"
	FuncPanic   = "host_panic"
)

// HostFuncBundle is a set of related host functions registered together.
type HostFuncBundle interface {
	Handlers() map[string]ByteHandler
}

type staticBundle struct {
	handlers map[string]ByteHandler
}

func (b *staticBundle) Handlers() map[string]ByteHandler {
	return b.handlers
}

// Services are the host-side implementations behind the `middle` imports.
type Services struct {
	HTTP    ports.HTTPClient
	Console *Console
	Pauses  *PauseStore
	Prompts *PromptBroker

	logger *slog.Logger
}

// NewServices builds services from a host configuration. prompter may be nil
// when no workflow prompts; prompts then fail with an error answer.
func NewServices(cfg entities.HostConfig, prompter ports.Prompter, validator ports.SchemaValidator, out io.Writer, logger *slog.Logger) *Services {
	if prompter == nil {
		prompter = noPrompter{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Services{
		HTTP: NewHTTPClient(
			WithHTTPTimeout(cfg.HTTP.Timeout),
			WithHTTPMaxBodySize(cfg.HTTP.MaxBodySize),
			WithHTTPUserAgent(cfg.HTTP.UserAgent),
			WithHTTPAddressFilter(NewAddressFilter(WithAllowPrivate(cfg.HTTP.AllowPrivate))),
		),
		Console: NewConsole(out, logger),
		Pauses:  NewPauseStore(),
		Prompts: NewPromptBroker(prompter, validator),
		logger:  logger,
	}
}

// Forget drops pause and prompt state of a finished run.
func (s *Services) Forget(run string) {
	s.Pauses.Forget(run)
	s.Prompts.Forget(run)
}

// Bundle returns the five `middle` imports as ByteHandlers. host_pause takes
// the encoded millisecond count and returns an encoded bool.
func (s *Services) Bundle() HostFuncBundle {
	return &staticBundle{
		handlers: map[string]ByteHandler{
			FuncRequest: NewHandler(func(ctx context.Context, req entities.HostRequest) entities.RequestResult {
				return PerformRequest(ctx, loggedClient{next: s.HTTP, logger: s.logger}, req)
			}),
			FuncPrint:  NewSink(s.Console.Print),
			FuncPanic:  NewSink(s.Console.Panic),
			FuncPause:  NewHandler(s.Pauses.Pause),
			FuncPrompt: NewHandler(s.Prompts.Prompt),
		},
	}
}

// loggedClient logs failed requests with their classification before the
// error is folded into the guest's result.
type loggedClient struct {
	next   ports.HTTPClient
	logger *slog.Logger
}

func (c loggedClient) Do(ctx context.Context, req entities.HostRequest) (*entities.HostResponse, error) {
	resp, err := c.next.Do(ctx, req)
	if err != nil {
		detail := errors.ToErrorDetail(err)
		c.logger.WarnContext(ctx, "host request failed",
			"url", req.URL, "type", detail.Type, "code", detail.Code, "timeout", detail.IsTimeout)
	}
	return resp, err
}

type noPrompter struct{}

func (noPrompter) IsInteractive() bool { return false }

func (noPrompter) Prompt(context.Context, map[string]any) (any, bool, error) {
	return nil, false, errNoPrompter
}

var errNoPrompter = &HostError{Kind: "UNAVAILABLE", Message: "no prompter configured", Code: 503}
