package host

import (
	"io"
	"log/slog"

	"github.com/middle-dev/middle-sdk/domain/entities"
	"github.com/middle-dev/middle-sdk/domain/ports"
	"github.com/middle-dev/middle-sdk/hostfuncs"
)

// Option defines a functional option for configuring the Executor.
type Option func(*Executor)

// WithConfig sets the host configuration. The default is
// entities.DefaultHostConfig.
func WithConfig(cfg entities.HostConfig) Option {
	return func(e *Executor) {
		e.cfg = cfg
	}
}

// WithLogger sets the host logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithPrompter sets the backend answering host_prompt. Without one the
// prompter is chosen from the config's prompt mode.
func WithPrompter(p ports.Prompter) Option {
	return func(e *Executor) {
		e.prompter = p
	}
}

// WithSchemaValidator replaces the validator applied to prompt answers.
func WithSchemaValidator(v ports.SchemaValidator) Option {
	return func(e *Executor) {
		e.validator = v
	}
}

// WithOutput sets where guest console output is echoed.
func WithOutput(w io.Writer) Option {
	return func(e *Executor) {
		e.out = w
	}
}

// WithInput sets the reader the CLI prompter reads answers from.
func WithInput(r io.Reader) Option {
	return func(e *Executor) {
		e.in = r
	}
}

// WithHostFunctions adds registry options, such as extra middleware, to the
// host function registry.
func WithHostFunctions(opts ...hostfuncs.RegistryOption) Option {
	return func(e *Executor) {
		e.registryOpts = append(e.registryOpts, opts...)
	}
}
