package host

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/middle-dev/middle-sdk/application/validation"
	"github.com/middle-dev/middle-sdk/domain/entities"
	"github.com/middle-dev/middle-sdk/domain/ports"
	"github.com/middle-dev/middle-sdk/hostfuncs"
	"github.com/middle-dev/middle-sdk/infrastructure/prompter"
	wazeroadapter "github.com/middle-dev/middle-sdk/infrastructure/wazero"
)

// wasmPageSize is the size of one wasm memory page.
const wasmPageSize = 64 * 1024

// Executor loads guests and serves their host calls.
type Executor struct {
	cfg          entities.HostConfig
	logger       *slog.Logger
	prompter     ports.Prompter
	validator    ports.SchemaValidator
	in           io.Reader
	out          io.Writer
	registryOpts []hostfuncs.RegistryOption

	runtime  wazero.Runtime
	services *hostfuncs.Services
	server   *hostfuncs.ImportServer

	modules atomic.Uint64
	runs    atomic.Uint64
}

// NewExecutor creates a new executor with the given options.
func NewExecutor(ctx context.Context, opts ...Option) (*Executor, error) {
	e := &Executor{
		cfg:    entities.DefaultHostConfig(),
		logger: slog.Default(),
		in:     os.Stdin,
		out:    os.Stdout,
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := validation.ValidateStruct(e.cfg); err != nil {
		return nil, err
	}

	if e.prompter == nil {
		p, err := prompter.New(e.cfg.Prompt, e.in, e.out)
		if err != nil {
			return nil, err
		}
		e.prompter = p
	}
	if e.validator == nil {
		e.validator = validation.NewSchemaValidator()
	}

	e.services = hostfuncs.NewServices(e.cfg, e.prompter, e.validator, e.out, e.logger)

	regOpts := append([]hostfuncs.RegistryOption{
		hostfuncs.WithBundle(e.services.Bundle()),
		hostfuncs.WithMiddleware(
			hostfuncs.PanicRecoveryMiddleware(),
			hostfuncs.LoggingMiddleware(e.logger),
		),
	}, e.registryOpts...)
	reg, err := hostfuncs.NewRegistry(regOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create host function registry: %w", err)
	}

	serverOpts := []hostfuncs.ServerOption{hostfuncs.WithServerLogger(e.logger)}
	if e.cfg.MaxRequestSize > 0 {
		serverOpts = append(serverOpts, hostfuncs.WithMaxRequestSize(uint32(e.cfg.MaxRequestSize))) //nolint:gosec // validated non-negative
	}
	e.server = hostfuncs.NewImportServer(reg, serverOpts...)

	rtCfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if pages := e.cfg.MaxGuestMemory / wasmPageSize; pages > 0 && pages <= 65536 {
		rtCfg = rtCfg.WithMemoryLimitPages(uint32(pages)) //nolint:gosec // bounded above
	}
	rt := wazero.NewRuntimeWithConfig(ctx, rtCfg)
	wasi_snapshot_preview1.MustInstantiate(ctx, rt)
	e.runtime = rt

	if err := wazeroadapter.RegisterWithRuntime(ctx, rt, e.server,
		wazeroadapter.WithModuleName(e.cfg.ModuleName),
		wazeroadapter.WithLogger(e.logger),
	); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to register host functions: %w", err)
	}

	return e, nil
}

// Close releases resources held by the executor.
func (e *Executor) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// Config returns the configuration the executor runs with.
func (e *Executor) Config() entities.HostConfig {
	return e.cfg
}

// Server returns the import server behind the `middle` module.
func (e *Executor) Server() *hostfuncs.ImportServer {
	return e.server
}

func (e *Executor) newRun() *hostfuncs.Run {
	return hostfuncs.NewRun(fmt.Sprintf("run-%d", e.runs.Add(1)), 0)
}
