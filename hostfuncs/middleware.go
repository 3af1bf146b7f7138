package hostfuncs

import (
	"context"
	"log/slog"
	"time"
)

// Middleware wraps a ByteHandler to add cross-cutting behavior.
// Middleware executes in FIFO order (first registered wraps outermost).
type Middleware func(next ByteHandler) ByteHandler

// RegistryOption is a functional option for configuring a HandlerRegistry.
type RegistryOption func(*registryBuilder)

// PanicRecoveryMiddleware converts handler panics into a *HostError instead
// of crashing the host.
func PanicRecoveryMiddleware() Middleware {
	return func(next ByteHandler) ByteHandler {
		return func(ctx context.Context, payload []byte) (resp []byte, err error) {
			defer func() {
				if r := recover(); r != nil {
					resp = nil
					err = NewPanicError(r)
				}
			}()
			return next(ctx, payload)
		}
	}
}

// LoggingMiddleware logs every host function invocation at debug level and
// failures at warn.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next ByteHandler) ByteHandler {
		return func(ctx context.Context, payload []byte) ([]byte, error) {
			funcName := "unknown"
			if hc, ok := ctx.(HostContext); ok {
				funcName = hc.FunctionName()
			}
			attrs := []any{slog.String("func", funcName), slog.Int("req_bytes", len(payload))}
			if run := RunFrom(ctx); run != nil {
				attrs = append(attrs, slog.String("run", run.ID), slog.Int("attempt", run.Attempt()))
			}

			start := time.Now()
			resp, err := next(ctx, payload)
			attrs = append(attrs, slog.Duration("took", time.Since(start)))
			if err != nil {
				logger.WarnContext(ctx, "host function failed", append(attrs, slog.Any("error", err))...)
			} else {
				logger.DebugContext(ctx, "host function completed", append(attrs, slog.Int("resp_bytes", len(resp)))...)
			}
			return resp, err
		}
	}
}
