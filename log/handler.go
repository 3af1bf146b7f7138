// Package log provides a slog handler that writes records to the host console.
//
// Inside a guest module the sdk installs it as the default handler, so
// slog.Info and friends end up as host_print calls.
package log

import (
	"context"
	"log/slog"
	"runtime"
	"slices"
	"strings"

	"github.com/middle-dev/middle-sdk/domain/ports"
)

// Handler implements slog.Handler on top of a ports.Printer.
type Handler struct {
	printer ports.Printer
	opts    handlerConfig
	attrs   []slog.Attr
	groups  []string
}

// HandlerOption configures the Handler.
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	level     slog.Leveler
	addSource bool
}

// defaultHandlerConfig returns the default configuration.
func defaultHandlerConfig() handlerConfig {
	return handlerConfig{
		level: slog.LevelInfo,
	}
}

// WithLevel sets the minimum log level to report.
// Records below this level are dropped in the guest and never cross the boundary.
func WithLevel(level slog.Leveler) HandlerOption {
	return func(c *handlerConfig) {
		if level != nil {
			c.level = level
		}
	}
}

// WithSource enables reporting of source location (file/line).
func WithSource(enabled bool) HandlerOption {
	return func(c *handlerConfig) {
		c.addSource = enabled
	}
}

// NewHandler creates a Handler writing to printer.
func NewHandler(printer ports.Printer, opts ...HandlerOption) *Handler {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Handler{printer: printer, opts: cfg}
}

// Enabled reports whether the handler handles records at the given level.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.level.Level()
}

// Handle formats record as one logfmt line and prints it.
func (h *Handler) Handle(_ context.Context, record slog.Record) error {
	var b strings.Builder
	writePair(&b, "level", record.Level.String())
	writePair(&b, "msg", record.Message)

	if h.opts.addSource && record.PC != 0 {
		frames := runtime.CallersFrames([]uintptr{record.PC})
		if f, _ := frames.Next(); f.File != "" {
			writePair(&b, "source", formatSource(f.File, f.Line))
		}
	}

	for _, a := range h.attrs {
		writeAttr(&b, "", a)
	}
	prefix := strings.Join(h.groups, ".")
	record.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, prefix, a)
		return true
	})

	h.printer.Print(b.String())
	return nil
}

// WithAttrs returns a Handler that adds attrs to every record.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	next := h.clone()
	prefix := strings.Join(h.groups, ".")
	for _, a := range attrs {
		if prefix != "" {
			a.Key = prefix + "." + a.Key
		}
		next.attrs = append(next.attrs, a)
	}
	return next
}

// WithGroup returns a Handler that qualifies later attribute keys with name.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := h.clone()
	next.groups = append(next.groups, name)
	return next
}

func (h *Handler) clone() *Handler {
	return &Handler{
		printer: h.printer,
		opts:    h.opts,
		attrs:   slices.Clone(h.attrs),
		groups:  slices.Clone(h.groups),
	}
}
