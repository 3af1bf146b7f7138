package hostfuncs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/middle-dev/middle-sdk/domain/entities"
)

// Console serves host_print and host_panic. Lines are recorded on the run and
// echoed to the writer once; replayed attempts do not echo again.
type Console struct {
	mu     sync.Mutex
	w      io.Writer
	logger *slog.Logger
}

// NewConsole creates a console writing to w. A nil logger uses slog.Default.
func NewConsole(w io.Writer, logger *slog.Logger) *Console {
	if w == nil {
		w = io.Discard
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Console{w: w, logger: logger}
}

// Print serves host_print.
func (c *Console) Print(ctx context.Context, msg string) {
	if run := RunFrom(ctx); run != nil && !run.appendOutput(msg) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if strings.HasSuffix(msg, "\n") {
		_, _ = io.WriteString(c.w, msg)
		return
	}
	_, _ = fmt.Fprintln(c.w, msg)
}

// Panic serves host_panic.
func (c *Console) Panic(ctx context.Context, report entities.PanicReport) {
	attrs := []any{
		slog.String("entry", report.Entry),
		slog.String("function", report.Function),
		slog.String("location", fmt.Sprintf("%s:%d", report.File, report.Line)),
	}
	if run := RunFrom(ctx); run != nil {
		run.addFault(report)
		attrs = append(attrs, slog.String("run", run.ID))
	}
	c.logger.ErrorContext(ctx, "guest panic: "+report.Message, attrs...)
}
