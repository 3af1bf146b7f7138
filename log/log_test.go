package log

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePrinter struct {
	lines []string
}

func (p *capturePrinter) Print(msg string) {
	p.lines = append(p.lines, msg)
}

func TestFormatValue(t *testing.T) {
	type payload struct {
		Field string `json:"field"`
	}

	tests := []struct {
		name string
		val  slog.Value
		want string
	}{
		{name: "string", val: slog.StringValue("value"), want: "value"},
		{name: "int64", val: slog.Int64Value(-123), want: "-123"},
		{name: "uint64", val: slog.Uint64Value(7), want: "7"},
		{name: "bool", val: slog.BoolValue(true), want: "true"},
		{name: "float64", val: slog.Float64Value(1.25), want: "1.25"},
		{name: "time", val: slog.TimeValue(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)), want: "2024-01-01T00:00:00Z"},
		{name: "duration", val: slog.DurationValue(time.Hour), want: "1h0m0s"},
		{name: "error", val: slog.AnyValue(errors.New("test error")), want: "test error"},
		{name: "nil", val: slog.AnyValue(nil), want: "<nil>"},
		{name: "json", val: slog.AnyValue(payload{Field: "data"}), want: `{"field":"data"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatValue(tt.val))
		})
	}
}

type logValuer struct {
	val string
}

func (l logValuer) LogValue() slog.Value {
	return slog.StringValue(l.val)
}

func TestHandler_Handle(t *testing.T) {
	p := &capturePrinter{}
	logger := slog.New(NewHandler(p))

	logger.Info("fetched url", "code", 200, "resolved", logValuer{val: "ok"}, "note", "two words")

	require.Len(t, p.lines, 1)
	assert.Equal(t, `level=INFO msg="fetched url" code=200 resolved=ok note="two words"`, p.lines[0])
}

func TestHandler_Level(t *testing.T) {
	p := &capturePrinter{}
	logger := slog.New(NewHandler(p, WithLevel(slog.LevelWarn)))

	logger.Info("dropped")
	logger.Warn("kept")

	require.Len(t, p.lines, 1)
	assert.Contains(t, p.lines[0], "msg=kept")
}

func TestHandler_AttrsAndGroups(t *testing.T) {
	p := &capturePrinter{}
	logger := slog.New(NewHandler(p)).With("run", "r1").WithGroup("call").With("export", "user_fn__add")

	logger.Info("done", slog.Group("mem", slog.Int("blocks", 2)))

	require.Len(t, p.lines, 1)
	assert.Equal(t, "level=INFO msg=done run=r1 call.export=user_fn__add call.mem.blocks=2", p.lines[0])
}

func TestHandler_Source(t *testing.T) {
	p := &capturePrinter{}
	logger := slog.New(NewHandler(p, WithSource(true)))

	logger.Info("here")

	require.Len(t, p.lines, 1)
	assert.Contains(t, p.lines[0], "source=log_test.go:")
}

func TestNewHandler_Defaults(t *testing.T) {
	h := NewHandler(&capturePrinter{})
	assert.True(t, h.Enabled(context.TODO(), slog.LevelInfo))
	assert.False(t, h.Enabled(context.TODO(), slog.LevelDebug))
}

func TestNewHandler_Options(t *testing.T) {
	h := NewHandler(&capturePrinter{}, WithLevel(slog.LevelDebug), WithSource(true))
	assert.True(t, h.Enabled(context.TODO(), slog.LevelDebug))
	assert.True(t, h.opts.addSource)
}
