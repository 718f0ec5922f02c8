package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoopLogger(t *testing.T) {
	logger := OrNoop(nil)

	// Should not panic
	logger.Debug("test")
	logger.Info("test", "key", "value")
	logger.Warn("test", "key", "value")
	logger.Error("test", "key", "value")
}

func TestSlogAdapter(t *testing.T) {
	tests := []struct {
		name      string
		logFunc   func(Logger, string, ...any)
		message   string
		args      []any
		wantLevel string
	}{
		{
			name:      "Debug level",
			logFunc:   func(l Logger, msg string, args ...any) { l.Debug(msg, args...) },
			message:   "statement generated",
			args:      []any{"table", "public.orders"},
			wantLevel: "DEBUG",
		},
		{
			name:      "Info level",
			logFunc:   func(l Logger, msg string, args ...any) { l.Info(msg, args...) },
			message:   "dialect resolved",
			args:      []any{"dialect", "postgresql"},
			wantLevel: "INFO",
		},
		{
			name:      "Warn level",
			logFunc:   func(l Logger, msg string, args ...any) { l.Warn(msg, args...) },
			message:   "time zone probe failed",
			args:      []any{"fallback", "UTC"},
			wantLevel: "WARN",
		},
		{
			name:      "Error level",
			logFunc:   func(l Logger, msg string, args ...any) { l.Error(msg, args...) },
			message:   "schema read failed",
			args:      []any{"error", "connection refused"},
			wantLevel: "ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewTextLogger(&buf, slog.LevelDebug)

			tt.logFunc(logger, tt.message, tt.args...)

			output := buf.String()
			assert.Contains(t, output, "level="+tt.wantLevel)
			assert.Contains(t, output, tt.message)
			assert.Contains(t, output, tt.args[0].(string)+"=")
		})
	}
}

func TestNewTextLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTextLogger(&buf, slog.LevelInfo)

	logger.Debug("hidden")
	assert.Empty(t, buf.String())

	logger.Info("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestWith_SlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	logger := With(NewSlogAdapter(slog.New(slog.NewJSONHandler(&buf, nil))), "dialect", "mysql")

	logger.Info("table described", "table", "shop.orders")

	output := buf.String()
	assert.Contains(t, output, `"dialect":"mysql"`)
	assert.Contains(t, output, `"table":"shop.orders"`)
}

type recordingLogger struct {
	NoopLogger
	args []any
}

func (r *recordingLogger) Warn(_ string, args ...any) { r.args = args }

func TestWith_CustomLogger(t *testing.T) {
	rec := &recordingLogger{}
	logger := With(rec, "dialect", "oracle")

	logger.Warn("probe failed", "error", "boom")
	assert.Equal(t, []any{"dialect", "oracle", "error", "boom"}, rec.args)

	assert.Same(t, rec, With(rec))
}

func BenchmarkNoopLogger(b *testing.B) {
	logger := &NoopLogger{}
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		logger.Debug("statement generated",
			"table", "public.orders",
			"columns", 3)
	}
}
