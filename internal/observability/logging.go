package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogSink describes where structured logs are written.
type LogSink struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
	Debug      bool
}

// NewLogger builds the process logger. Logs always go to stdout and are
// tee'd into a rotating file when File is set. The returned closer releases
// the file handle.
func NewLogger(sink LogSink) (*slog.Logger, io.Closer) {
	var out io.Writer = os.Stdout
	var closer io.Closer = nopCloser{}
	if path := strings.TrimSpace(sink.File); path != "" {
		rotating := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    positiveOr(sink.MaxSizeMB, 100),
			MaxBackups: positiveOr(sink.MaxBackups, 5),
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, rotating)
		closer = rotating
	}
	level := slog.LevelInfo
	if sink.Debug {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	return slog.New(WrapSlogHandler(handler)), closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func positiveOr(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}

type traceAwareHandler struct {
	next slog.Handler
}

// WrapSlogHandler adds trace, tenant and request context fields to structured logs.
func WrapSlogHandler(next slog.Handler) slog.Handler {
	if next == nil {
		next = slog.NewTextHandler(io.Discard, nil)
	}
	return &traceAwareHandler{next: next}
}

func (h *traceAwareHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *traceAwareHandler) Handle(ctx context.Context, record slog.Record) error {
	if requestID, ok := RequestIDFromContext(ctx); ok {
		record.AddAttrs(slog.String("request_id", requestID))
	}
	if route, ok := RouteFromContext(ctx); ok {
		record.AddAttrs(slog.String("route", route))
	}
	if tenant, ok := TenantKeyFromContext(ctx); ok {
		record.AddAttrs(slog.String("public_key", tenant))
	}

	span := trace.SpanFromContext(ctx)
	if span != nil {
		sc := span.SpanContext()
		if sc.IsValid() {
			record.AddAttrs(
				slog.String("trace_id", sc.TraceID().String()),
				slog.String("span_id", sc.SpanID().String()),
			)
		}
	}

	return h.next.Handle(ctx, record)
}

func (h *traceAwareHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceAwareHandler{next: h.next.WithAttrs(attrs)}
}

func (h *traceAwareHandler) WithGroup(name string) slog.Handler {
	return &traceAwareHandler{next: h.next.WithGroup(name)}
}
