//go:build !notrace

package xenon

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"runtime"
	"time"
)

type traceLoggerKey struct{}
type spanIDKey struct{}

// TracingEnabled gates all trace output. It starts out off; flip it
// with SetTracingEnabled. Even when on, output only appears if a
// logger was installed with WithTraceLogger.
var TracingEnabled = false

// the null logger is a logger that does nothing
var nullLogger = slog.New(slog.DiscardHandler)

// TraceSpan ends a region opened with StartSpan.
type TraceSpan interface {
	End()
}

type noOpSpan struct{}

func (noOpSpan) End() {}

// SpanInfo holds information about a tracing span.
type SpanInfo struct {
	ID       string
	ParentID string
	Name     string
	Start    time.Time
	Tags     map[string]string
}

// SetTracingEnabled toggles trace output at runtime.
func SetTracingEnabled(enabled bool) {
	TracingEnabled = enabled
}

// WithTraceLogger installs the logger that trace output goes to. A
// logger already present in the context wins.
func WithTraceLogger(ctx context.Context, tlog *slog.Logger) context.Context {
	if _, ok := ctx.Value(traceLoggerKey{}).(*slog.Logger); ok {
		return ctx
	}

	return context.WithValue(ctx, traceLoggerKey{}, tlog)
}

func getTraceLogFromContext(ctx context.Context) *slog.Logger {
	if tlog, ok := ctx.Value(traceLoggerKey{}).(*slog.Logger); ok {
		// Retrieve the function name of the caller for tracing
		pc, _, _, ok := runtime.Caller(2)
		if ok {
			fn := runtime.FuncForPC(pc)
			if fn != nil {
				tlog = tlog.With(slog.String("fn", fn.Name()))
			}
		}

		return tlog
	}

	return nullLogger
}

// WithSpan derives a context carrying a fresh span. The returned
// SpanInfo records the parent span of nested spans.
func WithSpan(ctx context.Context, name string) (context.Context, *SpanInfo) {
	if !TracingEnabled {
		return ctx, nil
	}

	info := &SpanInfo{
		ID:    generateSpanID(),
		Name:  name,
		Start: time.Now(),
	}
	if parent, ok := ctx.Value(spanIDKey{}).(string); ok {
		info.ParentID = parent
	}
	return context.WithValue(ctx, spanIDKey{}, info.ID), info
}

// StartSpan opens a span and logs its START record. Ending the
// returned TraceSpan logs the END record with the elapsed duration.
func StartSpan(ctx context.Context, spanName string) (context.Context, TraceSpan) {
	if !TracingEnabled {
		return ctx, noOpSpan{}
	}

	ctx, info := WithSpan(ctx, spanName)
	tlog := getTraceLogFromContext(ctx)
	tlog.LogAttrs(ctx, slog.LevelDebug, "START "+spanName,
		slog.String("span_id", info.ID),
		slog.String("span_name", spanName),
	)
	return ctx, &activeSpan{ctx: ctx, info: info}
}

type activeSpan struct {
	ctx  context.Context
	info *SpanInfo
}

func (s *activeSpan) End() {
	tlog := getTraceLogFromContext(s.ctx)
	tlog.LogAttrs(s.ctx, slog.LevelDebug, "END "+s.info.Name,
		slog.String("span_id", s.info.ID),
		slog.String("span_name", s.info.Name),
		slog.Duration("duration", time.Since(s.info.Start)),
	)
}

// TraceEvent logs a structured event against the current span.
func TraceEvent(ctx context.Context, msg string, attrs ...slog.Attr) {
	if !TracingEnabled {
		return
	}

	tlog := getTraceLogFromContext(ctx)
	if id, ok := ctx.Value(spanIDKey{}).(string); ok {
		attrs = append(attrs, slog.String("span_id", id))
	}
	tlog.LogAttrs(ctx, slog.LevelDebug, msg, attrs...)
}

// TraceError logs an error against the current span.
func TraceError(ctx context.Context, err error, msg string, attrs ...slog.Attr) {
	if !TracingEnabled {
		return
	}

	tlog := getTraceLogFromContext(ctx)
	attrs = append(attrs, slog.String("error", err.Error()))
	if id, ok := ctx.Value(spanIDKey{}).(string); ok {
		attrs = append(attrs, slog.String("span_id", id))
	}
	tlog.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func generateSpanID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "0000000000000000"
	}
	return hex.EncodeToString(b[:])
}
