package observability

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	dbTracerName     = "cashwidget/db"
	ledgerTracerName = "cashwidget/ledger"
)

type contextKey string

const (
	tenantKeyContextKey contextKey = "observability.tenant_key"
	requestIDKey        contextKey = "observability.request_id"
	routeKey            contextKey = "observability.route"
)

// Span is the application-level tracing span contract.
type Span interface {
	End()
	RecordError(error)
	SetAttributes(...attribute.KeyValue)
}

type otelSpan struct {
	inner trace.Span
}

// StartDBSpan starts a database tracing span for one query operation.
func StartDBSpan(ctx context.Context, queryName, operation string) (context.Context, Span) {
	queryName = strings.TrimSpace(queryName)
	if queryName == "" {
		queryName = "unknown"
	}
	attrs := []attribute.KeyValue{
		attribute.String("db.system.name", "sqlite"),
		attribute.String("db.query_name", queryName),
		attribute.String("db.operation", strings.TrimSpace(operation)),
	}
	if tenant, ok := TenantKeyFromContext(ctx); ok {
		attrs = append(attrs, attribute.String("cashwidget.public_key", tenant))
	}

	ctx, span := otel.Tracer(dbTracerName).Start(ctx, "db."+queryName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)

	return ctx, otelSpan{inner: span}
}

// StartLedgerSpan starts a client span around one wallet ledger credit attempt.
func StartLedgerSpan(ctx context.Context, sink string) (context.Context, Span) {
	attrs := []attribute.KeyValue{
		attribute.String("cashwidget.ledger.sink", strings.TrimSpace(sink)),
	}
	if tenant, ok := TenantKeyFromContext(ctx); ok {
		attrs = append(attrs, attribute.String("cashwidget.public_key", tenant))
	}
	ctx, span := otel.Tracer(ledgerTracerName).Start(ctx, "ledger.credit",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
	return ctx, otelSpan{inner: span}
}

// WithTenant enriches context and current span with the tenant public key.
func WithTenant(ctx context.Context, publicKey string) context.Context {
	publicKey = strings.TrimSpace(publicKey)
	if publicKey == "" {
		return ctx
	}
	ctx = context.WithValue(ctx, tenantKeyContextKey, publicKey)
	if span := trace.SpanFromContext(ctx); span != nil {
		span.SetAttributes(attribute.String("cashwidget.public_key", publicKey))
	}
	return ctx
}

// WithRequestMetadata enriches context and current span with request metadata.
func WithRequestMetadata(ctx context.Context, requestID, route string) context.Context {
	requestID = strings.TrimSpace(requestID)
	route = strings.TrimSpace(route)
	if requestID != "" {
		ctx = context.WithValue(ctx, requestIDKey, requestID)
	}
	if route != "" {
		ctx = context.WithValue(ctx, routeKey, route)
	}
	setSpanRequestAttributes(ctx, requestID, route)
	return ctx
}

// TenantKeyFromContext extracts the tenant public key bound to the request.
func TenantKeyFromContext(ctx context.Context) (string, bool) {
	value, ok := ctx.Value(tenantKeyContextKey).(string)
	return value, ok && value != ""
}

// RequestIDFromContext extracts request id.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	value, ok := ctx.Value(requestIDKey).(string)
	value = strings.TrimSpace(value)
	return value, ok && value != ""
}

// RouteFromContext extracts normalized route path.
func RouteFromContext(ctx context.Context) (string, bool) {
	value, ok := ctx.Value(routeKey).(string)
	value = strings.TrimSpace(value)
	return value, ok && value != ""
}

func setSpanRequestAttributes(ctx context.Context, requestID, route string) {
	span := trace.SpanFromContext(ctx)
	if span == nil {
		return
	}
	attrs := make([]attribute.KeyValue, 0, 2)
	if requestID != "" {
		attrs = append(attrs, attribute.String("request.id", requestID))
	}
	if route != "" {
		attrs = append(attrs, attribute.String("http.route", route))
	}
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
}

func (s otelSpan) End() {
	if s.inner == nil {
		return
	}
	s.inner.End()
}

func (s otelSpan) RecordError(err error) {
	if s.inner == nil || err == nil {
		return
	}
	s.inner.RecordError(err)
	s.inner.SetStatus(codes.Error, err.Error())
}

func (s otelSpan) SetAttributes(attrs ...attribute.KeyValue) {
	if s.inner == nil || len(attrs) == 0 {
		return
	}
	s.inner.SetAttributes(attrs...)
}
