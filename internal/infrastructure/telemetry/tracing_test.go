package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopalytics/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// setupTestTracer installs an in-memory span recorder as the global
// tracer provider and restores the previous one on cleanup.
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})

	return sr
}

func endedSpan(t *testing.T, sr *tracetest.SpanRecorder) sdktrace.ReadOnlySpan {
	t.Helper()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	return spans[0]
}

func attributeMap(span sdktrace.ReadOnlySpan) map[string]interface{} {
	attrs := make(map[string]interface{}, len(span.Attributes()))
	for _, attr := range span.Attributes() {
		attrs[string(attr.Key)] = attr.Value.AsInterface()
	}
	return attrs
}

func TestStartSpan(t *testing.T) {
	ctx := context.Background()

	t.Run("records name and internal kind by default", func(t *testing.T) {
		sr := setupTestTracer(t)

		_, span := telemetry.StartSpan(ctx, "webhook.process")
		require.NotNil(t, span)
		span.End()

		got := endedSpan(t, sr)
		assert.Equal(t, "webhook.process", got.Name())
		assert.Equal(t, trace.SpanKindInternal, got.SpanKind())
	})

	t.Run("applies options", func(t *testing.T) {
		sr := setupTestTracer(t)

		_, span := telemetry.StartSpan(ctx, "archive.put",
			telemetry.WithAttribute("bucket", "webhook-payloads"),
			telemetry.WithSpanKind(trace.SpanKindClient),
		)
		span.End()

		got := endedSpan(t, sr)
		assert.Equal(t, trace.SpanKindClient, got.SpanKind())
		assert.Equal(t, "webhook-payloads", attributeMap(got)["bucket"])
	})

	t.Run("nests child spans under the parent trace", func(t *testing.T) {
		sr := setupTestTracer(t)

		parentCtx, parent := telemetry.StartSpan(ctx, "dashboard.compose")
		_, child := telemetry.StartSpan(parentCtx, "dashboard.count_orders")
		child.End()
		parent.End()

		spans := sr.Ended()
		require.Len(t, spans, 2)

		byName := make(map[string]sdktrace.ReadOnlySpan, 2)
		for _, s := range spans {
			byName[s.Name()] = s
		}
		parentRec, childRec := byName["dashboard.compose"], byName["dashboard.count_orders"]
		require.NotNil(t, parentRec)
		require.NotNil(t, childRec)

		assert.Equal(t, parentRec.SpanContext().TraceID(), childRec.SpanContext().TraceID())
		assert.Equal(t, parentRec.SpanContext().SpanID(), childRec.Parent().SpanID())
	})
}

func TestStartServiceSpan(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartServiceSpan(context.Background(), "order", "save")
	span.End()

	assert.Equal(t, "order.save", endedSpan(t, sr).Name())
}

func TestSetAttributes(t *testing.T) {
	ctx := context.Background()

	t.Run("typed key value pairs", func(t *testing.T) {
		sr := setupTestTracer(t)

		_, span := telemetry.StartSpan(ctx, "webhook.process")
		telemetry.SetAttributes(span,
			"topic", "orders/create",
			"line_items", 3,
			"duplicate", false,
		)
		span.End()

		attrs := attributeMap(endedSpan(t, sr))
		assert.Equal(t, "orders/create", attrs["topic"])
		assert.Equal(t, int64(3), attrs["line_items"])
		assert.Equal(t, false, attrs["duplicate"])
	})

	t.Run("covers slice and float forms", func(t *testing.T) {
		sr := setupTestTracer(t)

		_, span := telemetry.StartSpan(ctx, "webhook.process")
		telemetry.SetAttributes(span,
			"shop", "demo.myshopify.com",
			"attempt", int64(2),
			"total_price", 54.49,
			"topics", []string{"orders/create", "orders/updated"},
			"counts", []int{1, 2},
			"counts64", []int64{10, 20},
			"ratios", []float64{0.5, 1.0},
			"flags", []bool{true, false},
		)
		span.End()

		assert.GreaterOrEqual(t, len(endedSpan(t, sr).Attributes()), 8)
	})

	t.Run("drops an orphan trailing key", func(t *testing.T) {
		sr := setupTestTracer(t)

		_, span := telemetry.StartSpan(ctx, "webhook.process")
		telemetry.SetAttributes(span, "topic", "orders/create", "shop", "demo.myshopify.com", "orphan")
		span.End()

		assert.Len(t, endedSpan(t, sr).Attributes(), 2)
	})

	t.Run("skips a pair whose key is not a string", func(t *testing.T) {
		sr := setupTestTracer(t)

		_, span := telemetry.StartSpan(ctx, "webhook.process")
		telemetry.SetAttributes(span, "topic", "orders/create", 123, "ignored")
		span.End()

		assert.Len(t, endedSpan(t, sr).Attributes(), 1)
	})
}

func TestSetAttribute(t *testing.T) {
	ctx := context.Background()

	t.Run("plain string", func(t *testing.T) {
		sr := setupTestTracer(t)

		_, span := telemetry.StartSpan(ctx, "order.save")
		telemetry.SetAttribute(span, "shopify_order_id", "1001")
		span.End()

		assert.Equal(t, "1001", attributeMap(endedSpan(t, sr))["shopify_order_id"])
	})

	t.Run("stringer values such as uuid", func(t *testing.T) {
		sr := setupTestTracer(t)
		tenantID := uuid.New()

		_, span := telemetry.StartSpan(ctx, "order.save")
		telemetry.SetAttribute(span, "tenant_id", tenantID)
		span.End()

		assert.Equal(t, tenantID.String(), attributeMap(endedSpan(t, sr))["tenant_id"])
	})
}

func TestRecordError(t *testing.T) {
	ctx := context.Background()

	t.Run("marks the span and records an exception event", func(t *testing.T) {
		sr := setupTestTracer(t)

		_, span := telemetry.StartSpan(ctx, "order.save")
		telemetry.RecordError(span, errors.New("unique constraint violated"))
		span.End()

		got := endedSpan(t, sr)
		assert.Equal(t, codes.Error, got.Status().Code)
		assert.Equal(t, "unique constraint violated", got.Status().Description)
		require.NotEmpty(t, got.Events())
		assert.Equal(t, "exception", got.Events()[0].Name)
	})

	t.Run("nil error is a noop", func(t *testing.T) {
		sr := setupTestTracer(t)

		_, span := telemetry.StartSpan(ctx, "order.save")
		telemetry.RecordError(span, nil)
		span.End()

		assert.NotEqual(t, codes.Error, endedSpan(t, sr).Status().Code)
	})
}

func TestSetOK(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "webhook.process")
	telemetry.SetOK(span)
	span.End()

	assert.Equal(t, codes.Ok, endedSpan(t, sr).Status().Code)
}

func TestAddEvent(t *testing.T) {
	sr := setupTestTracer(t)

	_, span := telemetry.StartSpan(context.Background(), "webhook.process")
	telemetry.AddEvent(span, "payload_archived",
		"key", "webhooks/t1/orders/create/1700000000-d1.json",
		"bytes", 2048,
	)
	span.End()

	events := endedSpan(t, sr).Events()
	require.Len(t, events, 1)
	assert.Equal(t, "payload_archived", events[0].Name)

	attrs := make(map[string]interface{}, len(events[0].Attributes))
	for _, attr := range events[0].Attributes {
		attrs[string(attr.Key)] = attr.Value.AsInterface()
	}
	assert.Equal(t, "webhooks/t1/orders/create/1700000000-d1.json", attrs["key"])
	assert.Equal(t, int64(2048), attrs["bytes"])
}

func TestSpanContextHelpers(t *testing.T) {
	setupTestTracer(t)
	ctx := context.Background()

	t.Run("empty context yields a noop span and blank IDs", func(t *testing.T) {
		assert.NotNil(t, telemetry.SpanFromContext(ctx))
		assert.Empty(t, telemetry.GetTraceID(ctx))
		assert.Empty(t, telemetry.GetSpanID(ctx))
	})

	t.Run("active span round-trips through the context", func(t *testing.T) {
		spanCtx, span := telemetry.StartSpan(ctx, "webhook.process")
		defer span.End()

		retrieved := telemetry.SpanFromContext(spanCtx)
		assert.Equal(t, span.SpanContext().SpanID(), retrieved.SpanContext().SpanID())

		// hex-encoded 16 byte trace ID and 8 byte span ID
		assert.Len(t, telemetry.GetTraceID(spanCtx), 32)
		assert.Len(t, telemetry.GetSpanID(spanCtx), 16)
	})

	t.Run("ContextWithSpan injects a span", func(t *testing.T) {
		_, span := telemetry.StartSpan(ctx, "webhook.process")
		defer span.End()

		injected := telemetry.ContextWithSpan(ctx, span)
		assert.Equal(t, span.SpanContext().SpanID(), telemetry.SpanFromContext(injected).SpanContext().SpanID())
	})
}

func TestNilSpanHelpersDoNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		telemetry.SetAttributes(nil, "topic", "orders/create")
		telemetry.SetAttribute(nil, "topic", "orders/create")
		telemetry.SetOK(nil)
		telemetry.AddEvent(nil, "payload_archived", "bytes", 1)
		telemetry.RecordError(nil, errors.New("boom"))
	})
}
