package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "chat-gateway"

// GetTracer returns the tracer for the gateway.
func GetTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartDispatchSpan starts a span for a chat dispatch to the generation
// service.
func StartDispatchSpan(ctx context.Context, identityClass string, streaming, creation bool) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, "chat.dispatch",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("chat.identity_class", identityClass),
			attribute.Bool("chat.streaming", streaming),
			attribute.Bool("chat.creation", creation),
		),
	)
}

// RecordError records an error on a span.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
