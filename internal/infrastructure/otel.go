package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	ServiceName    = "datalab"
	ServiceVersion = "0.3.0"
	TracerName     = "datalab"
)

// Tracer returns the named tracer from the global provider. Until
// InitializeTracing runs the global provider is a no-op.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// InitializeTracing installs a global tracer provider that writes finished spans
// as JSON to w. The returned shutdown function flushes pending spans.
func InitializeTracing(ctx context.Context, w io.Writer, logger *slog.Logger) (func(context.Context) error, error) {
	if logger == nil {
		logger = slog.Default()
	}

	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(ServiceVersion),
	)

	// A batch run is short: export synchronously so nothing is lost on exit
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	logger.InfoContext(ctx, "Tracing initialized", slog.String("exporter", "stdout"))

	return tp.Shutdown, nil
}
