// Package observe wires OpenTelemetry tracing for probe runs.
package observe

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const ServiceName = "statuscheck"

// ShutdownFunc flushes and stops the tracer provider.
type ShutdownFunc func(context.Context) error

// Tracing returns a tracer for the named exporter.
// Supported exporters: stdout, stderr, none.
func Tracing(exporter, version string) (trace.Tracer, ShutdownFunc, error) {
	var w io.Writer
	switch exporter {
	case "", "none":
		return tracenoop.NewTracerProvider().Tracer(ServiceName), func(context.Context) error { return nil }, nil
	case "stdout":
		w = os.Stdout
	case "stderr":
		w = os.Stderr
	default:
		return nil, nil, fmt.Errorf("unknown trace exporter: %q", exporter)
	}
	exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, nil, fmt.Errorf("create trace exporter: %w", err)
	}
	return Provider(exp, version)
}

// Provider builds a tracer over an arbitrary exporter and installs it globally.
func Provider(exp sdktrace.SpanExporter, version string) (trace.Tracer, ShutdownFunc, error) {
	res := resource.NewSchemaless(
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(version),
	)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exp),
	)
	otel.SetTracerProvider(tp)
	return tp.Tracer(ServiceName), tp.Shutdown, nil
}
