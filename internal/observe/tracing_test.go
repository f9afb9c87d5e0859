package observe

import (
	"context"
	"sync"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// keepExporter keeps exported spans past Shutdown.
type keepExporter struct {
	mu    sync.Mutex
	names []string
}

func (e *keepExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range spans {
		e.names = append(e.names, s.Name())
	}
	return nil
}

func (e *keepExporter) Shutdown(context.Context) error { return nil }

func TestTracing_NoneIsNoop(t *testing.T) {
	tr, shutdown, err := Tracing("none", "dev")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, span := tr.Start(context.Background(), "probe")
	span.End()
	if span.SpanContext().IsValid() {
		t.Fatalf("noop tracer should not produce valid spans")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestTracing_UnknownExporter(t *testing.T) {
	if _, _, err := Tracing("jaeger", "dev"); err == nil {
		t.Fatalf("expected error for unknown exporter")
	}
}

func TestProvider_ExportsOnShutdown(t *testing.T) {
	exp := &keepExporter{}
	tr, shutdown, err := Provider(exp, "1.2.3")
	if err != nil {
		t.Fatalf("provider: %v", err)
	}
	_, span := tr.Start(context.Background(), "probe backend/Health Endpoint")
	span.End()
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	exp.mu.Lock()
	defer exp.mu.Unlock()
	if len(exp.names) != 1 || exp.names[0] != "probe backend/Health Endpoint" {
		t.Fatalf("unexpected spans: %v", exp.names)
	}
}
