package observability

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/signalsfoundry/delivery-aircraft-sim/internal/logging"
)

func TestTracingConfigFromEnv(t *testing.T) {
	t.Setenv("SIM_TRACING_ENABLED", "TRUE")
	t.Setenv("SIM_TRACING_EXPORTER", "OTLP")
	t.Setenv("SIM_TRACING_SERVICE_NAME", "")
	t.Setenv("SIM_TRACING_SAMPLE_RATIO", "0.25")
	t.Setenv("SIM_OTLP_ENDPOINT", "collector:4317")

	cfg := TracingConfigFromEnv()
	if !cfg.Enabled {
		t.Fatalf("expected tracing enabled")
	}
	if cfg.Exporter != "otlp" {
		t.Fatalf("Exporter = %q, want otlp", cfg.Exporter)
	}
	if cfg.ServiceName != "aircraft-sim" {
		t.Fatalf("ServiceName = %q, want default", cfg.ServiceName)
	}
	if cfg.SampleRatio != 0.25 {
		t.Fatalf("SampleRatio = %v", cfg.SampleRatio)
	}
	if cfg.Endpoint != "collector:4317" {
		t.Fatalf("Endpoint = %q", cfg.Endpoint)
	}
}

func TestTracingConfigIgnoresBadRatio(t *testing.T) {
	t.Setenv("SIM_TRACING_SAMPLE_RATIO", "2")
	if got := TracingConfigFromEnv().SampleRatio; got != 1 {
		t.Fatalf("SampleRatio = %v, want 1", got)
	}
}

func TestInitTracingStdoutExportsSpans(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var buf bytes.Buffer
	ctx := context.Background()
	shutdown, err := InitTracing(ctx, TracingConfig{
		Enabled:     true,
		ServiceName: "test",
		Exporter:    ExporterStdout,
		SampleRatio: 1,
		AircraftID:  "AETH-00042",
		Writer:      &buf,
	}, logging.Noop())
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}

	_, span := StartSpan(ctx, "aircraft.position", "AETH-00001", attribute.Int("tick", 3))
	EndSpan(span, errors.New("boom"))

	if err := shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"aircraft.position", "AETH-00001", "boom", "service.instance.id", "AETH-00042"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in exported spans:\n%s", want, out)
		}
	}
}

func TestInitTracingDisabledIsNoop(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	shutdown, err := InitTracing(context.Background(), TracingConfig{}, nil)
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	_, span := StartSpan(context.Background(), "noop", "id")
	if span.SpanContext().IsValid() {
		t.Fatalf("expected noop span")
	}
	EndSpan(span, nil)
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestInitTracingRejectsUnknownExporter(t *testing.T) {
	_, err := InitTracing(context.Background(), TracingConfig{Enabled: true, Exporter: "zipkin"}, nil)
	if err == nil {
		t.Fatalf("expected error for unsupported exporter")
	}
}
