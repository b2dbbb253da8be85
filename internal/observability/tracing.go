package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/signalsfoundry/delivery-aircraft-sim/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// TracerName is the instrumentation scope used for aircraft spans.
const TracerName = "github.com/signalsfoundry/delivery-aircraft-sim"

// Span exporters accepted in TracingConfig.Exporter.
const (
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

const (
	envTracingEnabled = "SIM_TRACING_ENABLED"
	envTracingExport  = "SIM_TRACING_EXPORTER"
	envTracingService = "SIM_TRACING_SERVICE_NAME"
	envTracingRatio   = "SIM_TRACING_SAMPLE_RATIO"
	envOTLPEndpoint   = "SIM_OTLP_ENDPOINT"

	defaultServiceName  = "aircraft-sim"
	defaultOTLPEndpoint = "localhost:4317"
	tracingFlushTimeout = 5 * time.Second
)

// Tracer returns the aircraft tracer from the global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// TracingConfig selects where aircraft spans are exported.
type TracingConfig struct {
	Enabled     bool
	ServiceName string
	Exporter    string // ExporterStdout or ExporterOTLP
	Endpoint    string // collector address for ExporterOTLP
	SampleRatio float64

	// AircraftID becomes service.instance.id so spans from a fleet of
	// simulators can be told apart.
	AircraftID string

	// Writer receives stdout spans; nil means os.Stdout.
	Writer io.Writer
}

// TracingConfigFromEnv reads the SIM_TRACING_* variables. Tracing is off
// unless SIM_TRACING_ENABLED is "true"; a sample ratio outside [0, 1] is
// ignored.
func TracingConfigFromEnv() TracingConfig {
	cfg := TracingConfig{
		Enabled:     strings.EqualFold(os.Getenv(envTracingEnabled), "true"),
		ServiceName: os.Getenv(envTracingService),
		Exporter:    strings.ToLower(os.Getenv(envTracingExport)),
		Endpoint:    os.Getenv(envOTLPEndpoint),
		SampleRatio: 1,
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = defaultServiceName
	}
	if cfg.Exporter == "" {
		cfg.Exporter = ExporterStdout
	}
	if raw := os.Getenv(envTracingRatio); raw != "" {
		if ratio, err := strconv.ParseFloat(raw, 64); err == nil && ratio >= 0 && ratio <= 1 {
			cfg.SampleRatio = ratio
		}
	}
	return cfg
}

// InitTracing installs the global tracer provider used by the aircraft loop.
// When tracing is disabled a noop provider is installed so span calls in the
// tick path cost nothing. The returned function flushes pending spans.
func InitTracing(ctx context.Context, cfg TracingConfig, log logging.Logger) (func(context.Context) error, error) {
	if log == nil {
		log = logging.Noop()
	}

	if !cfg.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
		otel.SetTextMapPropagator(propagation.TraceContext{})
		log.Info(ctx, "aircraft tracing disabled")
		return func(context.Context) error { return nil }, nil
	}

	exp, err := newSpanExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	res, err := aircraftResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	// Baggage rides along so remote calls carry the aircraft context.
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info(ctx, "aircraft tracing enabled",
		logging.String("exporter", cfg.Exporter),
		logging.String("service_name", cfg.ServiceName),
		logging.String("sample_ratio", strconv.FormatFloat(cfg.SampleRatio, 'f', 2, 64)),
	)
	return tp.Shutdown, nil
}

func aircraftResource(ctx context.Context, cfg TracingConfig) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.namespace", "delivery"),
	}
	if cfg.AircraftID != "" {
		attrs = append(attrs, attribute.String("service.instance.id", cfg.AircraftID))
	}
	res, err := resource.New(ctx, resource.WithAttributes(attrs...))
	if err != nil {
		return nil, fmt.Errorf("tracing resource: %w", err)
	}
	return res, nil
}

func newSpanExporter(ctx context.Context, cfg TracingConfig) (sdktrace.SpanExporter, error) {
	switch strings.ToLower(cfg.Exporter) {
	case ExporterStdout, "":
		w := cfg.Writer
		if w == nil {
			w = os.Stdout
		}
		return stdouttrace.New(
			stdouttrace.WithWriter(w),
			stdouttrace.WithPrettyPrint(),
			stdouttrace.WithoutTimestamps(),
		)
	case ExporterOTLP, "otlpgrpc":
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = defaultOTLPEndpoint
		}
		return otlptrace.New(ctx, otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		))
	default:
		return nil, fmt.Errorf("unsupported span exporter %q", cfg.Exporter)
	}
}

// ShutdownWithTimeout flushes aircraft spans on exit. A flush failure is
// logged and otherwise dropped so it never masks the run error.
func ShutdownWithTimeout(ctx context.Context, shutdown func(context.Context) error, log logging.Logger) {
	if shutdown == nil {
		return
	}
	if log == nil {
		log = logging.Noop()
	}
	ctx, cancel := context.WithTimeout(ctx, tracingFlushTimeout)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Warn(ctx, "flushing aircraft spans failed", logging.Err(err))
	}
}

// StartSpan starts a span for one aircraft operation.
func StartSpan(ctx context.Context, name, aircraftID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("aircraft.id", aircraftID))
	return Tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan marks the span failed when err is non-nil and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
