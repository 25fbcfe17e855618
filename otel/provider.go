package otel

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// TelemetryConfig configures the OpenTelemetry providers. An empty Endpoint
// disables span export; metrics stay in-process either way.
type TelemetryConfig struct {
	ServiceName string
	Endpoint    string
	Insecure    bool
}

// Telemetry bundles the providers the daemon hands to its observer.
type Telemetry struct {
	tracerProvider trace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	shutdowns      []func(context.Context) error
}

// NewTelemetry builds tracer and meter providers. With an OTLP endpoint
// configured, spans export over HTTP; without one, tracing is a no-op.
func NewTelemetry(ctx context.Context, cfg TelemetryConfig) (*Telemetry, error) {
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "mcpdroid"
	}

	t := &Telemetry{
		tracerProvider: noop.NewTracerProvider(),
		meterProvider:  sdkmetric.NewMeterProvider(),
	}
	t.shutdowns = append(t.shutdowns, t.meterProvider.Shutdown)

	if cfg.Endpoint != "" {
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		exporter, err := otlptracehttp.New(ctx, opts...)
		if err != nil {
			return nil, err
		}

		res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		))
		if err != nil {
			return nil, err
		}

		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		)
		t.tracerProvider = tp
		t.shutdowns = append(t.shutdowns, tp.Shutdown)
	}

	return t, nil
}

// Tracer returns a tracer scoped to the given instrumentation name.
func (t *Telemetry) Tracer(name string) trace.Tracer {
	return t.tracerProvider.Tracer(name)
}

// Meter returns a meter scoped to the given instrumentation name.
func (t *Telemetry) Meter(name string) metric.Meter {
	return t.meterProvider.Meter(name)
}

// Stop flushes and shuts down the providers. It implements the lifecycle
// worker contract.
func (t *Telemetry) Stop(ctx context.Context) error {
	var errs []error
	for _, shutdown := range t.shutdowns {
		if err := shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
