// Package telemetry wires the fan-out publisher's counters, histograms, and
// spans to an OpenTelemetry pipeline. It satisfies the narrow Recorder
// interfaces defined independently by resilientpublisher and fanout so
// neither package needs to import otel directly.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

// Recorder sends counters, durations, and spans for a single service. One Recorder is built per process.
type Recorder struct {
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	tracer        trace.Tracer
	resource      *resource.Resource

	serviceName      string
	serviceNamespace string
	serviceVersion   string
	otlpEndpoint     string
	otlpGRPCEndpoint string
	environment      string
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithServiceName sets the service name reported on every metric and span.
func WithServiceName(name string) Option {
	return func(r *Recorder) { r.serviceName = name }
}

// WithServiceNamespace sets the service namespace.
func WithServiceNamespace(namespace string) Option {
	return func(r *Recorder) { r.serviceNamespace = namespace }
}

// WithServiceVersion sets the service version.
func WithServiceVersion(version string) Option {
	return func(r *Recorder) { r.serviceVersion = version }
}

// WithOTLPEndpoint sets the OTLP HTTP endpoint.
func WithOTLPEndpoint(endpoint string) Option {
	return func(r *Recorder) { r.otlpEndpoint = endpoint }
}

// WithOTLPGRPCEndpoint sets the OTLP gRPC endpoint. When set, gRPC is used
// in preference to HTTP.
func WithOTLPGRPCEndpoint(endpoint string) Option {
	return func(r *Recorder) { r.otlpGRPCEndpoint = endpoint }
}

// WithEnvironment sets the deployment environment attribute.
func WithEnvironment(env string) Option {
	return func(r *Recorder) { r.environment = env }
}

func defaultRecorder() *Recorder {
	return &Recorder{
		serviceName:      "DataProcessingService",
		serviceNamespace: "default",
		serviceVersion:   "1.0.0",
		environment:      "development",
	}
}

// New builds a Recorder backed by an OTLP metrics pipeline and sets that
// pipeline as the process-wide meter provider; spans go through the global
// tracer provider, which New does not replace. The returned func shuts the
// pipeline down and should run on process exit.
func New(opts ...Option) (*Recorder, func(context.Context) error, error) {
	r := defaultRecorder()
	for _, opt := range opts {
		opt(r)
	}

	if r.otlpGRPCEndpoint == "" && r.otlpEndpoint == "" {
		return nil, nil, fmt.Errorf("telemetry: either an OTLP HTTP or gRPC endpoint is required")
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(r.serviceName),
			semconv.ServiceNamespace(r.serviceNamespace),
			semconv.ServiceVersion(r.serviceVersion),
			semconv.DeploymentEnvironment(r.environment),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("telemetry: failed to build resource: %w", err)
	}

	var exporter sdkmetric.Exporter
	if r.otlpGRPCEndpoint != "" {
		exporter, err = otlpmetricgrpc.New(context.Background(),
			otlpmetricgrpc.WithEndpoint(r.otlpGRPCEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
	} else {
		exporter, err = otlpmetrichttp.New(context.Background(),
			otlpmetrichttp.WithEndpoint(r.otlpEndpoint),
			otlpmetrichttp.WithInsecure(),
		)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("telemetry: failed to build OTLP exporter: %w", err)
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))),
	)
	otel.SetMeterProvider(meterProvider)

	r.meterProvider = meterProvider
	r.meter = meterProvider.Meter(r.serviceName)
	r.tracer = otel.Tracer(r.serviceName)
	r.resource = res

	return r, func(ctx context.Context) error { return meterProvider.Shutdown(ctx) }, nil
}

func toAttrs(attributes map[string]string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(attributes))
	for k, v := range attributes {
		attrs = append(attrs, attribute.String(k, v))
	}
	return attrs
}

// Count adds value to a monotonic counter named name. Counters are created
// lazily and cached by the underlying meter on first use.
func (r *Recorder) Count(ctx context.Context, name string, value int64, attrs map[string]string) {
	counter, err := r.meter.Int64Counter(name)
	if err != nil {
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(toAttrs(attrs)...))
}

// RecordDuration records d, in milliseconds, into a histogram named name.
func (r *Recorder) RecordDuration(ctx context.Context, name string, d time.Duration, attrs map[string]string) {
	histogram, err := r.meter.Float64Histogram(name, metric.WithUnit("ms"))
	if err != nil {
		return
	}
	histogram.Record(ctx, float64(d.Milliseconds()), metric.WithAttributes(toAttrs(attrs)...))
}

// StartSpan opens a span named name and returns a derived context plus a
// function that ends the span, recording err as the span's status if it is
// non-nil.
func (r *Recorder) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, func(err error)) {
	spanCtx, span := r.tracer.Start(ctx, name, trace.WithAttributes(toAttrs(attrs)...))
	return spanCtx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}
