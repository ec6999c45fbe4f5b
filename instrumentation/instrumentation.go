package instrumentation

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const scopePrefix = "github.com/openclave/authd/"

// Config holds instrumentation configuration.
type Config struct {
	// ServiceName identifies the service in telemetry. Default: "authd".
	ServiceName string

	// ServiceVersion is the running version. Default: "unknown".
	ServiceVersion string

	// Enabled controls whether instrumentation is active. When false,
	// no-op providers are installed.
	Enabled bool

	// MeterProvider and TracerProvider override the defaults, letting the
	// entry point plug in SDK providers with real exporters.
	MeterProvider  metric.MeterProvider
	TracerProvider trace.TracerProvider

	// Resource allows custom resource attributes. If nil, a default
	// resource with service name and version is created.
	Resource *resource.Resource
}

// Span is the tracing span handed back to instrumented code. A nil Span is
// safe to pass to every helper in this package.
type Span = trace.Span

// Instrumentation provides OpenTelemetry instrumentation components.
type Instrumentation struct {
	config   Config
	resource *resource.Resource

	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider

	metrics *Metrics
	tracer  trace.Tracer
}

// New creates an instrumentation instance.
func New(config Config) (*Instrumentation, error) {
	if config.ServiceName == "" {
		config.ServiceName = "authd"
	}
	if config.ServiceVersion == "" {
		config.ServiceVersion = "unknown"
	}

	res := config.Resource
	if res == nil {
		var err error
		res, err = resource.New(
			context.Background(),
			resource.WithAttributes(
				semconv.ServiceName(config.ServiceName),
				semconv.ServiceVersion(config.ServiceVersion),
			),
		)
		if err != nil {
			return nil, fmt.Errorf("creating resource: %w", err)
		}
	}

	inst := &Instrumentation{
		config:         config,
		resource:       res,
		meterProvider:  config.MeterProvider,
		tracerProvider: config.TracerProvider,
	}
	if !config.Enabled || inst.meterProvider == nil {
		inst.meterProvider = noop.NewMeterProvider()
	}
	if !config.Enabled || inst.tracerProvider == nil {
		inst.tracerProvider = tracenoop.NewTracerProvider()
	}

	inst.tracer = inst.Tracer("http")

	var err error
	inst.metrics, err = newMetrics(inst)
	if err != nil {
		return nil, fmt.Errorf("creating metrics: %w", err)
	}
	return inst, nil
}

// Meter returns a named meter for the given scope ("http", "server",
// "storage", "security").
func (i *Instrumentation) Meter(scope string) metric.Meter {
	return i.meterProvider.Meter(scopePrefix + scope)
}

// Tracer returns a named tracer for the given scope.
func (i *Instrumentation) Tracer(scope string) trace.Tracer {
	return i.tracerProvider.Tracer(scopePrefix + scope)
}

// Metrics returns the metrics holder for recording metric values.
func (i *Instrumentation) Metrics() *Metrics {
	return i.metrics
}

// StartSpan starts a span on the HTTP tracer.
func (i *Instrumentation) StartSpan(ctx context.Context, name string) (context.Context, Span) {
	return i.tracer.Start(ctx, name)
}

// MeterProvider returns the underlying meter provider.
func (i *Instrumentation) MeterProvider() metric.MeterProvider {
	return i.meterProvider
}

// TracerProvider returns the underlying tracer provider.
func (i *Instrumentation) TracerProvider() trace.TracerProvider {
	return i.tracerProvider
}
