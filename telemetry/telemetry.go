// Package telemetry provides OpenTelemetry instrumentation for City Navigator.
//
// Spans never leave the process: Setup installs an SDK tracer provider whose
// only sinks are the span processors passed in, such as LogProcessor.
package telemetry

import (
	"context"
	"runtime"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const (
	serviceName    = "citynav"
	serviceVersion = "0.1.0"
)

// Setup installs a global tracer provider that feeds every ended span to
// processors. With no processors spans are still created (and can carry
// context) but go nowhere.
//
// Returns a shutdown function that should be called on application exit.
func Setup(ctx context.Context, processors ...sdktrace.SpanProcessor) (shutdown func(context.Context) error, err error) {
	// We create our own resource without merging with Default() to avoid schema URL conflicts
	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", serviceName),
			attribute.String("service.version", serviceVersion),
			attribute.String("telemetry.sdk.language", "go"),
			attribute.String("telemetry.sdk.name", "opentelemetry"),
			attribute.String("process.runtime.name", "go"),
			attribute.String("process.runtime.version", runtime.Version()),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := NewProvider(res, processors...)

	// Register as global provider
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}

// NewProvider builds a tracer provider without registering it globally
func NewProvider(res *resource.Resource, processors ...sdktrace.SpanProcessor) *sdktrace.TracerProvider {
	opts := []sdktrace.TracerProviderOption{sdktrace.WithSampler(sdktrace.AlwaysSample())}
	if res != nil {
		opts = append(opts, sdktrace.WithResource(res))
	}
	for _, p := range processors {
		opts = append(opts, sdktrace.WithSpanProcessor(p))
	}
	return sdktrace.NewTracerProvider(opts...)
}

// Tracer returns a named tracer for the given component.
// Use this to create spans within different parts of the application.
func Tracer(name string) trace.Tracer {
	return otel.GetTracerProvider().Tracer("citynav/" + name)
}

// LogProcessor writes each ended span to a zerolog logger at debug level
type LogProcessor struct {
	logger zerolog.Logger
}

// NewLogProcessor returns a processor that logs spans with logger
func NewLogProcessor(logger zerolog.Logger) *LogProcessor {
	return &LogProcessor{logger: logger}
}

// OnStart is a no-op; spans are logged once they end
func (p *LogProcessor) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

// OnEnd logs the span name, duration, status and attributes
func (p *LogProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	ev := p.logger.Debug()
	if s.Status().Code == codes.Error {
		ev = p.logger.Warn().Str("error", s.Status().Description)
	}

	attrs := zerolog.Dict()
	for _, kv := range s.Attributes() {
		attrs = attrs.Str(string(kv.Key), kv.Value.Emit())
	}

	ev.Str("span", s.Name()).
		Str("trace_id", s.SpanContext().TraceID().String()).
		Dur("duration", s.EndTime().Sub(s.StartTime())).
		Dict("attributes", attrs).
		Msg("span ended")
}

// Shutdown is a no-op
func (p *LogProcessor) Shutdown(context.Context) error { return nil }

// ForceFlush is a no-op; nothing is buffered
func (p *LogProcessor) ForceFlush(context.Context) error { return nil }
