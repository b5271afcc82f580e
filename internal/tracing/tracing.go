// Package tracing builds the OpenTelemetry tracer handed to the pipeline.
package tracing

import (
	"context"
	"io"
	"os"

	"github.com/newthinker/quorum/internal/config"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Provider owns a tracer and its shutdown.
type Provider struct {
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
}

// New returns a stdout-exporting provider when tracing is enabled, else a
// no-op one. w defaults to os.Stdout.
func New(cfg config.TracingConfig, w io.Writer) (*Provider, error) {
	name := cfg.ServiceName
	if name == "" {
		name = "quorum"
	}
	if !cfg.Enabled {
		return &Provider{tracer: noop.NewTracerProvider().Tracer(name)}, nil
	}
	if w == nil {
		w = os.Stdout
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(semconv.ServiceName(name)),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	return &Provider{tracer: tp.Tracer(name), provider: tp}, nil
}

// Tracer returns the tracer to inject into components.
func (p *Provider) Tracer() trace.Tracer {
	return p.tracer
}

// Shutdown flushes pending spans.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.provider == nil {
		return nil
	}
	return p.provider.Shutdown(ctx)
}

// OrNoop returns t, or a no-op tracer when t is nil.
func OrNoop(t trace.Tracer) trace.Tracer {
	if t == nil {
		return noop.NewTracerProvider().Tracer("quorum")
	}
	return t
}
