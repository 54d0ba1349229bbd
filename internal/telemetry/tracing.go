/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// instrumentation names the tracer every ingestion span comes from.
const instrumentation = "github.com/friendsincode/moosic"

// exportTimeout bounds each OTLP export and the flush at exit.
const exportTimeout = 5 * time.Second

// TracingConfig selects where run spans are exported.
type TracingConfig struct {
	Enabled    bool
	Endpoint   string // OTLP gRPC host:port
	SampleRate float64
	Version    string
}

// Tracing owns the tracer provider of one CLI invocation.
type Tracing struct {
	provider *sdktrace.TracerProvider
	logger   zerolog.Logger
}

// StartTracing installs a batching OTLP provider as the global one. When
// tracing is disabled the otel no-op default stays in place and Flush does
// nothing.
func StartTracing(ctx context.Context, cfg TracingConfig, logger zerolog.Logger) (*Tracing, error) {
	t := &Tracing{logger: logger}
	if !cfg.Enabled {
		logger.Debug().Msg("tracing disabled")
		return t, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		otlptracegrpc.WithTimeout(exportTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	// A run is a root span; ratio sampling decides per run, and the stage
	// spans follow their parent.
	t.provider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRate))),
		sdktrace.WithResource(resource.NewSchemaless(
			semconv.ServiceNameKey.String("moosic"),
			semconv.ServiceVersionKey.String(cfg.Version),
		)),
	)
	otel.SetTracerProvider(t.provider)

	logger.Debug().
		Str("otlp_endpoint", cfg.Endpoint).
		Float64("sample_rate", cfg.SampleRate).
		Msg("tracing enabled")
	return t, nil
}

// Flush exports batched spans and stops the provider. The process exits
// right after a run, so spans still queued would otherwise be lost.
func (t *Tracing) Flush(ctx context.Context) error {
	if t.provider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, exportTimeout)
	defer cancel()
	if err := t.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("flush spans: %w", err)
	}
	return nil
}

// StartStage opens the span of one ingestion stage, e.g. "ingest.upload".
func StartStage(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(instrumentation).Start(ctx, name, trace.WithAttributes(attrs...))
}

// RecordError records err on the span and marks the stage failed.
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// HTTPClient returns an http.Client whose transport emits a client span per
// request. Store clients that talk HTTP (S3, DynamoDB) are built on it, so
// their calls nest under the stage span in the request context.
func HTTPClient() *http.Client {
	return &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
}
