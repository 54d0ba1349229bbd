package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartStageRecordsAttributesAndErrors(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	ctx, run := StartStage(context.Background(), "ingest.run", attribute.String("ingest.kind", "album"))
	_, upload := StartStage(ctx, "ingest.upload")
	RecordError(upload, errors.New("access denied"))
	RecordError(run, nil)
	upload.End()
	run.End()

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	stage, root := spans[0], spans[1]
	if stage.Parent().SpanID() != root.SpanContext().SpanID() {
		t.Fatal("stage span should be a child of the run span")
	}
	if stage.Status().Code != codes.Error || len(stage.Events()) != 1 {
		t.Fatalf("expected error status and event, got %+v", stage.Status())
	}
	if root.Status().Code == codes.Error {
		t.Fatal("nil error must not fail the span")
	}
	if got := root.Attributes(); len(got) != 1 || got[0].Value.AsString() != "album" {
		t.Fatalf("unexpected run attributes %v", got)
	}
}

func TestTracingDisabledFlushIsNoop(t *testing.T) {
	tr, err := StartTracing(context.Background(), TracingConfig{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("start tracing: %v", err)
	}
	if err := tr.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
}
