package telemetry

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestStartAndRunStepSuccess(t *testing.T) {
	t.Parallel()

	tracer, recorder := newTestTracer()
	op, err := Start(context.Background(), tracer, "up", []string{"inventory", "plan"}, attribute.String(ProjectKey, "web"))
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := op.RunStep(op.Context(), "inventory", func(context.Context) error { return nil }); err != nil {
		t.Fatalf("RunStep() error = %v", err)
	}
	op.End(nil)

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("ended span count = %d, want 2", len(spans))
	}

	root := findSpanByName(spans, "up")
	if root == nil {
		t.Fatal("missing root span")
	}
	if got := getAttr(root.Attributes(), ProjectKey); got != "web" {
		t.Fatalf("root project attribute = %q, want web", got)
	}
	if len(root.Events()) == 0 || root.Events()[0].Name != PhasesEventName {
		t.Fatalf("root events = %v, want %s", root.Events(), PhasesEventName)
	}

	child := findSpanByName(spans, "inventory")
	if child == nil {
		t.Fatal("missing phase span")
	}
	if child.Parent().SpanID() != root.SpanContext().SpanID() {
		t.Fatalf("phase parent span id = %s, want %s", child.Parent().SpanID(), root.SpanContext().SpanID())
	}
}

func TestRunStepFailureSetsErrorStatus(t *testing.T) {
	t.Parallel()

	tracer, recorder := newTestTracer()
	op, err := Start(context.Background(), tracer, "up", []string{"apply"})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	boom := errors.New("boom")
	err = op.RunStep(op.Context(), "apply", func(context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("RunStep() error = %v, want boom", err)
	}
	op.End(err)

	for _, name := range []string{"apply", "up"} {
		span := findSpanByName(recorder.Ended(), name)
		if span == nil {
			t.Fatalf("missing span %q", name)
		}
		if span.Status().Code != codes.Error || span.Status().Description != "boom" {
			t.Fatalf("span %q status = %+v, want error boom", name, span.Status())
		}
	}
}

func TestStartRejectsDuplicatePhases(t *testing.T) {
	t.Parallel()

	tracer, _ := newTestTracer()
	if _, err := Start(context.Background(), tracer, "up", []string{"plan", "plan"}); err == nil {
		t.Fatal("Start() error = nil, want duplicate phase error")
	}
	if _, err := Start(context.Background(), nil, "up", nil); err == nil {
		t.Fatal("Start() error = nil, want missing tracer error")
	}
}

func TestNilOperationRunsStep(t *testing.T) {
	t.Parallel()

	var op *Operation
	ran := false
	if err := op.RunStep(context.Background(), "plan", func(context.Context) error {
		ran = true
		return nil
	}); err != nil {
		t.Fatalf("RunStep() error = %v", err)
	}
	if !ran {
		t.Fatal("step did not run")
	}
	op.End(nil)
}

func TestNewProvider(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p, err := NewProvider(true, &buf)
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	_, span := p.Tracer().Start(context.Background(), "status")
	span.End()
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"status"`) {
		t.Fatalf("exported spans = %q, want status span", buf.String())
	}

	off, err := NewProvider(false, &buf)
	if err != nil {
		t.Fatalf("NewProvider(false) error = %v", err)
	}
	if err := off.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
}

func newTestTracer() (trace.Tracer, *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	return provider.Tracer("telemetry-test"), recorder
}

func findSpanByName(spans []sdktrace.ReadOnlySpan, name string) sdktrace.ReadOnlySpan {
	for _, span := range spans {
		if span.Name() == name {
			return span
		}
	}
	return nil
}

func getAttr(attrs []attribute.KeyValue, key string) string {
	for _, attr := range attrs {
		if string(attr.Key) == key {
			return attr.Value.AsString()
		}
	}
	return ""
}
