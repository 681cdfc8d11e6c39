package telemetry

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	PhasesEventName    = "tug.phases"
	PhasesKey          = "tug.phases"
	ProjectKey         = "tug.project"
	defaultOperationID = "operation"
)

// Operation is the root span of one command, with one child span per phase.
type Operation struct {
	ctx    context.Context
	tracer trace.Tracer
	span   trace.Span
}

// Start opens the root span for operation and announces the phases it will
// run. Phase names must be unique and non-empty.
func Start(ctx context.Context, tracer trace.Tracer, operation string, phases []string, attrs ...attribute.KeyValue) (*Operation, error) {
	if tracer == nil {
		return nil, fmt.Errorf("start operation: tracer is required")
	}
	if err := validatePhases(phases); err != nil {
		return nil, fmt.Errorf("start operation: %w", err)
	}

	operation = strings.TrimSpace(operation)
	if operation == "" {
		operation = defaultOperationID
	}

	spanCtx, span := tracer.Start(ctx, operation, trace.WithAttributes(attrs...))
	span.AddEvent(PhasesEventName, trace.WithAttributes(attribute.StringSlice(PhasesKey, phases)))

	return &Operation{ctx: spanCtx, tracer: tracer, span: span}, nil
}

func (o *Operation) Context() context.Context {
	if o == nil {
		return context.Background()
	}
	return o.ctx
}

// RunStep runs fn inside a child span named id. The error is recorded on the
// span and returned unchanged.
func (o *Operation) RunStep(ctx context.Context, id string, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}

	stepID := strings.TrimSpace(id)
	if stepID == "" {
		return fmt.Errorf("run telemetry step: step id is required")
	}
	if o == nil || o.tracer == nil {
		return fn(ctx)
	}
	if ctx == nil {
		ctx = o.ctx
	}

	stepCtx, span := o.tracer.Start(ctx, stepID)
	defer span.End()

	if err := fn(stepCtx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, strings.TrimSpace(err.Error()))
		return err
	}
	return nil
}

func (o *Operation) End(err error) {
	if o == nil || o.span == nil {
		return
	}
	if err != nil {
		o.span.RecordError(err)
		o.span.SetStatus(codes.Error, strings.TrimSpace(err.Error()))
	}
	o.span.End()
}

func validatePhases(phases []string) error {
	seen := make(map[string]struct{}, len(phases))
	for i, phase := range phases {
		id := strings.TrimSpace(phase)
		if id == "" {
			return fmt.Errorf("phase %d has empty id", i)
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("duplicate phase %q", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}
