package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/nodegraph/errors"
)

// Evaluation tracks a single node recomputation.
type Evaluation struct {
	NodeID    string
	Kind      string
	StartTime time.Time
	Metrics   *Metrics
	// Traced controls whether Start opens a span. Metrics are recorded either way.
	Traced bool
}

// NewEvaluation creates an evaluation record.
// If metrics is nil, metric recording is silently skipped.
func NewEvaluation(nodeID, kind string, metrics *Metrics, traced bool) *Evaluation {
	return &Evaluation{
		NodeID:    nodeID,
		Kind:      kind,
		StartTime: time.Now(),
		Metrics:   metrics,
		Traced:    traced,
	}
}

type evaluationKey struct{}

// WithEvaluation stores an Evaluation in the context.
func WithEvaluation(ctx context.Context, ev *Evaluation) context.Context {
	return context.WithValue(ctx, evaluationKey{}, ev)
}

// EvaluationFromContext returns the Evaluation in ctx, or nil.
func EvaluationFromContext(ctx context.Context) *Evaluation {
	if ev, ok := ctx.Value(evaluationKey{}).(*Evaluation); ok {
		return ev
	}
	return nil
}

// Start opens the node.evaluate span when tracing is enabled and stores the
// evaluation in the returned context. The span is a no-op otherwise.
func (ev *Evaluation) Start(ctx context.Context) (context.Context, trace.Span) {
	var span trace.Span
	if ev.Traced {
		ctx, span = StartSpan(ctx, SpanNodeEvaluate)
		span.SetAttributes(
			attribute.String(AttrNodeID, ev.NodeID),
			attribute.String(AttrNodeKind, ev.Kind),
		)
	} else {
		span = trace.SpanFromContext(ctx)
	}
	return WithEvaluation(ctx, ev), span
}

// End closes the span opened by Start and records metrics.
func (ev *Evaluation) End(ctx context.Context, span trace.Span, err error) {
	duration := time.Since(ev.StartTime)
	status := StatusOK
	if err != nil {
		status = StatusError
	}

	if ev.Traced {
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
		}
		span.SetAttributes(
			attribute.String(AttrStatus, status),
			attribute.Int64(AttrDurationMs, duration.Milliseconds()),
		)
		span.End()
	}

	if ev.Metrics != nil {
		ev.Metrics.RecordEvaluation(ctx, ev.Kind, status, duration)
		if err != nil {
			ev.Metrics.RecordError(ctx, errorType(err), ev.Kind)
		}
	}
}

// Duration returns the elapsed time since the evaluation started.
func (ev *Evaluation) Duration() time.Duration {
	return time.Since(ev.StartTime)
}

func errorType(err error) string {
	if code := errors.CodeOf(err); code != "" {
		return string(code)
	}
	return "unknown"
}
