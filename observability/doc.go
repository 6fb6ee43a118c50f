// Package observability provides OpenTelemetry tracing and metrics for node
// evaluation.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("nodegraph"))
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanNodeEvaluate)
//	defer span.End()
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("nodegraph"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("nodegraph"))
//	metrics.RecordEvaluation(ctx, "Add", observability.StatusOK, duration)
//
// Evaluations:
//
//	ev := observability.NewEvaluation(id, "Add", metrics, true)
//	ctx, span := ev.Start(ctx)
//	defer ev.End(ctx, span, err)
package observability
