// Package observability provides OpenTelemetry tracing and metrics
// integration for the flowkit engine.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("flowkit"))
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanTaskLaunch)
//	defer span.End()
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("flowkit"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("flowkit"))
//	metrics.RecordTaskEnd(ctx, "align", "completed", duration)
//
// Health Checks:
//
//	health := observability.NewServiceHealth("flowkit", "1.0.0")
//	health.AddComponent(launcher.CheckHealth(ctx))
package observability
