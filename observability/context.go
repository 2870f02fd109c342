package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TaskOperation holds observability context for one tracked task execution.
type TaskOperation struct {
	ServiceName string
	Process     string
	TaskID      string
	TaskIndex   int
	StartTime   time.Time
	Metrics     *Metrics
}

// NewTaskOperation creates a new task operation context.
// If metrics is nil, metric recording is silently skipped.
func NewTaskOperation(serviceName, process, taskID string, taskIndex int, metrics *Metrics) *TaskOperation {
	return &TaskOperation{
		ServiceName: serviceName,
		Process:     process,
		TaskID:      taskID,
		TaskIndex:   taskIndex,
		StartTime:   time.Now(),
		Metrics:     metrics,
	}
}

// taskOperationKey is the context key for TaskOperation.
type taskOperationKey struct{}

// WithTaskOperation stores a TaskOperation in the context.
func WithTaskOperation(ctx context.Context, op *TaskOperation) context.Context {
	return context.WithValue(ctx, taskOperationKey{}, op)
}

// TaskOperationFromContext retrieves the TaskOperation from context, or nil.
func TaskOperationFromContext(ctx context.Context) *TaskOperation {
	if op, ok := ctx.Value(taskOperationKey{}).(*TaskOperation); ok {
		return op
	}
	return nil
}

// StartSpanForTask starts a traced span and records the task-start metric.
func (op *TaskOperation) StartSpanForTask(ctx context.Context, spanName string) (context.Context, trace.Span) {
	ctx, span := StartSpan(ctx, spanName)
	span.SetAttributes(
		attribute.String(AttrServiceName, op.ServiceName),
		attribute.String(AttrProcessName, op.Process),
		attribute.String(AttrTaskID, op.TaskID),
		attribute.Int(AttrTaskIndex, op.TaskIndex),
	)

	if op.Metrics != nil {
		op.Metrics.RecordTaskStart(ctx)
	}
	return ctx, span
}

// EndTask ends the span and records task-end metrics.
func (op *TaskOperation) EndTask(ctx context.Context, span trace.Span, status string, err error) {
	duration := time.Since(op.StartTime)

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
	}

	span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	span.End()

	if op.Metrics != nil {
		op.Metrics.RecordTaskEnd(ctx, op.Process, status, duration)
	}
}

// Duration returns the elapsed time since the task started.
func (op *TaskOperation) Duration() time.Duration {
	return time.Since(op.StartTime)
}
