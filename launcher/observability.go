package launcher

import (
	"context"
	"time"

	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/observability"
	"github.com/kbukum/flowkit/task"
)

// Executor launches task runs. *Launcher is the canonical implementation;
// the wrappers below layer tracing, metrics, and logging over any Executor.
type Executor interface {
	Launch(ctx context.Context, run *task.Run) error
}

// WithTracing wraps an Executor with OpenTelemetry span creation.
// Each launch creates a span named "{prefix}.{process}".
func WithTracing(exec Executor, prefix string) Executor {
	return &tracingExecutor{inner: exec, prefix: prefix}
}

type tracingExecutor struct {
	inner  Executor
	prefix string
}

func (e *tracingExecutor) Launch(ctx context.Context, run *task.Run) error {
	spanName := e.prefix + "." + run.Process
	ctx, span := observability.StartSpan(ctx, spanName)
	defer span.End()

	observability.SetSpanAttribute(ctx, observability.AttrProcessName, run.Process)
	observability.SetSpanAttribute(ctx, observability.AttrTaskIndex, run.Index)

	err := e.inner.Launch(ctx, run)

	observability.SetSpanAttribute(ctx, observability.AttrStatus, string(run.Status))
	observability.SetSpanAttribute(ctx, observability.AttrExitCode, run.ExitCode)
	observability.SetSpanAttribute(ctx, observability.AttrTimedOut, run.TimedOut)
	if err != nil {
		observability.SetSpanError(ctx, err)
	}

	return err
}

// WithMetrics wraps an Executor with metric recording.
// Records active tasks, per-status totals, durations, and errors.
func WithMetrics(exec Executor, metrics *observability.Metrics) Executor {
	return &metricsExecutor{inner: exec, metrics: metrics}
}

type metricsExecutor struct {
	inner   Executor
	metrics *observability.Metrics
}

func (e *metricsExecutor) Launch(ctx context.Context, run *task.Run) error {
	e.metrics.RecordTaskStart(ctx)
	start := time.Now()
	err := e.inner.Launch(ctx, run)
	duration := time.Since(start)

	e.metrics.RecordTaskEnd(ctx, run.Process, string(run.Status), duration)
	if err != nil {
		e.metrics.RecordError(ctx, "launch", run.Process)
	}

	return err
}

// WithLogging wraps an Executor with launch logging.
// Logs: process, index, task id, duration, and terminal status.
func WithLogging(exec Executor, log *logger.Logger) Executor {
	return &loggingExecutor{inner: exec, log: log}
}

type loggingExecutor struct {
	inner Executor
	log   *logger.Logger
}

func (e *loggingExecutor) Launch(ctx context.Context, run *task.Run) error {
	start := time.Now()
	err := e.inner.Launch(ctx, run)
	duration := time.Since(start)

	fields := logger.TaskFields(run.Process, run.Index, run.ID.String())
	fields["duration"] = duration.String()
	fields["status"] = string(run.Status)

	if err != nil {
		fields["error"] = err.Error()
		e.log.Error("task launch failed", fields)
	} else {
		e.log.Debug("task launch finished", fields)
	}

	return err
}
