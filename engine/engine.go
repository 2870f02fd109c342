package engine

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/flowkit/config"
	"github.com/kbukum/flowkit/flow"
	"github.com/kbukum/flowkit/launcher"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/observability"
	"github.com/kbukum/flowkit/resilience"
	"github.com/kbukum/flowkit/version"
)

// Hook is a lifecycle callback.
type Hook func(ctx context.Context) error

// Engine is the assembled workflow runtime.
type Engine struct {
	Cfg      *config.EngineConfig
	Logger   *logger.Logger
	Launcher *launcher.Launcher
	Executor *flow.Executor

	metrics         *observability.Metrics
	tracerProvider  *sdktrace.TracerProvider
	meterProvider   *sdkmetric.MeterProvider
	gracefulTimeout time.Duration

	onStart []Hook
	onStop  []Hook
}

// Option configures an Engine.
type Option func(*Engine)

// WithGracefulTimeout bounds the shutdown phase.
func WithGracefulTimeout(d time.Duration) Option {
	return func(e *Engine) { e.gracefulTimeout = d }
}

// WithLogger overrides the logger built from the config.
func WithLogger(log *logger.Logger) Option {
	return func(e *Engine) { e.Logger = log }
}

// New builds an Engine from a validated config. It applies defaults,
// initializes the global logger, and assembles the launcher and executor
// with logging wrappers.
func New(cfg *config.EngineConfig, opts ...Option) (*Engine, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	e := &Engine{
		Cfg:             cfg,
		gracefulTimeout: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.Logger == nil {
		logger.Init(cfg.Logging)
		e.Logger = logger.GetGlobalLogger()
	}
	log := e.Logger.WithComponent("engine")

	e.Launcher = launcher.New(
		launcher.WithShell(cfg.Engine.Shell),
		launcher.WithDrainGrace(cfg.Engine.DrainGrace),
		launcher.WithKillGrace(cfg.Engine.KillGrace),
		launcher.WithLogger(e.Logger.WithComponent("launcher")),
	)

	e.Executor = e.buildExecutor()

	log.Info("engine assembled", logger.Fields(
		"name", cfg.Name,
		"environment", cfg.Environment,
		"version", version.Version,
		"work_root", cfg.Engine.WorkRoot,
		"max_parallel", cfg.Engine.MaxParallel,
	))
	return e, nil
}

// buildExecutor assembles the launcher wrapper stack and flow executor from
// the current config and metrics.
func (e *Engine) buildExecutor() *flow.Executor {
	exec := launcher.WithLogging(e.Launcher, e.Logger.WithComponent("launcher"))
	exec = launcher.WithTracing(exec, e.Cfg.Name)
	if e.metrics != nil {
		exec = launcher.WithMetrics(exec, e.metrics)
	}

	opts := []flow.ExecutorOption{
		flow.WithWorkRoot(e.Cfg.Engine.WorkRoot),
		flow.WithMaxParallel(e.Cfg.Engine.MaxParallel),
		flow.WithEcho(e.Cfg.Engine.Echo),
		flow.WithExecutorLogger(e.Logger.WithComponent("executor")),
	}
	if e.Cfg.Engine.RetryAttempts > 0 {
		opts = append(opts, flow.WithRetry(resilience.RetryConfig{
			MaxAttempts: e.Cfg.Engine.RetryAttempts + 1,
		}))
	}
	if e.metrics != nil {
		opts = append(opts, flow.WithMetrics(e.metrics))
	}
	return flow.NewExecutor(exec, opts...)
}

// EnableTelemetry initializes the OpenTelemetry tracer and meter providers
// and rebuilds the executor stack with metric recording. Call before the
// first workflow runs.
func (e *Engine) EnableTelemetry(ctx context.Context) error {
	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig(e.Cfg.Name))
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	e.tracerProvider = tp

	meterCfg := observability.DefaultMeterConfig(e.Cfg.Name)
	mp, err := observability.InitMeter(ctx, &meterCfg)
	if err != nil {
		return fmt.Errorf("init meter: %w", err)
	}
	e.meterProvider = mp

	metrics, err := observability.NewMetrics(observability.Meter(e.Cfg.Name))
	if err != nil {
		return fmt.Errorf("build metrics: %w", err)
	}
	e.metrics = metrics

	e.Executor = e.buildExecutor()
	return nil
}

// OnStart registers a hook that runs before the workflow.
func (e *Engine) OnStart(h Hook) { e.onStart = append(e.onStart, h) }

// OnStop registers a hook that runs during shutdown.
func (e *Engine) OnStop(h Hook) { e.onStop = append(e.onStop, h) }

// Run executes a finite workflow with signal-based cancellation: SIGINT or
// SIGTERM cancels the workflow context, then shutdown runs either way.
func (e *Engine) Run(ctx context.Context, workflow func(ctx context.Context, exec *flow.Executor) error) error {
	log := e.Logger.WithComponent("engine")

	for _, h := range e.onStart {
		if err := h(ctx); err != nil {
			return fmt.Errorf("onStart hook: %w", err)
		}
	}

	wfCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			log.Warn("received signal, canceling workflow", logger.Fields("signal", sig.String()))
			cancel()
		case <-wfCtx.Done():
		}
	}()

	wfErr := workflow(wfCtx, e.Executor)

	if stopErr := e.Shutdown(context.Background()); stopErr != nil {
		if wfErr != nil {
			return wfErr
		}
		return stopErr
	}
	return wfErr
}

// CheckHealth aggregates the health of the engine's parts.
func (e *Engine) CheckHealth(ctx context.Context) *observability.ServiceHealth {
	sh := observability.NewServiceHealth(e.Cfg.Name, version.Version)
	sh.AddComponent(e.Launcher.CheckHealth(ctx))
	sh.AddComponent(e.Executor.CheckHealth(ctx))
	return sh
}

// Shutdown runs stop hooks and flushes the telemetry providers within the
// graceful timeout.
func (e *Engine) Shutdown(ctx context.Context) error {
	log := e.Logger.WithComponent("engine")
	ctx, cancel := context.WithTimeout(ctx, e.gracefulTimeout)
	defer cancel()

	var firstErr error
	for _, h := range e.onStop {
		if err := h(ctx); err != nil {
			log.Error("onStop hook error", logger.ErrorFields("hook", err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if e.tracerProvider != nil {
		if err := e.tracerProvider.Shutdown(ctx); err != nil {
			log.Error("tracer shutdown error", logger.ErrorFields("shutdown", err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if e.meterProvider != nil {
		if err := e.meterProvider.Shutdown(ctx); err != nil {
			log.Error("meter shutdown error", logger.ErrorFields("shutdown", err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	log.Info("engine shutdown complete")
	return firstErr
}
