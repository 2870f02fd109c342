package flow

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/launcher"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/observability"
	"github.com/kbukum/flowkit/resilience"
	"github.com/kbukum/flowkit/task"
	"github.com/kbukum/flowkit/util"
)

// Executor drives a process over its input tuples: one task run per tuple,
// launched concurrently up to MaxParallel, each in its own work directory.
type Executor struct {
	exec        launcher.Executor
	workRoot    string
	maxParallel int
	echo        bool
	retry       resilience.RetryConfig
	metrics     *observability.Metrics
	log         *logger.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithWorkRoot sets the directory task work dirs are created under.
func WithWorkRoot(root string) ExecutorOption {
	return func(e *Executor) { e.workRoot = root }
}

// WithMaxParallel bounds concurrent task launches. Zero or negative means
// unbounded.
func WithMaxParallel(n int) ExecutorOption {
	return func(e *Executor) { e.maxParallel = n }
}

// WithEcho turns on output mirroring for every run, regardless of the
// per-process setting.
func WithEcho(echo bool) ExecutorOption {
	return func(e *Executor) { e.echo = echo }
}

// WithRetry enables re-launching tasks that end in a retryable failure.
func WithRetry(cfg resilience.RetryConfig) ExecutorOption {
	return func(e *Executor) { e.retry = cfg }
}

// WithMetrics attaches metric recording to the executor.
func WithMetrics(m *observability.Metrics) ExecutorOption {
	return func(e *Executor) { e.metrics = m }
}

// WithExecutorLogger sets the executor's logger.
func WithExecutorLogger(log *logger.Logger) ExecutorOption {
	return func(e *Executor) { e.log = log }
}

// NewExecutor builds an Executor around a task launcher.
func NewExecutor(exec launcher.Executor, opts ...ExecutorOption) *Executor {
	e := &Executor{
		exec:     exec,
		workRoot: "work",
		retry:    resilience.RetryConfig{MaxAttempts: 1},
		log:      logger.GetGlobalLogger().WithComponent("executor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunProcess binds the process inputs, pulls tuples, and launches one task
// per tuple. Runs are returned in tuple order, every one in a terminal
// state. The returned error covers binding and tuple-pull failures only;
// per-task outcomes live on the runs.
func (e *Executor) RunProcess(ctx context.Context, def *ProcessDef) ([]*task.Run, error) {
	if def.Script == "" {
		return nil, errors.Precondition("process " + def.Name + " has no script")
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}

	ts, err := NewTupleSource(def.Ports.Inputs)
	if err != nil {
		return nil, err
	}
	defer ts.Close()

	if e.metrics != nil {
		for _, ch := range ts.channels {
			e.metrics.RecordChannelBind(ctx, ch.Kind().String())
		}
	}

	sem := e.semaphore()
	var wg sync.WaitGroup
	var runs []*task.Run

	for index := 0; ; index++ {
		tuple, ok, err := ts.Next(ctx)
		if err != nil {
			wg.Wait()
			return runs, err
		}
		if !ok {
			break
		}

		run := e.newRun(def, index, tuple)
		runs = append(runs, run)

		wg.Add(1)
		go func(run *task.Run) {
			defer wg.Done()
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}
			e.launch(ctx, def, run)
		}(run)
	}

	wg.Wait()
	return runs, nil
}

// RunGraph executes every process in the network, level by level: processes
// within a level share no data dependency and run concurrently, and a level
// starts only after the previous one finished. Results are keyed by process
// name; the first process-level error stops the remaining levels.
func (e *Executor) RunGraph(ctx context.Context, g *Graph) (map[string][]*task.Run, error) {
	levels, err := g.BuildLevels()
	if err != nil {
		return nil, err
	}

	results := make(map[string][]*task.Run, len(g.Processes))
	var mu sync.Mutex

	for _, level := range levels {
		var wg sync.WaitGroup
		errCh := make(chan error, len(level))

		for _, name := range level {
			def := g.Processes[name]
			wg.Add(1)
			go func(def *ProcessDef) {
				defer wg.Done()
				runs, rerr := e.RunProcess(ctx, def)
				mu.Lock()
				results[def.Name] = runs
				mu.Unlock()
				if rerr != nil {
					errCh <- rerr
				}
			}(def)
		}
		wg.Wait()
		close(errCh)
		if lerr := <-errCh; lerr != nil {
			return results, lerr
		}
	}
	return results, nil
}

func (e *Executor) semaphore() chan struct{} {
	if e.maxParallel <= 0 {
		return nil
	}
	return make(chan struct{}, e.maxParallel)
}

// newRun materializes a task run for one tuple: a fresh uuid work dir under
// the work root and the script prefixed with the tuple's shell bindings.
func (e *Executor) newRun(def *ProcessDef, index int, tuple map[string]any) *task.Run {
	workDir := filepath.Join(e.workRoot, util.SanitizeName(def.Name), uuid.NewString())
	script := renderScript(def, tuple)
	cfg := def.Config
	if e.echo {
		cfg.Echo = true
	}
	return task.NewRun(def.Name, index, workDir, script, cfg)
}

// launch runs one task, re-launching on retryable failures when retry is
// enabled. The final attempt's run state is copied onto the original run so
// callers observe a single record per tuple.
func (e *Executor) launch(ctx context.Context, def *ProcessDef, run *task.Run) {
	log := e.log.WithTask(run.Process, run.Index, run.ID.String())

	// Task counts and durations are recorded by the launcher's metrics
	// wrapper; the operation here carries the span only.
	op := observability.NewTaskOperation(def.Name, run.Process, run.ID.String(), run.Index, nil)
	ctx, span := op.StartSpanForTask(ctx, observability.SpanTaskLaunch)

	var last *task.Run
	err := resilience.RetryFunc(ctx, e.attemptConfig(ctx, run.Process, log), func() error {
		attempt := *run
		attempt.ID = uuid.New()
		attempt.WorkDir = filepath.Join(e.workRoot, util.SanitizeName(def.Name), uuid.NewString())
		attempt.Status = task.StatusCreated
		attempt.ExitCode = -1
		attempt.TimedOut = false
		attempt.OutputFile = ""
		last = &attempt

		if lerr := e.exec.Launch(ctx, &attempt); lerr != nil {
			return lerr
		}
		if attempt.Status == task.StatusFailed {
			return errors.ProcessFailed(attempt.ExitCode, attempt.TimedOut)
		}
		return nil
	})

	if last != nil {
		*run = *last
	}
	if err != nil && !run.Terminal() {
		// Launch-phase failures leave the run in Created; terminalize it.
		_ = run.Transition(task.StatusFailed)
		log.Error("task never reached a verdict", logger.ErrorFields("launch", err))
	}

	op.EndTask(ctx, span, string(run.Status), err)
}

// attemptConfig restricts the retry policy to retryable failure codes and
// records retry metrics.
func (e *Executor) attemptConfig(ctx context.Context, process string, log *logger.Logger) resilience.RetryConfig {
	cfg := e.retry
	cfg.RetryIf = func(err error) bool {
		return errors.IsRetryable(err) && resilience.DefaultRetryIf(err)
	}
	cfg.OnRetry = func(attempt int, err error, backoff time.Duration) {
		log.Warn("retrying task", logger.Fields("attempt", attempt, "error", err.Error()))
		if e.metrics != nil {
			e.metrics.RecordTaskRetry(ctx, process)
		}
	}
	return cfg
}

// renderScript prepends the tuple's fields as shell variable assignments so
// the script body can refer to inputs by name.
func renderScript(def *ProcessDef, tuple map[string]any) string {
	if len(tuple) == 0 {
		return def.Script
	}
	var b strings.Builder
	for _, in := range def.Ports.Inputs {
		v, ok := tuple[in.Name]
		if !ok {
			continue
		}
		b.WriteString(in.Name)
		b.WriteString("='")
		b.WriteString(strings.ReplaceAll(fmt.Sprintf("%v", v), "'", `'\''`))
		b.WriteString("'\n")
	}
	b.WriteString(def.Script)
	return b.String()
}

// CheckHealth reports whether the executor's work root is writable.
func (e *Executor) CheckHealth(ctx context.Context) observability.Health {
	h := observability.Health{Name: "executor", Status: observability.HealthStatusUp}

	if err := os.MkdirAll(e.workRoot, 0o755); err != nil {
		h.Status = observability.HealthStatusDown
		h.Message = "work root not writable: " + err.Error()
		return h
	}
	probe, err := os.CreateTemp(e.workRoot, ".health-*")
	if err != nil {
		h.Status = observability.HealthStatusDown
		h.Message = "work root not writable: " + err.Error()
		return h
	}
	probe.Close()
	os.Remove(probe.Name())
	return h
}
