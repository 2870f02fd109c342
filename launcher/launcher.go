package launcher

import (
	"context"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/observability"
	"github.com/kbukum/flowkit/task"
	"github.com/kbukum/flowkit/util"
)

const (
	// DefaultShell interprets the runner artifact.
	DefaultShell = "/bin/bash"
	// DefaultKillGrace is how long a terminated process group gets between
	// SIGTERM and SIGKILL.
	DefaultKillGrace = 5 * time.Second
)

// Launcher executes task runs as supervised subprocesses. A single Launcher
// is safe for concurrent use; each Launch call owns its run exclusively.
type Launcher struct {
	shell      string
	env        map[string]string
	drainGrace time.Duration
	killGrace  time.Duration
	stdout     io.Writer
	log        *logger.Logger
}

// Option configures a Launcher.
type Option func(*Launcher)

// WithShell sets the shell that interprets the runner and script artifacts.
func WithShell(shell string) Option {
	return func(l *Launcher) { l.shell = shell }
}

// WithEnv sets the environment snapshot exported to every run. The map is
// captured as-is and must not be mutated afterwards.
func WithEnv(env map[string]string) Option {
	return func(l *Launcher) { l.env = env }
}

// WithDrainGrace sets how long to wait for output draining after exit.
func WithDrainGrace(d time.Duration) Option {
	return func(l *Launcher) { l.drainGrace = d }
}

// WithKillGrace sets the SIGTERM to SIGKILL escalation delay.
func WithKillGrace(d time.Duration) Option {
	return func(l *Launcher) { l.killGrace = d }
}

// WithStdout sets the writer that echo-enabled runs mirror output to.
func WithStdout(w io.Writer) Option {
	return func(l *Launcher) { l.stdout = w }
}

// WithLogger sets the launcher's logger.
func WithLogger(log *logger.Logger) Option {
	return func(l *Launcher) { l.log = log }
}

// New builds a Launcher. Without options it uses /bin/bash, a snapshot of
// the current process environment, and the default grace periods.
func New(opts ...Option) *Launcher {
	l := &Launcher{
		shell:      DefaultShell,
		drainGrace: task.DefaultDrainGrace,
		killGrace:  DefaultKillGrace,
		stdout:     os.Stdout,
		log:        logger.GetGlobalLogger().WithComponent("launcher"),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.env == nil {
		l.env = snapshotEnviron()
	}
	return l
}

// environSlice renders the snapshot in the KEY=value form exec.Cmd takes.
// The snapshot is authoritative: the subprocess sees it and nothing else.
func environSlice(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}

// snapshotEnviron captures the current process environment as a map.
func snapshotEnviron() map[string]string {
	environ := os.Environ()
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		if i := strings.IndexByte(kv, '='); i > 0 {
			env[kv[:i]] = kv[i+1:]
		}
	}
	return env
}

// Launch materializes the run's work-directory artifacts, spawns the
// runner, supervises it to completion, and records the terminal result on
// the run. It returns an error only when the run never reached a verdict:
// bad preconditions, artifact I/O failure, or a failed spawn. A nonzero
// exit or a timeout kill is recorded as StatusFailed and returns nil.
func (l *Launcher) Launch(ctx context.Context, run *task.Run) error {
	if run.Script == "" {
		return errors.Precondition("script is empty")
	}
	if run.WorkDir == "" {
		return errors.Precondition("work directory is empty")
	}
	if run.Status != task.StatusCreated {
		return errors.Precondition("run already launched")
	}
	run.Config.ApplyDefaults()

	log := l.log.WithTask(run.Process, run.Index, run.ID.String())

	if err := os.MkdirAll(run.WorkDir, 0o755); err != nil {
		return errors.IO("create work directory", run.WorkDir, err)
	}
	if err := writeEnvFile(run.ArtifactPath(task.EnvFile), l.env, log); err != nil {
		return err
	}
	if err := writeScriptFile(run.ArtifactPath(task.ScriptFile), run.Script); err != nil {
		return err
	}
	if err := writeRunnerFile(run.ArtifactPath(task.RunnerFile), l.shell); err != nil {
		return err
	}

	outPath := run.ArtifactPath(task.OutFile)
	outFile, err := os.OpenFile(outPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.IO("create output artifact", outPath, err)
	}
	run.OutputFile = outPath

	// Merged stdout+stderr through a single pipe so interleaving matches
	// what a terminal would show.
	outRead, outWrite, err := os.Pipe()
	if err != nil {
		outFile.Close()
		return errors.LaunchFailed(err)
	}

	c := exec.Command(l.shell, task.RunnerFile) //nolint:gosec // executing user scripts is the purpose of this package
	c.Dir = run.WorkDir
	c.Env = environSlice(l.env)
	c.Stdout = outWrite
	c.Stderr = outWrite
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdinWrite *os.File
	if run.Stdin != nil {
		stdinRead, sw, perr := os.Pipe()
		if perr != nil {
			outFile.Close()
			outRead.Close()
			outWrite.Close()
			return errors.LaunchFailed(perr)
		}
		c.Stdin = stdinRead
		stdinWrite = sw
		defer stdinRead.Close()
	}

	if err := c.Start(); err != nil {
		outFile.Close()
		outRead.Close()
		outWrite.Close()
		if stdinWrite != nil {
			stdinWrite.Close()
		}
		return errors.LaunchFailed(err)
	}
	// The child holds its own copy of the write end. Close ours so the
	// drainer sees EOF once the process tree exits.
	outWrite.Close()

	drainDone := make(chan struct{})
	go func() {
		defer close(drainDone)
		var echo io.Writer
		if run.Config.Echo {
			echo = l.stdout
		}
		drainOutput(outRead, outFile, echo, log)
	}()

	feederDone := make(chan struct{})
	if stdinWrite != nil {
		go func() {
			defer close(feederDone)
			feedStdin(stdinWrite, run.Stdin, log)
		}()
	} else {
		close(feederDone)
	}

	waitCh := make(chan error, 1)
	go func() { waitCh <- c.Wait() }()

	// Closing our pipe ends unblocks whichever pump is still running, so
	// both joins complete even when the process never read its stdin or
	// exited before the drainer saw EOF. Runs before the run is classified.
	var cleanupOnce sync.Once
	cleanup := func() {
		cleanupOnce.Do(func() {
			if stdinWrite != nil {
				stdinWrite.Close()
			}
			<-feederDone
			outRead.Close()
			<-drainDone
			outFile.Close()
		})
	}
	defer cleanup()

	if err := run.Transition(task.StatusRunning); err != nil {
		killTimer := l.terminate(c.Process, log)
		<-waitCh
		killTimer.Stop()
		return err
	}
	log.Debug("task started", logger.Fields(logger.FieldWorkDir, run.WorkDir, "pid", c.Process.Pid))

	observability.SetSpanAttribute(ctx, observability.AttrTaskID, run.ID.String())

	var timeout <-chan time.Time
	if d := run.Config.MaxDuration; d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-waitCh:
	case <-timeout:
		run.TimedOut = true
		log.Warn("task exceeded max duration, killing process group",
			logger.Fields("max_duration", run.Config.MaxDuration.String()))
		killTimer := l.terminate(c.Process, log)
		<-waitCh
		killTimer.Stop()
	case <-ctx.Done():
		log.Warn("task canceled, killing process group", logger.ErrorFields("wait", ctx.Err()))
		killTimer := l.terminate(c.Process, log)
		<-waitCh
		killTimer.Stop()
	}

	grace := util.Coalesce(run.Config.DrainGrace, l.drainGrace)
	select {
	case <-drainDone:
	case <-time.After(grace):
		log.Warn("output drain grace expired before pipe closed")
	}

	cleanup()

	return l.classify(run, c.ProcessState.ExitCode(), log)
}

// classify records the exit code and moves the run to its terminal state.
func (l *Launcher) classify(run *task.Run, exitCode int, log *logger.Logger) error {
	run.ExitCode = exitCode

	if run.TimedOut || !run.Config.Accepts(exitCode) {
		if err := run.Transition(task.StatusFailed); err != nil {
			return err
		}
		log.Info("task failed", logger.Fields(
			logger.FieldExitCode, exitCode,
			"timed_out", run.TimedOut,
		))
		return nil
	}

	if err := run.Transition(task.StatusCompleted); err != nil {
		return err
	}
	log.Info("task completed", logger.Fields(logger.FieldExitCode, exitCode))
	return nil
}

// terminate stops the run's entire process group: SIGTERM first, SIGKILL
// after the kill grace. The returned timer should be stopped once the
// process is reaped. Both signals tolerate an already-dead group.
func (l *Launcher) terminate(p *os.Process, log *logger.Logger) *time.Timer {
	if err := signalGroup(p, syscall.SIGTERM); err != nil {
		log.Debug("sending SIGTERM", logger.ErrorFields("signal", err))
	}
	return time.AfterFunc(l.killGrace, func() {
		if err := signalGroup(p, syscall.SIGKILL); err != nil {
			log.Debug("sending SIGKILL", logger.ErrorFields("signal", err))
		}
	})
}

// signalGroup delivers sig to the process group. A group that already
// exited is not an error.
func signalGroup(p *os.Process, sig syscall.Signal) error {
	if p == nil {
		return nil
	}
	if err := syscall.Kill(-p.Pid, sig); err != nil && err != syscall.ESRCH {
		return err
	}
	return nil
}

// CheckHealth reports whether the launcher's shell is available.
func (l *Launcher) CheckHealth(ctx context.Context) observability.Health {
	h := observability.Health{Name: "launcher", Status: observability.HealthStatusUp}

	info, err := os.Stat(l.shell)
	switch {
	case err != nil:
		h.Status = observability.HealthStatusDown
		h.Message = "shell not found: " + l.shell
	case info.IsDir() || info.Mode().Perm()&0o111 == 0:
		h.Status = observability.HealthStatusDown
		h.Message = "shell not executable: " + l.shell
	}
	return h
}
