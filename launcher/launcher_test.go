package launcher

import (
	"bytes"
	"context"
	"os"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/task"
)

func newTestLauncher(t *testing.T, opts ...Option) *Launcher {
	t.Helper()
	base := []Option{
		WithEnv(map[string]string{"PATH": os.Getenv("PATH")}),
		WithLogger(logger.NewDefault("launcher-test")),
	}
	return New(append(base, opts...)...)
}

func newTestRun(t *testing.T, script string, cfg task.Config) *task.Run {
	t.Helper()
	return task.NewRun("test", 0, t.TempDir(), script, cfg)
}

func readOutput(t *testing.T, run *task.Run) string {
	t.Helper()
	data, err := os.ReadFile(run.OutputFile)
	if err != nil {
		t.Fatalf("reading output artifact: %v", err)
	}
	return string(data)
}

func TestLaunchEchoCompletes(t *testing.T) {
	l := newTestLauncher(t)
	run := newTestRun(t, "echo hello", task.Config{})

	if err := l.Launch(context.Background(), run); err != nil {
		t.Fatalf("launch: %v", err)
	}
	if run.Status != task.StatusCompleted {
		t.Fatalf("expected Completed, got %s", run.Status)
	}
	if run.ExitCode != 0 {
		t.Fatalf("expected exit code 0, got %d", run.ExitCode)
	}
	if got := readOutput(t, run); got != "hello\n" {
		t.Fatalf("expected output 'hello\\n', got %q", got)
	}
}

func TestLaunchNonzeroExitFails(t *testing.T) {
	l := newTestLauncher(t)
	run := newTestRun(t, "exit 3", task.Config{})

	if err := l.Launch(context.Background(), run); err != nil {
		t.Fatalf("launch must not error on nonzero exit: %v", err)
	}
	if run.Status != task.StatusFailed {
		t.Fatalf("expected Failed, got %s", run.Status)
	}
	if run.ExitCode != 3 {
		t.Fatalf("expected exit code 3, got %d", run.ExitCode)
	}
	if run.TimedOut {
		t.Fatal("nonzero exit must not be marked timed out")
	}
}

func TestLaunchValidExitCodes(t *testing.T) {
	l := newTestLauncher(t)
	run := newTestRun(t, "exit 3", task.Config{ValidExitCodes: []int{0, 3}})

	if err := l.Launch(context.Background(), run); err != nil {
		t.Fatalf("launch: %v", err)
	}
	if run.Status != task.StatusCompleted {
		t.Fatalf("exit 3 with valid set {0,3}: expected Completed, got %s", run.Status)
	}
}

func TestLaunchTimeoutKillsProcessGroup(t *testing.T) {
	l := newTestLauncher(t, WithKillGrace(time.Second))
	run := newTestRun(t, "sleep 10", task.Config{MaxDuration: time.Second})

	start := time.Now()
	if err := l.Launch(context.Background(), run); err != nil {
		t.Fatalf("launch: %v", err)
	}
	elapsed := time.Since(start)

	if run.Status != task.StatusFailed {
		t.Fatalf("expected Failed, got %s", run.Status)
	}
	if !run.TimedOut {
		t.Fatal("expected TimedOut flag")
	}
	if run.ExitCode != -1 {
		t.Fatalf("expected exit code -1 for a killed run, got %d", run.ExitCode)
	}
	if elapsed >= 5*time.Second {
		t.Fatalf("launch took %s, timeout did not bound wall-clock time", elapsed)
	}
}

func TestLaunchStdinPayload(t *testing.T) {
	l := newTestLauncher(t)
	run := newTestRun(t, "cat", task.Config{})
	run.Stdin = []byte("abc\n")

	if err := l.Launch(context.Background(), run); err != nil {
		t.Fatalf("launch: %v", err)
	}
	if run.Status != task.StatusCompleted {
		t.Fatalf("expected Completed, got %s", run.Status)
	}
	if got := readOutput(t, run); got != "abc\n" {
		t.Fatalf("expected 'abc\\n', got %q", got)
	}
}

func TestLaunchJoinsStdinFeederBeforeReturn(t *testing.T) {
	l := newTestLauncher(t)
	// A payload far larger than the pipe buffer, fed to a script that never
	// reads its stdin, leaves the feeder blocked mid-write. Launch must
	// still unblock and join it before the run is declared terminal.
	run := newTestRun(t, "exit 0", task.Config{})
	run.Stdin = bytes.Repeat([]byte("x"), 1<<20)

	if err := l.Launch(context.Background(), run); err != nil {
		t.Fatalf("launch: %v", err)
	}
	if run.Status != task.StatusCompleted {
		t.Fatalf("expected Completed, got %s", run.Status)
	}

	buf := make([]byte, 1<<20)
	stacks := string(buf[:runtime.Stack(buf, true)])
	if strings.Contains(stacks, "feedStdin") {
		t.Fatal("stdin feeder still running after Launch returned")
	}
}

func TestLaunchNilStdinIsEOF(t *testing.T) {
	l := newTestLauncher(t)
	// Without a payload the subprocess must see EOF immediately, not hang.
	run := newTestRun(t, "cat", task.Config{MaxDuration: 5 * time.Second})

	if err := l.Launch(context.Background(), run); err != nil {
		t.Fatalf("launch: %v", err)
	}
	if run.Status != task.StatusCompleted {
		t.Fatalf("expected Completed, got %s (TimedOut=%v)", run.Status, run.TimedOut)
	}
}

func TestLaunchMergesStderr(t *testing.T) {
	l := newTestLauncher(t)
	run := newTestRun(t, "echo out; echo err 1>&2", task.Config{})

	if err := l.Launch(context.Background(), run); err != nil {
		t.Fatalf("launch: %v", err)
	}
	got := readOutput(t, run)
	if !strings.Contains(got, "out\n") || !strings.Contains(got, "err\n") {
		t.Fatalf("expected both streams in output artifact, got %q", got)
	}
}

func TestLaunchEchoMirrorsOutput(t *testing.T) {
	var mirror bytes.Buffer
	l := newTestLauncher(t, WithStdout(&mirror))
	run := newTestRun(t, "echo mirrored", task.Config{Echo: true})

	if err := l.Launch(context.Background(), run); err != nil {
		t.Fatalf("launch: %v", err)
	}
	if got := mirror.String(); got != "mirrored\n" {
		t.Fatalf("expected mirrored output, got %q", got)
	}
	if got := readOutput(t, run); got != "mirrored\n" {
		t.Fatalf("artifact must receive output regardless of echo, got %q", got)
	}
}

func TestLaunchEnvironmentExported(t *testing.T) {
	l := newTestLauncher(t, WithEnv(map[string]string{
		"PATH":     os.Getenv("PATH"),
		"GREETING": "hi there",
	}))
	run := newTestRun(t, `echo "$GREETING"`, task.Config{})

	if err := l.Launch(context.Background(), run); err != nil {
		t.Fatalf("launch: %v", err)
	}
	if got := readOutput(t, run); got != "hi there\n" {
		t.Fatalf("expected exported env visible to script, got %q", got)
	}
}

func TestEnvFileSkipsBadNamesAndQuotes(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/" + task.EnvFile
	env := map[string]string{
		"GOOD":     "plain",
		"QUOTED":   "it's quoted",
		"BAD-NAME": "dropped",
		"1LEADING": "dropped",
	}

	if err := writeEnvFile(path, env, logger.NewDefault("test")); err != nil {
		t.Fatalf("writeEnvFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading env artifact: %v", err)
	}
	content := string(data)

	if !strings.Contains(content, "export GOOD='plain'\n") {
		t.Fatalf("missing GOOD export in %q", content)
	}
	if !strings.Contains(content, `export QUOTED='it'\''s quoted'`) {
		t.Fatalf("missing escaped QUOTED export in %q", content)
	}
	if strings.Contains(content, "BAD-NAME") || strings.Contains(content, "1LEADING") {
		t.Fatalf("unexportable names must be skipped, got %q", content)
	}
}

func TestScriptFileNormalizesCRLF(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/" + task.ScriptFile

	if err := writeScriptFile(path, "echo a\r\necho b\r\n"); err != nil {
		t.Fatalf("writeScriptFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading script artifact: %v", err)
	}
	if string(data) != "echo a\necho b\n" {
		t.Fatalf("expected LF line endings, got %q", data)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o744 {
		t.Fatalf("expected mode 0744, got %o", info.Mode().Perm())
	}
}

func TestLaunchPreconditions(t *testing.T) {
	l := newTestLauncher(t)
	ctx := context.Background()

	run := task.NewRun("p", 0, t.TempDir(), "", task.Config{})
	if err := l.Launch(ctx, run); !errors.IsCode(err, errors.ErrCodePrecondition) {
		t.Fatalf("empty script: expected PRECONDITION_VIOLATION, got %v", err)
	}
	if run.Status != task.StatusCreated {
		t.Fatalf("failed precondition must leave status Created, got %s", run.Status)
	}

	run = task.NewRun("p", 0, "", "echo hi", task.Config{})
	if err := l.Launch(ctx, run); !errors.IsCode(err, errors.ErrCodePrecondition) {
		t.Fatalf("empty workdir: expected PRECONDITION_VIOLATION, got %v", err)
	}
}

func TestLaunchRejectsRelaunch(t *testing.T) {
	l := newTestLauncher(t)
	run := newTestRun(t, "true", task.Config{})

	if err := l.Launch(context.Background(), run); err != nil {
		t.Fatalf("first launch: %v", err)
	}
	if err := l.Launch(context.Background(), run); !errors.IsCode(err, errors.ErrCodePrecondition) {
		t.Fatalf("second launch: expected PRECONDITION_VIOLATION, got %v", err)
	}
}

func TestLaunchBadShellIsLaunchFailure(t *testing.T) {
	l := newTestLauncher(t, WithShell("/nonexistent/shell"))
	run := newTestRun(t, "echo hi", task.Config{})

	err := l.Launch(context.Background(), run)
	if !errors.IsCode(err, errors.ErrCodeLaunchFailure) {
		t.Fatalf("expected LAUNCH_FAILURE, got %v", err)
	}
	if run.Status != task.StatusCreated {
		t.Fatalf("failed spawn must leave status Created, got %s", run.Status)
	}
}

func TestLaunchContextCancellation(t *testing.T) {
	l := newTestLauncher(t, WithKillGrace(time.Second))
	run := newTestRun(t, "sleep 10", task.Config{})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(200*time.Millisecond, cancel)

	start := time.Now()
	if err := l.Launch(ctx, run); err != nil {
		t.Fatalf("launch: %v", err)
	}
	if run.Status != task.StatusFailed {
		t.Fatalf("expected Failed after cancellation, got %s", run.Status)
	}
	if run.TimedOut {
		t.Fatal("cancellation must not set TimedOut")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("cancellation did not stop the run promptly, took %s", elapsed)
	}
}

func TestLaunchArtifactsMaterialized(t *testing.T) {
	l := newTestLauncher(t)
	run := newTestRun(t, "echo hi", task.Config{})

	if err := l.Launch(context.Background(), run); err != nil {
		t.Fatalf("launch: %v", err)
	}
	for _, name := range []string{task.EnvFile, task.ScriptFile, task.RunnerFile, task.OutFile} {
		if _, err := os.Stat(run.ArtifactPath(name)); err != nil {
			t.Fatalf("expected artifact %s: %v", name, err)
		}
	}
	if run.OutputFile != run.ArtifactPath(task.OutFile) {
		t.Fatalf("OutputFile not attached, got %q", run.OutputFile)
	}
}

func TestCheckHealth(t *testing.T) {
	l := newTestLauncher(t)
	if h := l.CheckHealth(context.Background()); h.Status != "up" {
		t.Fatalf("expected healthy launcher, got %s (%s)", h.Status, h.Message)
	}

	bad := newTestLauncher(t, WithShell("/nonexistent/shell"))
	if h := bad.CheckHealth(context.Background()); h.Status != "down" {
		t.Fatalf("expected down for missing shell, got %s", h.Status)
	}
}
