package task

import (
	"path/filepath"

	"github.com/google/uuid"
)

// Work-directory artifact filenames. These names are fixed so that tools
// inspecting a work directory always find the same layout.
const (
	// EnvFile holds the environment snapshot as shell export lines.
	EnvFile = ".command.env"
	// ScriptFile holds the user script, CRLF-normalized.
	ScriptFile = ".command.sh"
	// RunnerFile is the wrapper that sources the env and executes the script.
	RunnerFile = ".command.run"
	// OutFile receives merged stdout and stderr of the subprocess.
	OutFile = ".command.out"
)

// Run is the record of a single task invocation. It is created once per
// input tuple and mutated only by the launcher that owns it.
type Run struct {
	// ID uniquely identifies this invocation.
	ID uuid.UUID

	// Process is the logical process name this run belongs to.
	Process string

	// Index is the ordinal of this run within its process, starting at 0.
	Index int

	// WorkDir is the directory where artifacts are materialized and the
	// subprocess executes.
	WorkDir string

	// Script is the user script body to execute.
	Script string

	// Stdin, when non-nil, is fed to the subprocess and its stdin closed
	// afterwards. Nil means the subprocess gets a closed stdin.
	Stdin []byte

	// Config holds the per-run execution settings.
	Config Config

	// Status is the lifecycle state. Mutate only via Transition.
	Status Status

	// ExitCode is the subprocess exit code, -1 until recorded and -1 for
	// a timed-out kill.
	ExitCode int

	// TimedOut is set when the run was killed by its MaxDuration bound.
	TimedOut bool

	// OutputFile is the absolute path of the output artifact, attached on
	// every terminal path.
	OutputFile string
}

// NewRun builds a run in the Created state with defaults applied.
func NewRun(process string, index int, workDir, script string, cfg Config) *Run {
	cfg.ApplyDefaults()
	return &Run{
		ID:       uuid.New(),
		Process:  process,
		Index:    index,
		WorkDir:  workDir,
		Script:   script,
		Config:   cfg,
		Status:   StatusCreated,
		ExitCode: -1,
	}
}

// Terminal reports whether the run reached a final state.
func (r *Run) Terminal() bool {
	return r.Status.Terminal()
}

// ArtifactPath returns the absolute path of a named artifact in the work dir.
func (r *Run) ArtifactPath(name string) string {
	return filepath.Join(r.WorkDir, name)
}
