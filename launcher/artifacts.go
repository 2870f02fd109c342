package launcher

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/kbukum/flowkit/errors"
	"github.com/kbukum/flowkit/logger"
	"github.com/kbukum/flowkit/task"
)

// envNamePattern matches names exportable in a POSIX shell.
var envNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

const artifactMode = 0o744

// writeEnvFile renders the environment snapshot as export lines, one per
// variable in sorted order. Names that a shell cannot export are logged
// and skipped rather than failing the launch.
func writeEnvFile(path string, env map[string]string, log *logger.Logger) error {
	names := make([]string, 0, len(env))
	for name := range env {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		if !envNamePattern.MatchString(name) {
			log.Warn("skipping unexportable environment variable", logger.Fields("name", name))
			continue
		}
		b.WriteString("export ")
		b.WriteString(name)
		b.WriteString("='")
		b.WriteString(quoteEnvValue(env[name]))
		b.WriteString("'\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), artifactMode); err != nil {
		return errors.IO("write env artifact", path, err)
	}
	return nil
}

// quoteEnvValue escapes a value for embedding in single quotes: each
// embedded single quote closes the string, emits an escaped quote, and
// reopens it.
func quoteEnvValue(value string) string {
	return strings.ReplaceAll(value, "'", `'\''`)
}

// writeScriptFile writes the user script with CRLF line endings normalized
// to LF so scripts authored on Windows run unchanged.
func writeScriptFile(path, script string) error {
	normalized := strings.ReplaceAll(script, "\r\n", "\n")
	if err := os.WriteFile(path, []byte(normalized), artifactMode); err != nil {
		return errors.IO("write script artifact", path, err)
	}
	return nil
}

// writeRunnerFile writes the wrapper that the launcher actually executes:
// it sources the env snapshot and hands off to the script in the same shell.
func writeRunnerFile(path, shell string) error {
	content := fmt.Sprintf("#!%s\nsource %s\n%s %s\n", shell, task.EnvFile, shell, task.ScriptFile)
	if err := os.WriteFile(path, []byte(content), artifactMode); err != nil {
		return errors.IO("write runner artifact", path, err)
	}
	return nil
}
