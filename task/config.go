package task

import (
	"time"

	"github.com/kbukum/flowkit/util"
	"github.com/kbukum/flowkit/validation"
)

// DefaultDrainGrace is how long the launcher waits for output draining
// to finish after the subprocess exits before closing the output file.
const DefaultDrainGrace = 500 * time.Millisecond

// Config holds per-run execution settings.
type Config struct {
	// MaxDuration bounds the subprocess wall-clock time. Zero means no timeout.
	MaxDuration time.Duration `yaml:"max_duration" mapstructure:"max_duration" validate:"gte=0"`

	// ValidExitCodes are the exit codes classified as success. Defaults to {0}.
	ValidExitCodes []int `yaml:"valid_exit_codes" mapstructure:"valid_exit_codes"`

	// Echo mirrors subprocess output to the launcher's stdout writer in
	// addition to the output artifact.
	Echo bool `yaml:"echo" mapstructure:"echo"`

	// DrainGrace overrides the launcher-wide drain grace for this run.
	// Zero means use the launcher default.
	DrainGrace time.Duration `yaml:"drain_grace" mapstructure:"drain_grace" validate:"gte=0"`
}

// ApplyDefaults fills zero-valued fields with defaults.
func (c *Config) ApplyDefaults() {
	if len(c.ValidExitCodes) == 0 {
		c.ValidExitCodes = []int{0}
	}
}

// Validate validates the run configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}

// Accepts reports whether the exit code is in the valid set.
func (c *Config) Accepts(exitCode int) bool {
	return util.Contains(c.ValidExitCodes, exitCode)
}
