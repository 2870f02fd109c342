package config

import (
	"fmt"
	"runtime"
	"time"

	"github.com/kbukum/flowkit/logger"
)

// EngineConfig contains the configuration for the flowkit execution engine.
// Projects embed it in their own config structs when they add concerns.
type EngineConfig struct {
	Name        string        `yaml:"name" mapstructure:"name"`
	Environment string        `yaml:"environment" mapstructure:"environment"`
	Debug       bool          `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`
	Engine      Engine        `yaml:"engine" mapstructure:"engine"`
}

// Engine holds the task-execution settings consumed by the launcher and executor.
type Engine struct {
	// Shell is the interpreter used by the runner artifact.
	Shell string `yaml:"shell" mapstructure:"shell" validate:"required"`
	// WorkRoot is the directory under which per-task work directories are created.
	WorkRoot string `yaml:"work_root" mapstructure:"work_root" validate:"required"`
	// DrainGrace is how long the output drainer may flush after the subprocess exits.
	DrainGrace time.Duration `yaml:"drain_grace" mapstructure:"drain_grace"`
	// KillGrace is how long to wait after a kill before abandoning the wait.
	KillGrace time.Duration `yaml:"kill_grace" mapstructure:"kill_grace"`
	// MaxParallel bounds concurrently executing tasks (0 = unlimited).
	MaxParallel int `yaml:"max_parallel" mapstructure:"max_parallel" validate:"gte=0"`
	// Echo mirrors captured task output to the engine's own stdout.
	Echo bool `yaml:"echo" mapstructure:"echo"`
	// RetryAttempts is how many times a retryable task failure is re-launched.
	RetryAttempts int `yaml:"retry_attempts" mapstructure:"retry_attempts" validate:"gte=0"`
}

// GetEngineConfig returns the base EngineConfig. When embedded in a larger
// config struct this method is promoted, so the embedding struct satisfies
// the engine's config consumers automatically.
func (c *EngineConfig) GetEngineConfig() *EngineConfig {
	return c
}

// ApplyDefaults applies default values to the engine configuration.
func (c *EngineConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "flowkit"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	if c.Logging.ServiceName == "" {
		c.Logging.ServiceName = c.Name
	}
	c.Logging.ApplyDefaults()
	c.Engine.ApplyDefaults()
}

// ApplyDefaults applies default values to the execution settings.
func (e *Engine) ApplyDefaults() {
	if e.Shell == "" {
		e.Shell = "/bin/bash"
	}
	if e.WorkRoot == "" {
		e.WorkRoot = "work"
	}
	if e.DrainGrace == 0 {
		e.DrainGrace = 500 * time.Millisecond
	}
	if e.KillGrace == 0 {
		e.KillGrace = 5 * time.Second
	}
	if e.MaxParallel == 0 {
		e.MaxParallel = runtime.NumCPU()
	}
}

// Validate validates the engine configuration.
func (c *EngineConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("config.name is required")
	}
	validEnvs := []string{"development", "staging", "production"}
	found := false
	for _, v := range validEnvs {
		if c.Environment == v {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("config.environment must be one of [development, staging, production] (got: %s)", c.Environment)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return c.Engine.Validate()
}

// Validate validates the execution settings.
func (e *Engine) Validate() error {
	if e.Shell == "" {
		return fmt.Errorf("engine.shell is required")
	}
	if e.WorkRoot == "" {
		return fmt.Errorf("engine.work_root is required")
	}
	if e.DrainGrace < 0 {
		return fmt.Errorf("engine.drain_grace must not be negative")
	}
	if e.MaxParallel < 0 {
		return fmt.Errorf("engine.max_parallel must not be negative")
	}
	if e.RetryAttempts < 0 {
		return fmt.Errorf("engine.retry_attempts must not be negative")
	}
	return nil
}
