// Package task defines the task run model: the per-invocation record that
// tracks a single subprocess execution from creation through its terminal
// state, plus the configuration and work-directory artifact conventions
// the launcher materializes for it.
package task
