// Package errors provides unified error handling for the flowkit engine.
// It implements structured error types with machine-readable codes and
// retryable detection so orchestration layers can apply retry policy
// without string matching.
package errors
