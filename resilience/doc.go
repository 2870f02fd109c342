// Package resilience provides retry with exponential backoff for
// fault-tolerant task execution.
//
// The flow executor uses it to re-launch tasks whose failures are marked
// retryable:
//
//	result, err := resilience.Retry(ctx, cfg, func() (*task.Run, error) {
//	    return launchOnce(ctx, run)
//	})
package resilience
