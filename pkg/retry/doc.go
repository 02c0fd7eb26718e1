// Package retry provides backoff and retry logic for transient failures
// in Celenium API calls.
//
// Features:
//   - Constant and exponential backoff strategies
//   - Jitter to avoid thundering herd problems
//   - Context support for cancellation
//   - Configurable retry predicates over typed API errors
//   - MaxAttempts 0 retries forever, which long unattended export runs
//     rely on to survive upstream outages
//
// Basic usage:
//
//	// Simple retry with defaults (retry forever, constant 5s backoff)
//	err := retry.Do(func() error {
//		return client.FetchAddresses(limit, offset)
//	}, nil)
//
//	// Capped attempts
//	cfg := retry.DefaultConfig()
//	cfg.MaxAttempts = 3
//	err = retry.Do(op, cfg)
package retry
