// Package ratelimit provides rate limiting for the Celenium API client.
//
// The public Celenium API allows 3 requests per second. A single token
// bucket is shared by every goroutine that talks to the API, so the
// sustained request rate stays bounded regardless of how many concurrent
// lookups are in flight or how often failed requests are retried.
//
// Implementations:
//
// Token Bucket:
//   - Fixed capacity bucket that refills after a specified period
//   - Used by the exporter with NewTokenBucket(3, time.Second)
//
// Unlimited:
//   - Never blocks, for tests
//
// All rate limiters implement the Limiter interface.
package ratelimit
