// Package resilience provides admission control for outbound provider calls.
//
// The Limiter enforces a sliding window: no more than MaxRequests admissions
// within any trailing Window interval. Unlike a token bucket, the bound holds
// for every trailing interval, which matches upstream accounts metered as
// "N requests per minute".
//
// One limiter instance guards one upstream budget; calls from all sessions
// compete for the same permits.
//
// Example Usage:
//
//	limiter := resilience.New(resilience.Settings{MaxRequests: 5, Window: time.Minute})
//	if err := limiter.Acquire(ctx); err != nil {
//		return err // cancelled while waiting
//	}
//	resp, err := callBackend(ctx)
package resilience
