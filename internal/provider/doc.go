// Package provider adapts abstract text-generation requests to the external
// language-model backend's wire protocol.
//
// The Client exposes three operations:
//   - GenerateText: prompt + options -> completion text
//   - GenerateJSON: GenerateText followed by strict JSON parsing
//   - StreamText: lazy sequence of fragments with deterministic release
//
// Every call path acquires a rate-limiter permit before issuing the network
// request. Failures surface as *Error carrying the upstream status and body;
// rate-limit waits are transparent to callers.
//
// The completion payload shape is encapsulated here; no other package knows
// how the backend is spoken to.
package provider
