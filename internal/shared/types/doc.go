// Package types contains shared type definitions used across the service.
//
// This package has no dependencies on other internal packages, making it
// safe to import from anywhere without circular dependency issues.
//
// Type Categories:
//   - Message: inbound telemetry envelope and per-type payloads
//   - LogEntry/StateSnapshot/Turn: per-session telemetry records
//   - SessionSummary/HealthReport: read-model projections
//   - Event: outbound notifications published to subscribers
//   - ValidationError/NotFoundError: domain error taxonomy
package types
