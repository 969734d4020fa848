// Package monitoring provides Prometheus metrics for the telemetry service.
//
// Metric Groups:
//   - HTTP: request counts and latency by method/path/status
//   - Ingestion: message counts and handling latency by type
//   - Sessions: active gauge, created/evicted counters
//   - Provider: call counts, latency, rate-limiter wait time
//   - Events: published and dropped notification counts
//
// Metrics are exposed at GET /metrics in Prometheus text format.
package monitoring
