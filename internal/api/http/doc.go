// Package http exposes the REST surface of the telemetry service.
//
// Write path:
//   - POST /ingest: one telemetry message, routed by type
//
// Read paths:
//   - GET /sessions: active session summaries
//   - GET /sessions/:id: one summary
//   - GET /sessions/:id/logs?level=&limit=: log listing
//   - GET /sessions/:id/conversation: chat history
//   - GET /sessions/:id/health: uptime and counts
//   - GET /health: liveness probe with active-session count
//
// Responses use the success envelope {success, data, timestamp} or the
// failure envelope {error, message} with 400/404/500 status mapping.
package http
