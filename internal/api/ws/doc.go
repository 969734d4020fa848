// Package ws provides WebSocket handling for real-time telemetry streaming.
//
// This package implements WebSocket communication for live ingestion and
// event delivery, so a connected front-end can push telemetry and receive
// analysis notifications over one socket.
//
// Features:
//   - Telemetry ingestion over the same service as the REST endpoint
//   - Event bus subscription with per-socket buffering
//   - Automatic connection upgrade from HTTP
//   - Context-based cancellation
//
// Message Types (Client → Server):
//   - console, error, state, chat, health: Telemetry messages
//   - subscribe: Start receiving analysis events
//   - ping: Keep-alive ping
//
// Message Types (Server → Client):
//   - system: Welcome frame on connect
//   - result: Outcome of a handled telemetry message
//   - subscribed: Subscription acknowledged
//   - event: Bus event (error-detected, auto-analysis, health-check)
//   - pong: Keep-alive reply
//   - error: Error occurred
//
// Example Usage:
//
//	handler := ws.NewHandler(service, bus, logger)
//	router.GET("/stream", handler.HandleConnection)
package ws
