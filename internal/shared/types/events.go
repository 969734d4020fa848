package types

// EventType identifies a notification published to subscribers
type EventType string

const (
	EventErrorDetected EventType = "error-detected"
	EventAutoAnalysis  EventType = "auto-analysis"
	EventHealthCheck   EventType = "health-check"
)

// Event is a typed notification emitted by the ingestion service.
// Delivery is best-effort; subscribers must never be able to stall ingestion.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SessionID string      `json:"sessionId"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}
