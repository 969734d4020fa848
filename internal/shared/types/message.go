package types

import "encoding/json"

// MessageType classifies inbound telemetry messages
type MessageType string

const (
	MessageConsole MessageType = "console"
	MessageError   MessageType = "error"
	MessageState   MessageType = "state"
	MessageChat    MessageType = "chat"
	MessageHealth  MessageType = "health"
)

// Valid reports whether the message type is one the service routes
func (t MessageType) Valid() bool {
	switch t {
	case MessageConsole, MessageError, MessageState, MessageChat, MessageHealth:
		return true
	}
	return false
}

// Message is the inbound envelope from a connected front-end
type Message struct {
	Type      MessageType     `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"` // ms since epoch, client clock
}

// Result is the successful outcome of handling a message
type Result struct {
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"`
}

// LogLevel is the severity of a console log entry
type LogLevel string

const (
	LevelLog   LogLevel = "log"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
	LevelInfo  LogLevel = "info"
	LevelDebug LogLevel = "debug"
)

// Valid reports whether the level is a known severity
func (l LogLevel) Valid() bool {
	switch l {
	case LevelLog, LevelWarn, LevelError, LevelInfo, LevelDebug:
		return true
	}
	return false
}

// LogEntry is a single console record. Immutable once appended.
type LogEntry struct {
	Level     LogLevel               `json:"level"`
	Message   string                 `json:"message"`
	Timestamp int64                  `json:"timestamp"`
	Stack     string                 `json:"stack,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Viewport holds browser viewport dimensions
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// StateSnapshot captures the front-end application state at a point in time.
// Immutable once appended.
type StateSnapshot struct {
	URL         string             `json:"url"`
	Timestamp   int64              `json:"timestamp"`
	UserAgent   string             `json:"userAgent,omitempty"`
	Viewport    Viewport           `json:"viewport"`
	Performance map[string]float64 `json:"performance,omitempty"`
}

// Role identifies the author of a conversation turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one conversation exchange half
type Turn struct {
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// ConsolePayload is the data field of console and error messages
type ConsolePayload struct {
	Level     LogLevel               `json:"level"`
	Message   string                 `json:"message"`
	Timestamp int64                  `json:"timestamp"`
	Stack     string                 `json:"stack,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// StatePayload is the data field of state messages
type StatePayload struct {
	URL         string             `json:"url"`
	Timestamp   int64              `json:"timestamp"`
	UserAgent   string             `json:"userAgent,omitempty"`
	Viewport    Viewport           `json:"viewport"`
	Performance map[string]float64 `json:"performance,omitempty"`
}

// ChatPayload is the data field of chat messages
type ChatPayload struct {
	Content string `json:"content"`
}
