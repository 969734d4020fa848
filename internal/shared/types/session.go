package types

// SessionSummary is the read-model projection of a session
type SessionSummary struct {
	ID                 string `json:"id"`
	StartTime          int64  `json:"startTime"`
	LastActivity       int64  `json:"lastActivity"`
	LogsCount          int    `json:"logsCount"`
	ErrorsCount        int    `json:"errorsCount"`
	StatesCount        int    `json:"statesCount"`
	ConversationLength int    `json:"conversationLength"`
}

// HealthReport is the response to a health message for one session
type HealthReport struct {
	SessionID    string `json:"sessionId"`
	UptimeMs     int64  `json:"uptimeMs"`
	LogsCount    int    `json:"logsCount"`
	ErrorsCount  int    `json:"errorsCount"`
	LastActivity int64  `json:"lastActivity"`
}
