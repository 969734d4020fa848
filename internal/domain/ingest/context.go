package ingest

import (
	"fmt"
	"strings"
	"time"
)

// System prompts for the two provider call flavors. The chat prompt frames
// the assistant as a development helper; the analysis prompt asks for a
// diagnosis of the accumulated error signal.
const (
	chatSystemPrompt = "You are a helpful development assistant with access to live telemetry " +
		"from the user's running application. Use the provided session context to answer " +
		"questions about logs, errors, and application state."

	analysisSystemPrompt = "You are a diagnostic assistant analyzing runtime telemetry from a " +
		"front-end application. Identify the likely root cause of the observed errors, note " +
		"patterns across them, and suggest concrete debugging steps."
)

// buildContext synthesizes the session context string sent alongside chat
// and analysis prompts: identity, duration, counts, latest location, and
// the most recent logs verbatim.
func (s *Service) buildContext(sessionID string) string {
	summary, err := s.store.Summary(sessionID)
	if err != nil {
		return fmt.Sprintf("Session: %s (no recorded telemetry)", sessionID)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\n", summary.ID)
	duration := time.Duration(summary.LastActivity-summary.StartTime) * time.Millisecond
	fmt.Fprintf(&b, "Duration: %s\n", duration.Round(time.Second))
	fmt.Fprintf(&b, "Logs: %d total, %d errors\n", summary.LogsCount, summary.ErrorsCount)

	if state, ok := s.store.LatestState(sessionID); ok {
		fmt.Fprintf(&b, "URL: %s\n", state.URL)
		fmt.Fprintf(&b, "Viewport: %dx%d\n", state.Viewport.Width, state.Viewport.Height)
		if state.UserAgent != "" {
			fmt.Fprintf(&b, "User agent: %s\n", state.UserAgent)
		}
	}

	logs, err := s.store.Logs(sessionID, "", s.cfg.ContextLogs)
	if err == nil && len(logs) > 0 {
		fmt.Fprintf(&b, "Recent logs (%d):\n", len(logs))
		for _, entry := range logs {
			fmt.Fprintf(&b, "[%s] %s\n", entry.Level, entry.Message)
			if entry.Stack != "" {
				fmt.Fprintf(&b, "%s\n", entry.Stack)
			}
		}
	}

	return b.String()
}
