package ingest

import (
	"context"

	"go.uber.org/zap"

	"github.com/devlens/devlens/internal/provider"
	"github.com/devlens/devlens/internal/shared/types"
)

// enqueueAnalysis hands a trigger evaluation to the background worker.
// The queue is bounded; when it is full the evaluation is dropped rather
// than stalling the ingestion path.
func (s *Service) enqueueAnalysis(sessionID string) {
	if !s.cfg.AutoAnalysis {
		return
	}
	select {
	case s.tasks <- sessionID:
	default:
		s.logger.Warn("Analysis queue full, dropping trigger evaluation",
			zap.String("session_id", sessionID))
	}
}

func (s *Service) analysisLoop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case sessionID := <-s.tasks:
			s.evaluateAutoAnalysis(sessionID)
		}
	}
}

// evaluateAutoAnalysis applies the trigger policy: inspect the most recent
// error-level entries and call the provider only once enough signal has
// accumulated. This path is best-effort; failures are logged and swallowed.
func (s *Service) evaluateAutoAnalysis(sessionID string) {
	recent := s.store.RecentErrors(sessionID, s.cfg.ErrorWindow)
	if len(recent) < s.cfg.ErrorThreshold {
		// A single transient error is noise, not signal
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), analysisTimeout)
	defer cancel()

	prompt := s.buildContext(sessionID) +
		"\n\nProvide an analysis of the recent errors in this session."
	text, err := s.gen.GenerateText(ctx, prompt, provider.Options{SystemPrompt: analysisSystemPrompt})
	if err != nil {
		s.logger.Warn("Auto-analysis failed",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return
	}

	if s.bus != nil {
		s.bus.Publish(types.Event{
			Type:      types.EventAutoAnalysis,
			SessionID: sessionID,
			Data: map[string]interface{}{
				"analysis":   text,
				"errorCount": len(recent),
			},
			Timestamp: s.cfg.Now().UnixMilli(),
		})
	}
}
