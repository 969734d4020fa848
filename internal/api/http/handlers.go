package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/devlens/devlens/internal/domain/ingest"
	"github.com/devlens/devlens/internal/domain/session"
	"github.com/devlens/devlens/internal/shared/types"
)

// maxLogListing caps the log listing endpoint response size
const maxLogListing = 1000

// Handlers contains all HTTP handlers
type Handlers struct {
	store   *session.Store
	service *ingest.Service
}

// NewHandlers creates a new handler set
func NewHandlers(store *session.Store, service *ingest.Service) *Handlers {
	return &Handlers{
		store:   store,
		service: service,
	}
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "DevLens Telemetry Service",
		"version": "1.0.0",
	})
}

// Health handles the liveness probe
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":          "healthy",
		"active_sessions": h.store.Count(),
	})
}

// Ingest accepts one telemetry message and routes it
func (h *Handlers) Ingest(c *gin.Context) {
	var msg types.Message
	if err := c.ShouldBindJSON(&msg); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	res, err := h.service.Handle(c.Request.Context(), msg)
	if err != nil {
		respondFromError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"data":      res.Data,
		"timestamp": res.Timestamp,
	})
}

// ListSessions returns summaries of all currently active sessions
func (h *Handlers) ListSessions(c *gin.Context) {
	respondData(c, h.store.ActiveSummaries())
}

// GetSession returns the summary for one session
func (h *Handlers) GetSession(c *gin.Context) {
	summary, err := h.store.Summary(c.Param("id"))
	if err != nil {
		respondFromError(c, err)
		return
	}
	respondData(c, summary)
}

// GetLogs returns the log listing with optional level filter and limit
func (h *Handlers) GetLogs(c *gin.Context) {
	level := types.LogLevel(c.Query("level"))
	if level != "" && !level.Valid() {
		respondError(c, http.StatusBadRequest, "validation_error", "unknown level "+string(level))
		return
	}

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondError(c, http.StatusBadRequest, "validation_error", "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > maxLogListing {
		limit = maxLogListing
	}

	logs, err := h.store.Logs(c.Param("id"), level, limit)
	if err != nil {
		respondFromError(c, err)
		return
	}
	respondData(c, gin.H{"logs": logs, "count": len(logs)})
}

// GetConversation returns the conversation history for one session
func (h *Handlers) GetConversation(c *gin.Context) {
	turns, err := h.store.Conversation(c.Param("id"))
	if err != nil {
		respondFromError(c, err)
		return
	}
	respondData(c, gin.H{"conversation": turns, "length": len(turns)})
}

// GetSessionHealth returns uptime and counts for one session without
// touching lastActivity
func (h *Handlers) GetSessionHealth(c *gin.Context) {
	summary, err := h.store.Summary(c.Param("id"))
	if err != nil {
		respondFromError(c, err)
		return
	}
	respondData(c, types.HealthReport{
		SessionID:    summary.ID,
		UptimeMs:     summary.LastActivity - summary.StartTime,
		LogsCount:    summary.LogsCount,
		ErrorsCount:  summary.ErrorsCount,
		LastActivity: summary.LastActivity,
	})
}
