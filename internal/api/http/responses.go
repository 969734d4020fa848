package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/devlens/devlens/internal/provider"
	"github.com/devlens/devlens/internal/shared/types"
)

// respondData writes the success envelope
func respondData(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UnixMilli(),
	})
}

// respondError writes the failure envelope
func respondError(c *gin.Context, status int, errStr, message string) {
	body := gin.H{"error": errStr}
	if message != "" {
		body["message"] = message
	}
	c.JSON(status, body)
}

// respondFromError maps domain errors onto HTTP statuses:
// 400 validation, 404 unknown session, 500 provider/internal failure.
func respondFromError(c *gin.Context, err error) {
	var valErr *types.ValidationError
	if errors.As(err, &valErr) {
		respondError(c, http.StatusBadRequest, "validation_error", valErr.Error())
		return
	}

	var notFound *types.NotFoundError
	if errors.As(err, &notFound) {
		respondError(c, http.StatusNotFound, "session_not_found", notFound.Error())
		return
	}

	var provErr *provider.Error
	if errors.As(err, &provErr) {
		respondError(c, http.StatusInternalServerError, "provider_error", provErr.Error())
		return
	}

	respondError(c, http.StatusInternalServerError, "internal_error", err.Error())
}
