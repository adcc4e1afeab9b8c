// handlers_health.go - Health check handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/ocrbot/backend/internal/controller"
	"github.com/ocrbot/backend/internal/storage"
)

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version  string
	sessions SessionManager
	store    storage.Store
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string, sessions SessionManager, store storage.Store) HealthHandler {
	return &HealthHandlerImpl{
		version:  version,
		sessions: sessions,
		store:    store,
	}
}

// HandleHealth returns server health status and what the upload store currently holds
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	files, err := h.store.List(0)
	if err != nil {
		return NewInternalError("failed to list uploads", err)
	}
	var stored int64
	for _, f := range files {
		stored += f.Size
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"version":     h.version,
		"mode":        h.sessions.Mode(),
		"sessions":    h.sessions.Count(),
		"accept":      controller.AcceptedTypes,
		"uploads":     len(files),
		"uploadBytes": stored,
	})
}
