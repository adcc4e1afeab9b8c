// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"github.com/labstack/echo/v4"
	"github.com/ocrbot/backend/internal/storage"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store    storage.Store
	Sessions SessionManager
	Version  string
}

// Handlers holds all handler instances
type Handlers struct {
	Health  HealthHandler
	Session SessionHandler
	Upload  UploadHandler
	Extract ExtractHandler
	Stream  StateStreamHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(deps.Version, deps.Sessions, deps.Store),
		Session: NewSessionHandler(deps.Sessions),
		Upload:  NewUploadHandler(deps.Store, deps.Sessions),
		Extract: NewExtractHandler(deps.Sessions),
		Stream:  NewWebSocketHandler(deps.Sessions),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	apiGroup := e.Group("/api")

	// Health check
	apiGroup.GET("/health", handlers.Health.HandleHealth)

	// Session lifecycle
	apiGroup.POST("/sessions", handlers.Session.HandleCreateSession)
	apiGroup.GET("/sessions/:sessionId", handlers.Session.HandleGetSession)
	apiGroup.GET("/sessions/:sessionId/state/msgpack", handlers.Session.HandleGetSessionMsgpack)
	apiGroup.DELETE("/sessions/:sessionId", handlers.Session.HandleDeleteSession)

	// Widget operations
	apiGroup.POST("/sessions/:sessionId/file", handlers.Upload.HandleSelectFile)
	apiGroup.DELETE("/sessions/:sessionId/file", handlers.Upload.HandleClearFile)
	apiGroup.POST("/sessions/:sessionId/drag", handlers.Upload.HandleDrag)
	apiGroup.POST("/sessions/:sessionId/extract", handlers.Extract.HandleExtract)
	apiGroup.POST("/sessions/:sessionId/copy", handlers.Extract.HandleCopy)

	// State stream
	apiGroup.GET("/sessions/:sessionId/ws", handlers.Stream.HandleStateStream)
}

// SetupMiddleware configures the error handler shared by every route.
// showDetails controls whether raw error text reaches clients.
func SetupMiddleware(e *echo.Echo, showDetails bool) {
	e.HTTPErrorHandler = ErrorHandler
	showErrorDetails = showDetails
}
