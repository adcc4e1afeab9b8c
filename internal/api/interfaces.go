// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"github.com/labstack/echo/v4"
	"github.com/ocrbot/backend/internal/models"
	"github.com/ocrbot/backend/internal/session"
)

// SessionHandler handles widget session lifecycle and state reads
type SessionHandler interface {
	HandleCreateSession(c echo.Context) error
	HandleGetSession(c echo.Context) error
	HandleGetSessionMsgpack(c echo.Context) error
	HandleDeleteSession(c echo.Context) error
}

// UploadHandler handles file selection and clearing
type UploadHandler interface {
	HandleSelectFile(c echo.Context) error
	HandleClearFile(c echo.Context) error
	HandleDrag(c echo.Context) error
}

// ExtractHandler handles extraction and copying of results
type ExtractHandler interface {
	HandleExtract(c echo.Context) error
	HandleCopy(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// StateStreamHandler pushes state changes to connected widgets
type StateStreamHandler interface {
	HandleStateStream(c echo.Context) error
}

// SessionManager defines the session operations handlers need.
// This allows mocking in tests
type SessionManager interface {
	Create() (*session.SessionState, error)
	Touch(id string) (*session.SessionState, bool)
	Delete(id string) error
	Count() int
	Mode() models.Mode
}

var _ SessionManager = (*session.Manager)(nil)

// lookupSession resolves the :sessionId param and refreshes its keep-alive
func lookupSession(c echo.Context, sessions SessionManager) (*session.SessionState, error) {
	id := c.Param("sessionId")
	if id == "" {
		return nil, NewValidationError("sessionId")
	}
	state, ok := sessions.Touch(id)
	if !ok {
		return nil, NewNotFoundError("session", id)
	}
	return state, nil
}
