// handlers_session.go - Widget session lifecycle handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// MIMEApplicationMsgpack is the content type of msgpack state responses
const MIMEApplicationMsgpack = "application/msgpack"

// SessionHandlerImpl implements the SessionHandler interface
type SessionHandlerImpl struct {
	sessions SessionManager
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions SessionManager) SessionHandler {
	return &SessionHandlerImpl{sessions: sessions}
}

// HandleCreateSession starts an idle widget session
func (h *SessionHandlerImpl) HandleCreateSession(c echo.Context) error {
	state, err := h.sessions.Create()
	if err != nil {
		return fromControllerError(err, "")
	}
	return c.JSON(http.StatusCreated, state.Snapshot())
}

// HandleGetSession returns the current widget state
func (h *SessionHandlerImpl) HandleGetSession(c echo.Context) error {
	state, err := lookupSession(c, h.sessions)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, state.Snapshot())
}

// HandleGetSessionMsgpack returns the widget state encoded as msgpack
func (h *SessionHandlerImpl) HandleGetSessionMsgpack(c echo.Context) error {
	state, err := lookupSession(c, h.sessions)
	if err != nil {
		return err
	}

	data, err := msgpack.Marshal(state.Snapshot())
	if err != nil {
		return NewInternalError("failed to encode state", err)
	}
	return c.Blob(http.StatusOK, MIMEApplicationMsgpack, data)
}

// HandleDeleteSession tears a session down, abandoning any in-flight request
func (h *SessionHandlerImpl) HandleDeleteSession(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}
	if err := h.sessions.Delete(id); err != nil {
		return fromControllerError(err, id)
	}
	return c.NoContent(http.StatusNoContent)
}
