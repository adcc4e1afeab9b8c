// handlers_extract.go - Extraction and copy handlers
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/ocrbot/backend/internal/controller"
	"github.com/ocrbot/backend/internal/logger"
	"github.com/ocrbot/backend/internal/models"
)

// ExtractHandlerImpl implements the ExtractHandler interface
type ExtractHandlerImpl struct {
	sessions SessionManager
}

// NewExtractHandler creates a new extract handler
func NewExtractHandler(sessions SessionManager) ExtractHandler {
	return &ExtractHandlerImpl{sessions: sessions}
}

// HandleExtract starts an extraction attempt and returns immediately.
// Progress is observed through the state endpoints or the websocket stream.
func (h *ExtractHandlerImpl) HandleExtract(c echo.Context) error {
	state, err := lookupSession(c, h.sessions)
	if err != nil {
		return err
	}

	// The attempt outlives this request; the controller scopes it to the session.
	done, err := state.Controller.StartExtractText(context.Background())
	if err != nil {
		return fromControllerError(err, state.ID)
	}

	id := shortID(state.ID)
	go func() {
		if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("extraction attempt failed", "session", id, "error", err)
		}
	}()

	return c.JSON(http.StatusAccepted, state.Snapshot())
}

// HandleCopy acknowledges a copy and hands the text to the page, which owns the clipboard
func (h *ExtractHandlerImpl) HandleCopy(c echo.Context) error {
	state, err := lookupSession(c, h.sessions)
	if err != nil {
		return err
	}

	if err := state.Controller.CopyToClipboard(); err != nil {
		if errors.Is(err, controller.ErrClosed) {
			return fromControllerError(err, state.ID)
		}
		return NewInternalError("failed to copy text", err)
	}

	snapshot := state.Snapshot()
	resp := copyResponse{State: snapshot}
	if snapshot.Copied {
		resp.Text = state.Clipboard.Text()
	}
	return c.JSON(http.StatusOK, resp)
}

type copyResponse struct {
	Text  string             `json:"text"`
	State models.WidgetState `json:"state"`
}
