// handlers_upload.go - File selection handlers
package api

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/labstack/echo/v4"
	"github.com/ocrbot/backend/internal/controller"
	"github.com/ocrbot/backend/internal/logger"
	"github.com/ocrbot/backend/internal/models"
	"github.com/ocrbot/backend/internal/storage"
)

// UploadHandlerImpl implements the UploadHandler interface
type UploadHandlerImpl struct {
	store    storage.Store
	sessions SessionManager
}

// NewUploadHandler creates a new upload handler instance
func NewUploadHandler(store storage.Store, sessions SessionManager) UploadHandler {
	return &UploadHandlerImpl{
		store:    store,
		sessions: sessions,
	}
}

// HandleSelectFile accepts a multipart "file" part and makes it the session's artifact.
// Rejected types never reach storage.
func (h *UploadHandlerImpl) HandleSelectFile(c echo.Context) error {
	state, err := lookupSession(c, h.sessions)
	if err != nil {
		return err
	}
	ctrl := state.Controller

	if ctrl.IsProcessing() {
		return fromControllerError(controller.ErrBusy, state.ID)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return NewBadRequestError("no file provided", err)
	}

	src, err := file.Open()
	if err != nil {
		return NewInternalError("failed to open uploaded file", err)
	}
	defer src.Close()

	name := filepath.Base(file.Filename)
	mimeType := detectMimeType(file, src)

	if !controller.IsAllowedType(mimeType) {
		// records the validation message in the widget state
		err := ctrl.SelectFile(models.NewArtifact(name, mimeType, file.Size, nil))
		return fromControllerError(err, state.ID)
	}

	info, err := h.store.Save(name, mimeType, src)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return fromControllerError(err, state.ID)
		}
		return NewInternalError("failed to save file", err)
	}

	if err := ctrl.SelectFile(storage.Artifact(h.store, info)); err != nil {
		h.store.Delete(info.ID)
		return fromControllerError(err, state.ID)
	}

	logger.Info("file selected",
		"session", shortID(state.ID),
		"file", name,
		"type", mimeType,
		"size", info.Size)

	return c.JSON(http.StatusOK, state.Snapshot())
}

// HandleClearFile resets the session to idle
func (h *UploadHandlerImpl) HandleClearFile(c echo.Context) error {
	state, err := lookupSession(c, h.sessions)
	if err != nil {
		return err
	}
	if err := state.Controller.ClearFile(); err != nil {
		return fromControllerError(err, state.ID)
	}
	return c.JSON(http.StatusOK, state.Snapshot())
}

// HandleDrag records drag-hover over the drop target
func (h *UploadHandlerImpl) HandleDrag(c echo.Context) error {
	state, err := lookupSession(c, h.sessions)
	if err != nil {
		return err
	}

	var req dragRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	state.Controller.SetDragging(req.Dragging)
	return c.JSON(http.StatusOK, state.Snapshot())
}

// Request/Response types

type dragRequest struct {
	Dragging bool `json:"dragging"`
}

// Helper functions

// detectMimeType sniffs at most 512 bytes and rewinds the part
func detectMimeType(file *multipart.FileHeader, src multipart.File) string {
	head := make([]byte, 512)
	n, _ := io.ReadFull(src, head)
	src.Seek(0, io.SeekStart)
	return controller.DetectMimeType(file.Filename, file.Header.Get(echo.HeaderContentType), head[:n])
}

// shortID safely truncates an ID for logging
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
