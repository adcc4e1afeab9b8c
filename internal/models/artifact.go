package models

import (
	"bytes"
	"io"
)

// Opener returns a fresh reader over an artifact's bytes.
type Opener func() (io.ReadCloser, error)

// Artifact is a user-chosen file pending or submitted for extraction.
type Artifact struct {
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
	// StorageID is set when the bytes live in a storage.Store.
	StorageID string `json:"storageId,omitempty"`

	open Opener
}

// NewArtifact creates an artifact whose content is produced by open.
func NewArtifact(name, mimeType string, size int64, open Opener) *Artifact {
	return &Artifact{
		Name:     name,
		MimeType: mimeType,
		Size:     size,
		open:     open,
	}
}

// NewBytesArtifact wraps an in-memory buffer.
func NewBytesArtifact(name, mimeType string, data []byte) *Artifact {
	return NewArtifact(name, mimeType, int64(len(data)), func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	})
}

// Open returns the artifact content. Callers must close the reader.
func (a *Artifact) Open() (io.ReadCloser, error) {
	if a.open == nil {
		return nil, io.ErrUnexpectedEOF
	}
	return a.open()
}
