// Package extractor submits artifacts to the external text extraction service.
package extractor

import (
	"context"
	"errors"
	"fmt"

	"github.com/ocrbot/backend/internal/models"
)

// Extractor performs text extraction for a single artifact.
type Extractor interface {
	Submit(ctx context.Context, artifact *models.Artifact) (string, error)
}

// Func adapts a plain function to the Extractor interface.
type Func func(ctx context.Context, artifact *models.Artifact) (string, error)

// Submit calls f.
func (f Func) Submit(ctx context.Context, artifact *models.Artifact) (string, error) {
	return f(ctx, artifact)
}

// ErrorKind classifies an extraction failure.
type ErrorKind string

const (
	KindTransport ErrorKind = "transport"
	KindStatus    ErrorKind = "status"
	KindDecode    ErrorKind = "decode"
	KindArtifact  ErrorKind = "artifact"
)

// ExtractionError describes why a submission failed.
type ExtractionError struct {
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *ExtractionError) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("extraction %s error: server returned %d: %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("extraction %s error: %v", e.Kind, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// ErrMissingText is returned when a 2xx response carries no text field.
var ErrMissingText = errors.New("response has no text field")
