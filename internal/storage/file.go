package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ocrbot/backend/internal/controller"
	"github.com/ocrbot/backend/internal/models"
)

// FileArtifact describes a local file as an artifact without copying it.
// The type comes from the extension, falling back to the file's leading bytes.
func FileArtifact(path string) (*models.Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if stat.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	head := make([]byte, 512)
	n, _ := io.ReadFull(f, head)
	mimeType := controller.DetectMimeType(path, "", head[:n])

	return models.NewArtifact(filepath.Base(path), mimeType, stat.Size(), func() (io.ReadCloser, error) {
		return os.Open(path)
	}), nil
}
