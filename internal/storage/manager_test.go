// manager_test.go - Tests for artifact storage
package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func createTestStore(t *testing.T, maxSize int64) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir(), maxSize)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store
}

func TestNewLocalStore(t *testing.T) {
	t.Run("creates upload directory", func(t *testing.T) {
		uploadDir := filepath.Join(t.TempDir(), "uploads")

		if _, err := NewLocalStore(uploadDir, 0); err != nil {
			t.Fatalf("Failed to create store: %v", err)
		}

		if _, err := os.Stat(uploadDir); os.IsNotExist(err) {
			t.Error("Expected upload directory to be created")
		}
	})
}

func TestLocalStore_Save(t *testing.T) {
	t.Run("saves artifact from reader", func(t *testing.T) {
		store := createTestStore(t, 0)

		content := "%PDF-1.7 fake"
		info, err := store.Save("scan.pdf", "application/pdf", strings.NewReader(content))
		if err != nil {
			t.Fatalf("Failed to save file: %v", err)
		}

		if info.ID == "" {
			t.Error("Expected ID to be set")
		}
		if info.Name != "scan.pdf" {
			t.Errorf("Expected name 'scan.pdf', got %v", info.Name)
		}
		if info.MimeType != "application/pdf" {
			t.Errorf("Expected mime type application/pdf, got %v", info.MimeType)
		}
		if info.Size != int64(len(content)) {
			t.Errorf("Expected size %d, got %d", len(content), info.Size)
		}

		data, err := os.ReadFile(filepath.Join(store.uploadDir, info.ID))
		if err != nil {
			t.Fatalf("Failed to read saved file: %v", err)
		}
		if string(data) != content {
			t.Errorf("Expected content '%s', got '%s'", content, string(data))
		}
	})

	t.Run("rejects oversized artifact", func(t *testing.T) {
		store := createTestStore(t, 4)

		_, err := store.Save("big.png", "image/png", strings.NewReader("12345"))
		if !errors.Is(err, ErrTooLarge) {
			t.Fatalf("Expected ErrTooLarge, got %v", err)
		}

		entries, _ := os.ReadDir(store.uploadDir)
		if len(entries) != 0 {
			t.Errorf("Expected partial file to be removed, found %d entries", len(entries))
		}
	})

	t.Run("accepts artifact at the limit", func(t *testing.T) {
		store := createTestStore(t, 4)

		if _, err := store.Save("ok.png", "image/png", strings.NewReader("1234")); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	})
}

func TestLocalStore_Open(t *testing.T) {
	store := createTestStore(t, 0)
	info, err := store.Save("a.png", "image/png", strings.NewReader("pixels"))
	if err != nil {
		t.Fatalf("Failed to save file: %v", err)
	}

	rc, err := store.Open(info.ID)
	if err != nil {
		t.Fatalf("Failed to open: %v", err)
	}
	defer rc.Close()

	data, _ := io.ReadAll(rc)
	if string(data) != "pixels" {
		t.Errorf("Expected 'pixels', got %q", data)
	}

	if _, err := store.Open("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestLocalStore_List(t *testing.T) {
	store := createTestStore(t, 0)

	for _, name := range []string{"a.png", "b.png", "c.png"} {
		if _, err := store.Save(name, "image/png", strings.NewReader(name)); err != nil {
			t.Fatalf("Failed to save %s: %v", name, err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	list, err := store.List(2)
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("Expected 2 files, got %d", len(list))
	}
	if list[0].Name != "c.png" || list[1].Name != "b.png" {
		t.Errorf("Expected newest first, got %s, %s", list[0].Name, list[1].Name)
	}

	all, _ := store.List(0)
	if len(all) != 3 {
		t.Errorf("Expected 3 files without limit, got %d", len(all))
	}
}

func TestLocalStore_Delete(t *testing.T) {
	store := createTestStore(t, 0)
	info, _ := store.Save("x.pdf", "application/pdf", strings.NewReader("x"))

	if err := store.Delete(info.ID); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(store.uploadDir, info.ID)); !os.IsNotExist(err) {
		t.Error("Expected physical file to be removed")
	}
	if err := store.Delete(info.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestArtifact_StreamsStoredBytes(t *testing.T) {
	store := createTestStore(t, 0)
	info, _ := store.Save("doc.pdf", "application/pdf", strings.NewReader("body"))

	a := Artifact(store, info)
	if a.StorageID != info.ID || a.Name != "doc.pdf" || a.Size != 4 {
		t.Fatalf("Unexpected artifact: %+v", a)
	}

	for i := 0; i < 2; i++ {
		rc, err := a.Open()
		if err != nil {
			t.Fatalf("Open #%d failed: %v", i, err)
		}
		data, _ := io.ReadAll(rc)
		rc.Close()
		if string(data) != "body" {
			t.Errorf("Open #%d: expected 'body', got %q", i, data)
		}
	}
}

func TestFileArtifact(t *testing.T) {
	dir := t.TempDir()

	t.Run("type from extension", func(t *testing.T) {
		path := filepath.Join(dir, "scan.pdf")
		if err := os.WriteFile(path, []byte("%PDF-1.4"), 0644); err != nil {
			t.Fatal(err)
		}

		a, err := FileArtifact(path)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if a.Name != "scan.pdf" || a.MimeType != "application/pdf" || a.Size != 8 {
			t.Errorf("Unexpected artifact: %+v", a)
		}

		rc, err := a.Open()
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		defer rc.Close()
		data, _ := io.ReadAll(rc)
		if string(data) != "%PDF-1.4" {
			t.Errorf("Expected file content, got %q", data)
		}
	})

	t.Run("type from content", func(t *testing.T) {
		path := filepath.Join(dir, "photo")
		if err := os.WriteFile(path, []byte("\x89PNG\r\n\x1a\n0000"), 0644); err != nil {
			t.Fatal(err)
		}

		a, err := FileArtifact(path)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if a.MimeType != "image/png" {
			t.Errorf("Expected image/png, got %s", a.MimeType)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := FileArtifact(filepath.Join(dir, "nope.pdf")); err == nil {
			t.Error("Expected error for missing file")
		}
	})

	t.Run("directory", func(t *testing.T) {
		if _, err := FileArtifact(dir); err == nil {
			t.Error("Expected error for directory")
		}
	})
}
