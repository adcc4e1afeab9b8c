package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// ExtractionServer is a fake extraction endpoint that records submitted uploads.
type ExtractionServer struct {
	*httptest.Server

	mu        sync.Mutex
	filenames []string
}

// NewExtractionServer starts a server answering every request with status and body.
func NewExtractionServer(t *testing.T, status int, body string) *ExtractionServer {
	t.Helper()
	s := &ExtractionServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if file, header, err := r.FormFile("file"); err == nil {
			io.Copy(io.Discard, file)
			s.mu.Lock()
			s.filenames = append(s.filenames, header.Filename)
			s.mu.Unlock()
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(s.Close)
	return s
}

// Filenames returns the uploaded file names in arrival order.
func (s *ExtractionServer) Filenames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.filenames...)
}
