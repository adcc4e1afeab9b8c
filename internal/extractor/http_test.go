package extractor

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ocrbot/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_Submit(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantText string
		wantKind ErrorKind
	}{
		{
			name:     "returns text field",
			status:   http.StatusOK,
			body:     `{"text":"ABC"}`,
			wantText: "ABC",
		},
		{
			name:     "empty text is still a result",
			status:   http.StatusOK,
			body:     `{"text":""}`,
			wantText: "",
		},
		{
			name:     "non-2xx status",
			status:   http.StatusInternalServerError,
			body:     `boom`,
			wantKind: KindStatus,
		},
		{
			name:     "malformed body",
			status:   http.StatusOK,
			body:     `not json`,
			wantKind: KindDecode,
		},
		{
			name:     "missing text field",
			status:   http.StatusOK,
			body:     `{"result":"x"}`,
			wantKind: KindDecode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotName, gotContent, gotAuth string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				file, header, err := r.FormFile(FormField)
				if assert.NoError(t, err) {
					data, _ := io.ReadAll(file)
					gotName = header.Filename
					gotContent = string(data)
				}
				gotAuth = r.Header.Get("Authorization")
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			c := NewHTTPClient(srv.URL, 5*time.Second)
			art := models.NewBytesArtifact("scan.pdf", "application/pdf", []byte("%PDF-1.4"))

			text, err := c.Submit(context.Background(), art)

			assert.Equal(t, "scan.pdf", gotName)
			assert.Equal(t, "%PDF-1.4", gotContent)
			assert.Empty(t, gotAuth)

			if tt.wantKind == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.wantText, text)
				return
			}

			var extErr *ExtractionError
			require.True(t, errors.As(err, &extErr), "expected ExtractionError, got %T", err)
			assert.Equal(t, tt.wantKind, extErr.Kind)
			if tt.wantKind == KindStatus {
				assert.Equal(t, tt.status, extErr.StatusCode)
				assert.Contains(t, extErr.Error(), "boom")
			}
		})
	}
}

func TestHTTPClient_Submit_ContentLength(t *testing.T) {
	tests := []struct {
		name        string
		artifact    *models.Artifact
		wantChunked bool
	}{
		{
			name:     "known size",
			artifact: models.NewBytesArtifact("scan.pdf", "application/pdf", []byte("%PDF-1.4 body")),
		},
		{
			name:     "empty file",
			artifact: models.NewBytesArtifact("empty.png", "image/png", nil),
		},
		{
			name: "unknown size",
			artifact: models.NewArtifact("scan.pdf", "application/pdf", -1, func() (io.ReadCloser, error) {
				return io.NopCloser(strings.NewReader("%PDF-1.4 body")), nil
			}),
			wantChunked: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotLength int64
			var gotBody []byte
			var gotEncoding []string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotLength = r.ContentLength
				gotEncoding = r.TransferEncoding
				gotBody, _ = io.ReadAll(r.Body)
				io.WriteString(w, `{"text":"ok"}`)
			}))
			defer srv.Close()

			text, err := NewHTTPClient(srv.URL, 5*time.Second).Submit(context.Background(), tt.artifact)
			require.NoError(t, err)
			assert.Equal(t, "ok", text)

			if tt.wantChunked {
				assert.Equal(t, int64(-1), gotLength)
				assert.Equal(t, []string{"chunked"}, gotEncoding)
				return
			}
			assert.Empty(t, gotEncoding)
			assert.Equal(t, int64(len(gotBody)), gotLength)
		})
	}
}

func TestHTTPClient_Submit_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewHTTPClient(url, time.Second)
	_, err := c.Submit(context.Background(), models.NewBytesArtifact("a.png", "image/png", []byte{1, 2, 3}))

	var extErr *ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, KindTransport, extErr.Kind)
}

func TestHTTPClient_Submit_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewHTTPClient(srv.URL, 0)
	_, err := c.Submit(ctx, models.NewBytesArtifact("a.png", "image/png", []byte{1}))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTTPClient_Submit_UnopenableArtifact(t *testing.T) {
	c := NewHTTPClient("http://127.0.0.1:1", time.Second)
	art := models.NewArtifact("x.pdf", "application/pdf", 0, func() (io.ReadCloser, error) {
		return nil, errors.New("gone")
	})

	_, err := c.Submit(context.Background(), art)

	var extErr *ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, KindArtifact, extErr.Kind)
}
