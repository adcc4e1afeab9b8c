package web

import (
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasEmbeddedFiles(t *testing.T) {
	assert.True(t, HasEmbeddedFiles())
}

func TestRegisterStaticRoutes(t *testing.T) {
	e := echo.New()
	require.NoError(t, RegisterStaticRoutes(e))

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantBody   string
	}{
		{"root serves widget", "/", http.StatusOK, "Telegram Bot OCR"},
		{"unknown path falls back to widget", "/some/page", http.StatusOK, "Telegram Bot OCR"},
		{"api paths are not swallowed", "/api/missing", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
				assert.Contains(t, rec.Body.String(), `dir="rtl"`)
			}
		})
	}
}

func TestIndexPage_SinglePingTimer(t *testing.T) {
	static, err := GetFileSystem()
	require.NoError(t, err)
	data, err := fs.ReadFile(static, "index.html")
	require.NoError(t, err)
	page := string(data)

	// reconnects reuse one keep-alive timer
	require.Contains(t, page, "clearInterval(pingTimer)")
	assert.Equal(t, 1, strings.Count(page, "pingTimer = setInterval("))
	assert.Less(t, strings.Index(page, "clearInterval(pingTimer)"), strings.Index(page, "pingTimer = setInterval("))
	assert.Equal(t, 2, strings.Count(page, "setInterval("), "only the poll and ping timers")
}
