package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/ocrbot/backend/internal/logger"
	"github.com/ocrbot/backend/internal/models"
)

// FormField is the multipart part name the extraction service reads.
const FormField = "file"

// maxErrorBody bounds how much of a failed response is kept for diagnostics.
const maxErrorBody = 512

// HTTPClient posts artifacts to a configured endpoint as multipart/form-data.
type HTTPClient struct {
	endpoint string
	client   *http.Client
}

// NewHTTPClient creates a client for endpoint. A zero timeout disables the client deadline.
func NewHTTPClient(endpoint string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		endpoint: endpoint,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Endpoint returns the configured URL.
func (c *HTTPClient) Endpoint() string {
	return c.endpoint
}

type extractResponse struct {
	Text *string `json:"text"`
}

// Submit streams the artifact to the endpoint and returns the response's text field.
func (c *HTTPClient) Submit(ctx context.Context, artifact *models.Artifact) (string, error) {
	src, err := artifact.Open()
	if err != nil {
		return "", &ExtractionError{Kind: KindArtifact, Err: fmt.Errorf("opening artifact: %w", err)}
	}

	body, contentType, length, err := multipartBody(src, artifact.Name, artifact.Size)
	if err != nil {
		src.Close()
		return "", &ExtractionError{Kind: KindTransport, Err: fmt.Errorf("building form: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		body.Close()
		return "", &ExtractionError{Kind: KindTransport, Err: fmt.Errorf("building request: %w", err)}
	}
	req.ContentLength = length
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return "", &ExtractionError{Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	logger.Debug("extraction response",
		"file", artifact.Name,
		"status", resp.StatusCode,
		"elapsed", time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(snippet))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return "", &ExtractionError{
			Kind:       KindStatus,
			StatusCode: resp.StatusCode,
			Err:        errors.New(msg),
		}
	}

	var out extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &ExtractionError{Kind: KindDecode, Err: fmt.Errorf("decoding response: %w", err)}
	}
	if out.Text == nil {
		return "", &ExtractionError{Kind: KindDecode, Err: ErrMissingText}
	}

	return *out.Text, nil
}

// multipartBody frames src as a single-part form without buffering it in memory.
// With a known size the returned length is exact, so the request is not sent chunked;
// a negative size yields -1.
func multipartBody(src io.ReadCloser, filename string, size int64) (io.ReadCloser, string, int64, error) {
	var framing bytes.Buffer
	mw := multipart.NewWriter(&framing)
	if _, err := mw.CreateFormFile(FormField, filename); err != nil {
		return nil, "", 0, err
	}
	headLen := framing.Len()
	if err := mw.Close(); err != nil {
		return nil, "", 0, err
	}

	raw := framing.Bytes()
	head, tail := raw[:headLen], raw[headLen:]

	var content io.Reader = src
	length := int64(-1)
	if size >= 0 {
		content = io.LimitReader(src, size)
		length = int64(len(head)) + size + int64(len(tail))
	}

	body := &formBody{
		Reader: io.MultiReader(bytes.NewReader(head), content, bytes.NewReader(tail)),
		src:    src,
	}
	return body, mw.FormDataContentType(), length, nil
}

// formBody closes the artifact once the transport is done with the request.
type formBody struct {
	io.Reader
	src io.Closer
}

func (b *formBody) Close() error {
	return b.src.Close()
}
