package controller

import (
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// User-visible messages. The placeholders are Persian because the service reads Persian text.
const (
	MsgInvalidFileType = "Invalid file type. Please upload a PDF, PNG, or JPG file."
	MsgConfigMissing   = "API URL is not configured. Please set OCR_API_URL in your .env file."
	MsgExtractFailed   = "Failed to extract text. Please try again."

	DemoPlaceholder  = "این یک متن نمونه است که از فایل استخراج شده است. لطفاً API خود را برای دریافت نتایج واقعی متصل کنید."
	ErrorPlaceholder = "خطا در پردازش فایل. این یک متن نمونه برای نمایش است."
)

// Action labels shown on the extract control.
const (
	LabelExtract    = "Extract Text"
	LabelUploading  = "Uploading..."
	LabelProcessing = "Processing..."
)

const (
	DefaultDemoDelay      = 2 * time.Second
	DefaultCopyResetDelay = 2000 * time.Millisecond
)

// AcceptedTypes is the picker filter offered to the user.
const AcceptedTypes = ".pdf,image/png,image/jpeg"

// IsAllowedType reports whether mimeType is a PDF or any image type.
func IsAllowedType(mimeType string) bool {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(mimeType))
	}
	return mediaType == "application/pdf" || strings.HasPrefix(mediaType, "image/")
}

// DetectMimeType prefers the declared type, then the file extension, then the leading bytes.
// A generic octet-stream declaration counts as undeclared.
func DetectMimeType(filename, declared string, head []byte) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); byExt != "" {
		return byExt
	}
	if len(head) == 0 {
		return "application/octet-stream"
	}
	return mimetype.Detect(head).String()
}
