package models

// WidgetState is an immutable view of the upload controller, as rendered by front ends.
type WidgetState struct {
	SessionID     string    `json:"sessionId,omitempty" msgpack:"sessionId,omitempty"`
	Mode          Mode      `json:"mode" msgpack:"mode"`
	File          *FileView `json:"file,omitempty" msgpack:"file,omitempty"`
	Status        Status    `json:"status" msgpack:"status"`
	ExtractedText string    `json:"extractedText" msgpack:"extractedText"`
	Error         string    `json:"error,omitempty" msgpack:"error,omitempty"`
	Copied        bool      `json:"copied" msgpack:"copied"`
	Dragging      bool      `json:"dragging" msgpack:"dragging"`
	IsProcessing  bool      `json:"isProcessing" msgpack:"isProcessing"`
	ResultVisible bool      `json:"resultVisible" msgpack:"resultVisible"`
	ActionLabel   string    `json:"actionLabel" msgpack:"actionLabel"`
}

// FileView is the display-safe part of an Artifact.
type FileView struct {
	Name     string `json:"name" msgpack:"name"`
	MimeType string `json:"mimeType" msgpack:"mimeType"`
	Size     int64  `json:"size" msgpack:"size"`
}
