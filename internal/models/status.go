package models

// Status represents the lifecycle of the current extraction attempt.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusUploading  Status = "uploading"
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusError      Status = "error"
)

// InFlight reports whether a request is outstanding for this status.
func (s Status) InFlight() bool {
	return s == StatusUploading || s == StatusProcessing
}

// Mode selects how extraction requests are served. It is decided once at startup.
type Mode string

const (
	ModeLive Mode = "live"
	ModeDemo Mode = "demo"
)
