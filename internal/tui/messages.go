package tui

// Messages for the tea program

// StateChangedMsg is sent when the controller reports a change
type StateChangedMsg struct {
	Closed bool
}

// FileSelectedMsg is sent once a typed path has been handed to the controller
type FileSelectedMsg struct {
	Path string
	Err  error
}

// ExtractDoneMsg is sent when an extraction attempt settles
type ExtractDoneMsg struct {
	Err error
}

// CopyDoneMsg is sent after a copy request
type CopyDoneMsg struct {
	Err error
}

// ClearedMsg is sent after the selection is cleared
type ClearedMsg struct {
	Err error
}
