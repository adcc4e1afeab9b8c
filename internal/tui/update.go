package tui

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ocrbot/backend/internal/controller"
)

// Update implements tea.Model interface
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case StateChangedMsg:
		return m.handleStateChanged(msg)
	case FileSelectedMsg:
		return m.handleFileSelected(msg)
	case ExtractDoneMsg:
		return m.handleExtractDone(msg)
	case CopyDoneMsg:
		return m.handleCopyDone(msg)
	case ClearedMsg:
		return m.handleCleared(msg)
	}
	return m, nil
}

// handleKeyPress processes keyboard input. Without a file, keys edit the path.
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	if !m.hasFile() {
		switch msg.Type {
		case tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			path := strings.TrimSpace(m.Input)
			if path == "" {
				return m, nil
			}
			m.Err = nil
			return m, selectPath(m.Controller, path)
		case tea.KeyBackspace:
			if r := []rune(m.Input); len(r) > 0 {
				m.Input = string(r[:len(r)-1])
			}
		case tea.KeySpace:
			m.Input += " "
		case tea.KeyRunes:
			m.Input += string(msg.Runes)
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "e", "enter":
		if m.State.IsProcessing {
			return m, nil
		}
		m.Err = nil
		m = m.AddLog("Extracting " + m.State.File.Name)
		return m, extractText(m.Controller)
	case "c":
		if m.State.ExtractedText == "" {
			return m, nil
		}
		return m, copyText(m.Controller)
	case "x":
		if m.State.IsProcessing {
			return m, nil
		}
		return m, clearFile(m.Controller)
	}
	return m, nil
}

// handleStateChanged resyncs from the controller and waits for the next change
func (m Model) handleStateChanged(msg StateChangedMsg) (tea.Model, tea.Cmd) {
	if msg.Closed {
		m.closed = true
		return m, tea.Quit
	}
	m.State = m.Controller.Snapshot()
	return m, waitForChange(m.changes)
}

func (m Model) handleFileSelected(msg FileSelectedMsg) (tea.Model, tea.Cmd) {
	m.State = m.Controller.Snapshot()
	if msg.Err != nil {
		// the controller already shows its own validation message
		if !errors.Is(msg.Err, controller.ErrInvalidFileType) {
			m.Err = msg.Err
		}
		m = m.AddLog(fmt.Sprintf("Rejected %s", msg.Path))
		return m, nil
	}
	m.Input = ""
	m = m.AddLog(fmt.Sprintf("Selected %s (%s)", m.State.File.Name, m.State.File.MimeType))
	return m, nil
}

func (m Model) handleExtractDone(msg ExtractDoneMsg) (tea.Model, tea.Cmd) {
	m.State = m.Controller.Snapshot()
	switch {
	case msg.Err == nil:
		m = m.AddLog(fmt.Sprintf("Extracted %d characters", len([]rune(m.State.ExtractedText))))
	case errors.Is(msg.Err, controller.ErrBusy), errors.Is(msg.Err, controller.ErrNoArtifact):
		m.Err = msg.Err
	default:
		m = m.AddLog("Extraction failed")
	}
	return m, nil
}

func (m Model) handleCopyDone(msg CopyDoneMsg) (tea.Model, tea.Cmd) {
	m.State = m.Controller.Snapshot()
	if msg.Err != nil {
		m.Err = msg.Err
		return m, nil
	}
	m = m.AddLog("Copied to clipboard")
	return m, nil
}

func (m Model) handleCleared(msg ClearedMsg) (tea.Model, tea.Cmd) {
	m.State = m.Controller.Snapshot()
	if msg.Err != nil {
		m.Err = msg.Err
		return m, nil
	}
	m.Err = nil
	m = m.AddLog("Cleared selection")
	return m, nil
}
