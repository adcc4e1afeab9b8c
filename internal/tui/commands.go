package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ocrbot/backend/internal/controller"
	"github.com/ocrbot/backend/internal/storage"
)

// waitForChange blocks until the controller signals a change or closes
func waitForChange(changes <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		_, ok := <-changes
		return StateChangedMsg{Closed: !ok}
	}
}

// selectPath loads a local file and offers it to the controller
func selectPath(ctrl *controller.Controller, path string) tea.Cmd {
	return func() tea.Msg {
		artifact, err := storage.FileArtifact(path)
		if err != nil {
			return FileSelectedMsg{Path: path, Err: err}
		}
		return FileSelectedMsg{Path: path, Err: ctrl.SelectFile(artifact)}
	}
}

// extractText runs one attempt to completion
func extractText(ctrl *controller.Controller) tea.Cmd {
	return func() tea.Msg {
		return ExtractDoneMsg{Err: ctrl.ExtractText(context.Background())}
	}
}

// copyText copies the current result
func copyText(ctrl *controller.Controller) tea.Cmd {
	return func() tea.Msg {
		return CopyDoneMsg{Err: ctrl.CopyToClipboard()}
	}
}

// clearFile drops the selection
func clearFile(ctrl *controller.Controller) tea.Cmd {
	return func() tea.Msg {
		return ClearedMsg{Err: ctrl.ClearFile()}
	}
}
