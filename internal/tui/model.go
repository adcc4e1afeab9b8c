package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ocrbot/backend/internal/controller"
	"github.com/ocrbot/backend/internal/models"
)

// maxLogs bounds the activity pane
const maxLogs = 6

// Model is the terminal front end for a single controller
type Model struct {
	Controller *controller.Controller

	// Synced from the controller after every change
	State models.WidgetState

	// Path being typed while no file is selected
	Input string

	// Local failures that never reach the controller (unreadable path, clipboard)
	Err error

	Logs    []string
	changes <-chan struct{}
	closed  bool
}

// NewModel creates a model bound to ctrl. The model subscribes immediately so no
// change between construction and Init is missed.
func NewModel(ctrl *controller.Controller) Model {
	changes, _ := ctrl.Subscribe()
	return Model{
		Controller: ctrl,
		State:      ctrl.Snapshot(),
		Logs:       make([]string, 0, maxLogs),
		changes:    changes,
	}
}

// Init implements tea.Model interface
func (m Model) Init() tea.Cmd {
	return waitForChange(m.changes)
}

// AddLog appends a timestamped line to the activity pane
func (m Model) AddLog(line string) Model {
	entry := time.Now().Format("15:04:05") + "  " + line
	logs := append(append([]string(nil), m.Logs...), entry)
	if len(logs) > maxLogs {
		logs = logs[len(logs)-maxLogs:]
	}
	m.Logs = logs
	return m
}

func (m Model) hasFile() bool {
	return m.State.File != nil
}
