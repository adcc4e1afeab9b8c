package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ocrbot/backend/internal/controller"
	"github.com/ocrbot/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(t *testing.T) (Model, *controller.MemoryClipboard) {
	t.Helper()
	clip := &controller.MemoryClipboard{}
	ctrl, err := controller.New(controller.Options{
		Mode:      models.ModeDemo,
		Clipboard: clip,
		DemoDelay: 10 * time.Millisecond,
	})
	require.NoError(t, err)
	t.Cleanup(ctrl.Close)
	return NewModel(ctrl), clip
}

func typeText(m Model, text string) Model {
	for _, r := range text {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(Model)
	}
	return m
}

// press sends a key and runs the resulting command, feeding its message back
func press(t *testing.T, m Model, key tea.KeyMsg) Model {
	t.Helper()
	next, cmd := m.Update(key)
	m = next.(Model)
	if cmd != nil {
		if msg := cmd(); msg != nil {
			next, _ = m.Update(msg)
			m = next.(Model)
		}
	}
	return m
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyE     = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'e'}}
	keyC     = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}}
	keyX     = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}}
)

func TestModel_SelectExtractCopyClear(t *testing.T) {
	m, clip := newTestModel(t)
	path := writeFile(t, "scan.pdf", []byte("%PDF-1.7"))

	m = typeText(m, path)
	assert.Equal(t, path, m.Input)

	m = press(t, m, keyEnter)
	require.NotNil(t, m.State.File)
	assert.Equal(t, "scan.pdf", m.State.File.Name)
	assert.Empty(t, m.Input)
	assert.Contains(t, m.View(), "scan.pdf")

	m = press(t, m, keyE)
	assert.Equal(t, models.StatusSuccess, m.State.Status)
	assert.Equal(t, controller.DemoPlaceholder, m.State.ExtractedText)
	assert.Contains(t, m.View(), TextResult)

	m = press(t, m, keyC)
	assert.True(t, m.State.Copied)
	assert.Equal(t, controller.DemoPlaceholder, clip.Text())
	assert.Contains(t, m.View(), TextCopied)

	m = press(t, m, keyX)
	assert.Nil(t, m.State.File)
	assert.Equal(t, models.StatusIdle, m.State.Status)
	assert.Contains(t, m.View(), TextPathPrompt)
}

func TestModel_RejectsInvalidType(t *testing.T) {
	m, _ := newTestModel(t)
	path := writeFile(t, "notes.txt", []byte("plain text"))

	m = press(t, typeText(m, path), keyEnter)

	assert.Nil(t, m.State.File)
	assert.Equal(t, controller.MsgInvalidFileType, m.State.Error)
	assert.NoError(t, m.Err)
	assert.Equal(t, path, m.Input, "typed path is kept for correction")
	assert.Contains(t, m.View(), controller.MsgInvalidFileType)
}

func TestModel_MissingPath(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, typeText(m, "/does/not/exist.pdf"), keyEnter)

	assert.Nil(t, m.State.File)
	require.Error(t, m.Err)
	assert.Contains(t, m.View(), "exist.pdf")
}

func TestModel_EditingPath(t *testing.T) {
	m, _ := newTestModel(t)

	m = typeText(m, "abc")
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	m = next.(Model)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	m = next.(Model)

	assert.Equal(t, "ab ", m.Input)

	// blank input does nothing
	next, cmd := Model{Controller: m.Controller}.Update(keyEnter)
	assert.Nil(t, cmd)
	assert.Empty(t, next.(Model).Input)
}

func TestModel_CopyWithoutTextIsIgnored(t *testing.T) {
	m, clip := newTestModel(t)
	path := writeFile(t, "a.png", []byte("png"))
	m = press(t, typeText(m, path), keyEnter)

	_, cmd := m.Update(keyC)
	assert.Nil(t, cmd)
	assert.Equal(t, 0, clip.Writes())
}

func TestModel_StateChangesResubscribe(t *testing.T) {
	m, _ := newTestModel(t)
	cmd := m.Init()
	require.NotNil(t, cmd)

	m.Controller.SetDragging(true)
	msg := cmd()
	require.Equal(t, StateChangedMsg{}, msg)

	next, cmd := m.Update(msg)
	m = next.(Model)
	assert.True(t, m.State.Dragging)
	assert.NotNil(t, cmd)

	m.Controller.Close()
	next, cmd = m.Update(cmd())
	assert.True(t, next.(Model).closed)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModel_LogsAreBounded(t *testing.T) {
	m, _ := newTestModel(t)
	for i := 0; i < maxLogs+3; i++ {
		m = m.AddLog("line")
	}
	assert.Len(t, m.Logs, maxLogs)
	assert.True(t, strings.HasSuffix(m.Logs[0], "line"))
}
