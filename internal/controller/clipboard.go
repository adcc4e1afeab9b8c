package controller

import (
	"errors"
	"sync"

	"github.com/atotto/clipboard"
)

// Clipboard receives text the user asked to copy.
type Clipboard interface {
	WriteText(text string) error
}

// MemoryClipboard keeps the last copied text. Browser sessions use it because the
// page itself writes to the system clipboard.
type MemoryClipboard struct {
	mu   sync.Mutex
	text string
	n    int
}

func (m *MemoryClipboard) WriteText(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	m.n++
	return nil
}

// Text returns the last copied text.
func (m *MemoryClipboard) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text
}

// Writes returns how many times WriteText was called.
func (m *MemoryClipboard) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.n
}

// SystemClipboard writes to the host clipboard. Used by the terminal front ends.
type SystemClipboard struct{}

func (SystemClipboard) WriteText(text string) error {
	if clipboard.Unsupported {
		return errors.New("no clipboard utility available")
	}
	return clipboard.WriteAll(text)
}
