// Package controller implements the upload/status state machine behind the widget.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ocrbot/backend/internal/extractor"
	"github.com/ocrbot/backend/internal/logger"
	"github.com/ocrbot/backend/internal/models"
)

var (
	ErrInvalidFileType = errors.New("invalid file type")
	ErrBusy            = errors.New("extraction in progress")
	ErrNoArtifact      = errors.New("no file selected")
	ErrClosed          = errors.New("controller closed")
	ErrNoExtractor     = errors.New("live mode requires an extractor")
)

// Options configures a Controller.
type Options struct {
	Mode      models.Mode
	Extractor extractor.Extractor
	Clipboard Clipboard

	// Zero values fall back to DefaultDemoDelay and DefaultCopyResetDelay.
	DemoDelay      time.Duration
	CopyResetDelay time.Duration

	// OnRelease is called, outside the lock, for every artifact the controller drops.
	OnRelease func(*models.Artifact)
}

// Controller owns the selected artifact, the status of the current attempt, and its result.
// It is safe for concurrent use; all transitions are serialized.
type Controller struct {
	mu sync.Mutex

	mode           models.Mode
	extractor      extractor.Extractor
	clipboard      Clipboard
	demoDelay      time.Duration
	copyResetDelay time.Duration
	onRelease      func(*models.Artifact)

	artifact *models.Artifact
	status   models.Status
	text     string
	errMsg   string
	copied   bool
	dragging bool

	// attempt invalidates completions that belong to a superseded selection or request.
	attempt uint64
	copyGen uint64

	subs   map[chan struct{}]struct{}
	tasks  *taskGroup
	closed bool
}

// New creates an idle controller.
func New(opts Options) (*Controller, error) {
	if opts.Mode == "" {
		opts.Mode = models.ModeDemo
	}
	if opts.Mode == models.ModeLive && opts.Extractor == nil {
		return nil, ErrNoExtractor
	}
	if opts.Clipboard == nil {
		opts.Clipboard = &MemoryClipboard{}
	}
	if opts.DemoDelay <= 0 {
		opts.DemoDelay = DefaultDemoDelay
	}
	if opts.CopyResetDelay <= 0 {
		opts.CopyResetDelay = DefaultCopyResetDelay
	}

	return &Controller{
		mode:           opts.Mode,
		extractor:      opts.Extractor,
		clipboard:      opts.Clipboard,
		demoDelay:      opts.DemoDelay,
		copyResetDelay: opts.CopyResetDelay,
		onRelease:      opts.OnRelease,
		status:         models.StatusIdle,
		subs:           make(map[chan struct{}]struct{}),
		tasks:          newTaskGroup(),
	}, nil
}

// Mode returns the mode chosen at construction.
func (c *Controller) Mode() models.Mode {
	return c.mode
}

// SelectFile validates and stores a candidate, ending any drag. A nil candidate is ignored.
func (c *Controller) SelectFile(candidate *models.Artifact) error {
	if candidate == nil {
		return nil
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.status.InFlight() {
		c.mu.Unlock()
		return ErrBusy
	}

	previous := c.artifact
	c.dragging = false
	var err error
	if IsAllowedType(candidate.MimeType) {
		c.artifact = candidate
		c.status = models.StatusIdle
		c.errMsg = ""
		c.text = ""
	} else {
		c.artifact = nil
		c.errMsg = MsgInvalidFileType
		err = fmt.Errorf("%w: %q", ErrInvalidFileType, candidate.MimeType)
	}
	c.attempt++
	c.notifyLocked()
	c.mu.Unlock()

	c.release(previous)
	if err != nil {
		c.release(candidate)
	}
	return err
}

// ClearFile resets the controller to its idle defaults.
func (c *Controller) ClearFile() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.status.InFlight() {
		c.mu.Unlock()
		return ErrBusy
	}

	previous := c.artifact
	c.artifact = nil
	c.status = models.StatusIdle
	c.text = ""
	c.errMsg = ""
	c.attempt++
	c.notifyLocked()
	c.mu.Unlock()

	c.release(previous)
	return nil
}

// ExtractText submits the selected artifact and blocks until the attempt settles.
// Without a selection it changes nothing and returns ErrNoArtifact.
func (c *Controller) ExtractText(ctx context.Context) error {
	attempt, artifact, err := c.begin()
	if err != nil {
		return err
	}
	return c.run(ctx, attempt, artifact)
}

// StartExtractText performs the same transition as ExtractText but runs the request
// in the background. Rejections are reported synchronously; the channel yields the
// attempt's result once it settles.
func (c *Controller) StartExtractText(ctx context.Context) (<-chan error, error) {
	attempt, artifact, err := c.begin()
	if err != nil {
		return nil, err
	}

	done := make(chan error, 1)
	go func() {
		done <- c.run(ctx, attempt, artifact)
	}()
	return done, nil
}

func (c *Controller) begin() (uint64, *models.Artifact, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, nil, ErrClosed
	}
	if c.artifact == nil {
		return 0, nil, ErrNoArtifact
	}
	if c.status.InFlight() {
		return 0, nil, ErrBusy
	}

	c.status = models.StatusUploading
	c.errMsg = ""
	c.text = ""
	c.attempt++
	c.notifyLocked()
	return c.attempt, c.artifact, nil
}

func (c *Controller) run(ctx context.Context, attempt uint64, artifact *models.Artifact) error {
	ctx, cancel := c.tasks.scope(ctx)
	defer cancel()

	if c.mode == models.ModeDemo {
		return c.runDemo(ctx, attempt, artifact)
	}
	return c.runLive(ctx, attempt, artifact)
}

func (c *Controller) runDemo(ctx context.Context, attempt uint64, artifact *models.Artifact) error {
	logger.Warn("extraction endpoint not configured, simulating result", "file", artifact.Name)

	c.update(attempt, func() {
		c.errMsg = MsgConfigMissing
		c.status = models.StatusError
	})

	if err := sleep(ctx, c.demoDelay); err != nil {
		return err
	}

	c.update(attempt, func() {
		c.text = DemoPlaceholder
		c.status = models.StatusSuccess
	})
	return nil
}

func (c *Controller) runLive(ctx context.Context, attempt uint64, artifact *models.Artifact) error {
	c.update(attempt, func() {
		c.status = models.StatusProcessing
	})

	start := time.Now()
	text, err := c.extractor.Submit(ctx, artifact)
	if err != nil {
		logger.Error("extraction failed", "file", artifact.Name, "error", err)
		c.update(attempt, func() {
			c.errMsg = MsgExtractFailed
			c.status = models.StatusError
			c.text = ErrorPlaceholder
		})
		return fmt.Errorf("extracting %s: %w", artifact.Name, err)
	}

	logger.Info("extraction complete",
		"file", artifact.Name,
		"chars", len([]rune(text)),
		"elapsed", time.Since(start).Round(time.Millisecond))

	c.update(attempt, func() {
		c.text = text
		c.status = models.StatusSuccess
	})
	return nil
}

// CopyToClipboard writes the extracted text and raises the copy acknowledgement
// for CopyResetDelay. It does nothing when there is no text.
func (c *Controller) CopyToClipboard() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	text := c.text
	c.mu.Unlock()

	if text == "" {
		return nil
	}

	if err := c.clipboard.WriteText(text); err != nil {
		return fmt.Errorf("writing clipboard: %w", err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	// the result changed during the write; there is nothing to acknowledge
	if c.text != text {
		c.mu.Unlock()
		return nil
	}
	c.copied = true
	c.copyGen++
	gen := c.copyGen
	c.notifyLocked()
	// Scheduled under the lock so Close cannot stop the group in between.
	c.tasks.after(c.copyResetDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed || c.copyGen != gen {
			return
		}
		c.copied = false
		c.notifyLocked()
	})
	c.mu.Unlock()
	return nil
}

// SetDragging records whether a drag is hovering the drop target.
func (c *Controller) SetDragging(dragging bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.dragging == dragging {
		return
	}
	c.dragging = dragging
	c.notifyLocked()
}

// IsProcessing reports whether a request is in flight.
func (c *Controller) IsProcessing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status.InFlight()
}

// Status returns the current status.
func (c *Controller) Status() models.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Artifact returns the selected artifact or nil.
func (c *Controller) Artifact() *models.Artifact {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.artifact
}

// Snapshot returns a consistent copy of the displayable state.
func (c *Controller) Snapshot() models.WidgetState {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := models.WidgetState{
		Mode:          c.mode,
		Status:        c.status,
		ExtractedText: c.text,
		Error:         c.errMsg,
		Copied:        c.copied,
		Dragging:      c.dragging,
		IsProcessing:  c.status.InFlight(),
		ResultVisible: c.status == models.StatusSuccess || (c.status == models.StatusError && c.text != ""),
		ActionLabel:   actionLabel(c.status),
	}
	if c.artifact != nil {
		state.File = &models.FileView{
			Name:     c.artifact.Name,
			MimeType: c.artifact.MimeType,
			Size:     c.artifact.Size,
		}
	}
	return state
}

func actionLabel(s models.Status) string {
	switch s {
	case models.StatusUploading:
		return LabelUploading
	case models.StatusProcessing:
		return LabelProcessing
	default:
		return LabelExtract
	}
}

// Subscribe returns a channel that receives a signal after every state change.
// Signals coalesce; read Snapshot after each one. The returned func unsubscribes.
func (c *Controller) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	c.subs[ch] = struct{}{}
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if _, ok := c.subs[ch]; ok {
				delete(c.subs, ch)
				close(ch)
			}
		})
	}
}

// Close cancels pending timers and any in-flight request. No state changes after Close.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	previous := c.artifact
	c.artifact = nil
	for ch := range c.subs {
		close(ch)
	}
	c.subs = nil
	c.mu.Unlock()

	c.tasks.stop()
	c.release(previous)
}

// update applies fn if attempt is still current.
func (c *Controller) update(attempt uint64, fn func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.attempt != attempt {
		return false
	}
	fn()
	c.notifyLocked()
	return true
}

func (c *Controller) notifyLocked() {
	for ch := range c.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (c *Controller) release(a *models.Artifact) {
	if a == nil || c.onRelease == nil {
		return
	}
	c.onRelease(a)
}
