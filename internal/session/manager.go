package session

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ocrbot/backend/internal/controller"
	"github.com/ocrbot/backend/internal/logger"
	"github.com/ocrbot/backend/internal/models"
	"github.com/ocrbot/backend/internal/storage"
)

// DefaultMaxSessions limits concurrent widget sessions to bound memory and disk use
const DefaultMaxSessions = 100

// SessionMaxAge is how long an untouched session is kept before cleanup
const SessionMaxAge = 30 * time.Minute

// SessionKeepAliveWindow is how long to keep sessions that are actively being used
const SessionKeepAliveWindow = 5 * time.Minute

// ErrSessionLimit is returned when every slot is held by a session with a request in flight.
var ErrSessionLimit = errors.New("session limit reached")

// ErrNotFound is returned for unknown session IDs.
var ErrNotFound = errors.New("session not found")

// Manager handles active widget sessions, one controller per browser tab.
type Manager struct {
	sessions    map[string]*SessionState
	mu          sync.RWMutex
	store       storage.Store
	template    controller.Options
	maxSessions int
}

// SessionState holds a session's controller and bookkeeping.
type SessionState struct {
	ID           string
	Controller   *controller.Controller
	Clipboard    *controller.MemoryClipboard
	CreatedAt    time.Time
	LastAccessed time.Time // Last time the session was accessed (for keep-alive)
}

// Snapshot returns the controller state tagged with the session ID.
func (s *SessionState) Snapshot() models.WidgetState {
	state := s.Controller.Snapshot()
	state.SessionID = s.ID
	return state
}

// NewManager creates a session manager. Every session gets a controller built from
// template with its own clipboard and a release hook that deletes stored artifacts.
func NewManager(store storage.Store, template controller.Options, maxSessions int) *Manager {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	return &Manager{
		sessions:    make(map[string]*SessionState),
		store:       store,
		template:    template,
		maxSessions: maxSessions,
	}
}

// Mode returns the extraction mode shared by all sessions.
func (m *Manager) Mode() models.Mode {
	if m.template.Mode == "" {
		return models.ModeDemo
	}
	return m.template.Mode
}

// Create starts a new idle session. The slot is claimed under the same lock that
// checks the limit, so concurrent calls never exceed maxSessions.
func (m *Manager) Create() (*SessionState, error) {
	clip := &controller.MemoryClipboard{}
	opts := m.template
	opts.Clipboard = clip
	opts.OnRelease = m.releaseArtifact

	ctrl, err := controller.New(opts)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	state := &SessionState{
		ID:           uuid.New().String(),
		Controller:   ctrl,
		Clipboard:    clip,
		CreatedAt:    now,
		LastAccessed: now,
	}

	m.mu.Lock()
	victims, err := m.evictLocked()
	if err != nil {
		m.mu.Unlock()
		ctrl.Close()
		return nil, err
	}
	m.sessions[state.ID] = state
	m.mu.Unlock()

	for _, victim := range victims {
		victim.Controller.Close()
		logger.Info("evicted session to free a slot", "session", shortID(victim.ID))
	}

	logger.Debug("session created", "session", shortID(state.ID), "mode", opts.Mode)
	return state, nil
}

// Touch updates the last accessed time of a session and returns it.
func (m *Manager) Touch(id string) (*SessionState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	state.LastAccessed = time.Now()
	return state, true
}

// Delete closes a session, cancelling its timers and in-flight request.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	state, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	state.Controller.Close()
	logger.Debug("session closed", "session", shortID(id))
	return nil
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanupOldSessions removes sessions idle for longer than maxAge.
// Sessions with a request in flight or touched within the keep-alive window stay.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	keepAliveCutoff := time.Now().Add(-SessionKeepAliveWindow)

	var expired []*SessionState
	m.mu.Lock()
	for id, state := range m.sessions {
		if state.Controller.IsProcessing() {
			continue
		}
		if state.LastAccessed.After(keepAliveCutoff) || state.LastAccessed.After(cutoff) {
			continue
		}
		delete(m.sessions, id)
		expired = append(expired, state)
	}
	m.mu.Unlock()

	for _, state := range expired {
		state.Controller.Close()
		logger.Info("cleaned up aged session",
			"session", shortID(state.ID),
			"idle", time.Since(state.LastAccessed).Round(time.Second))
	}
	return len(expired)
}

// RunCleanup calls CleanupOldSessions every interval until ctx is done.
func (m *Manager) RunCleanup(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.CleanupOldSessions(maxAge)
		case <-ctx.Done():
			return
		}
	}
}

// CloseAll closes every session. Used on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	all := make([]*SessionState, 0, len(m.sessions))
	for _, state := range m.sessions {
		all = append(all, state)
	}
	m.sessions = make(map[string]*SessionState)
	m.mu.Unlock()

	for _, state := range all {
		state.Controller.Close()
	}
}

// evictLocked removes least recently used idle sessions until one slot is free.
// The caller holds m.mu and closes the returned sessions after unlocking.
func (m *Manager) evictLocked() ([]*SessionState, error) {
	if len(m.sessions) < m.maxSessions {
		return nil, nil
	}

	candidates := make([]*SessionState, 0, len(m.sessions))
	for _, state := range m.sessions {
		if !state.Controller.IsProcessing() {
			candidates = append(candidates, state)
		}
	}

	toFree := len(m.sessions) - m.maxSessions + 1
	if toFree > len(candidates) {
		return nil, ErrSessionLimit
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].LastAccessed.Before(candidates[j].LastAccessed)
	})

	victims := candidates[:toFree]
	for _, state := range victims {
		delete(m.sessions, state.ID)
	}
	return victims, nil
}

func (m *Manager) releaseArtifact(a *models.Artifact) {
	if a.StorageID == "" || m.store == nil {
		return
	}
	if err := m.store.Delete(a.StorageID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		logger.Warn("failed to delete stored artifact", "id", a.StorageID, "error", err)
	}
}

// shortID safely truncates an ID for logging (handles short IDs gracefully)
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
