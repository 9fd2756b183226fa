package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"memowriter/internal/config"
	"memowriter/internal/models"
)

const (
	DefaultSessionTTL      = 30 * time.Minute
	DefaultCleanupInterval = 5 * time.Minute

	// maxSessions bounds concurrent sessions to keep memory predictable.
	maxSessions = 100
)

// Manager owns every live session state. Sessions are created on demand,
// touched on access, and torn down explicitly or after sitting idle past
// the TTL.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*State
	slotCfgs []config.SlotConfig
	ttl      time.Duration
}

// NewManager builds a manager creating sessions with the configured slots.
func NewManager(slotCfgs []config.SlotConfig, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Manager{
		sessions: make(map[string]*State),
		slotCfgs: slotCfgs,
		ttl:      ttl,
	}
}

// Create allocates a new session with every slot idle.
func (m *Manager) Create() (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sessions) >= maxSessions {
		return nil, errors.New("too many active sessions")
	}
	state := newState(uuid.New().String(), m.slotCfgs)
	m.sessions[state.ID] = state
	return state, nil
}

// Get returns the live session and marks it active.
func (m *Manager) Get(id string) (*State, error) {
	m.mu.Lock()
	state, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	state.touch()
	return state, nil
}

// Destroy removes the session. In-flight jobs keep running in the
// external services; their results are simply never collected.
func (m *Manager) Destroy(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// StartCleaner launches the background teardown loop.
func (m *Manager) StartCleaner(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	go m.cleanupLoop(ctx, interval)
}

func (m *Manager) cleanupLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.cleanupExpired()
		}
	}
}

func (m *Manager) cleanupExpired() {
	cutoff := time.Now().UTC().Add(-m.ttl)
	m.mu.Lock()
	for id, state := range m.sessions {
		if state.idleSince().Before(cutoff) {
			delete(m.sessions, id)
			log.Printf("session %s expired after %s idle", id, m.ttl)
		}
	}
	m.mu.Unlock()
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
