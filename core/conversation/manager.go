package conversation

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/google/uuid"
)

const (
	defaultMaxSessions = 4096
	defaultIdleTimeout = 30 * time.Minute
)

// Session pairs a session id with its conversation context. The inFlight
// flag enforces one LLM-backed turn at a time per session.
type Session struct {
	ID        string
	Ctx       *Context
	CreatedAt time.Time

	lastSeen atomic.Int64
	inFlight atomic.Bool
}

// Touch records activity for idle expiry.
func (s *Session) Touch() {
	s.lastSeen.Store(time.Now().UnixNano())
}

// LastSeen returns the time of the most recent activity.
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// BeginTurn claims the session's single turn slot. Returns false if a turn
// is already being processed.
func (s *Session) BeginTurn() bool {
	return s.inFlight.CompareAndSwap(false, true)
}

// EndTurn releases the turn slot.
func (s *Session) EndTurn() {
	s.inFlight.Store(false)
}

// Manager owns the live session set, capped by an LRU so abandoned
// sessions cannot grow without bound.
type Manager struct {
	mu          sync.Mutex
	sessions    *lru.Cache[string, *Session]
	idleTimeout time.Duration
}

// ManagerConfig holds session manager options.
type ManagerConfig struct {
	MaxSessions int
	IdleTimeout time.Duration
}

// NewManager creates a session manager.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = defaultMaxSessions
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}

	cache, err := lru.New[string, *Session](cfg.MaxSessions)
	if err != nil {
		return nil, fmt.Errorf("session cache: %w", err)
	}

	return &Manager{
		sessions:    cache,
		idleTimeout: cfg.IdleTimeout,
	}, nil
}

// Start creates a new session for the given caller context.
func (m *Manager) Start(ctx *Context) *Session {
	session := &Session{
		ID:        uuid.New().String(),
		Ctx:       ctx,
		CreatedAt: time.Now(),
	}
	session.Touch()

	m.sessions.Add(session.ID, session)
	return session
}

// Get returns a live session, refusing sessions past their idle window.
func (m *Manager) Get(id string) (*Session, bool) {
	session, ok := m.sessions.Get(id)
	if !ok {
		return nil, false
	}

	if time.Since(session.LastSeen()) > m.idleTimeout {
		m.sessions.Remove(id)
		return nil, false
	}

	session.Touch()
	return session, true
}

// End discards a session.
func (m *Manager) End(id string) {
	m.sessions.Remove(id)
}

// Sweep evicts idle sessions and returns how many were removed.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for _, id := range m.sessions.Keys() {
		session, ok := m.sessions.Peek(id)
		if !ok {
			continue
		}
		if time.Since(session.LastSeen()) > m.idleTimeout {
			m.sessions.Remove(id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	return m.sessions.Len()
}
