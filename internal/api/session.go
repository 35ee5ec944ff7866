package api

import (
	"sync"
	"time"

	"github.com/ignite/polite-popup/internal/popup"
)

// Sessions are evicted in-line once the map grows past this bound.
const maxSessions = 10000

type session struct {
	gate         *popup.Gate
	lastActivity time.Time
}

// SessionManager holds one engagement gate per page view, keyed by visitor ID
// and page path. A page view session is ephemeral; the exposure record it
// writes to is keyed by visitor ID alone and outlives it.
type SessionManager struct {
	cfg   popup.Config
	store popup.ExposureStore
	ttl   time.Duration

	mu       sync.Mutex
	sessions map[string]*session
}

func NewSessionManager(cfg popup.Config, store popup.ExposureStore, ttl time.Duration) *SessionManager {
	return &SessionManager{
		cfg:      cfg,
		store:    store,
		ttl:      ttl,
		sessions: make(map[string]*session),
	}
}

// Gate returns the gate for the given page view, creating it on first use.
func (m *SessionManager) Gate(visitorID, pagePath string) *popup.Gate {
	key := visitorID + "|" + pagePath

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[key]; ok {
		s.lastActivity = time.Now()
		return s.gate
	}

	if len(m.sessions) >= maxSessions {
		m.evictLocked()
	}

	g := popup.NewGate(m.cfg, m.store, visitorID)
	m.sessions[key] = &session{gate: g, lastActivity: time.Now()}
	return g
}

// Lookup returns the gate for the given page view without creating one.
func (m *SessionManager) Lookup(visitorID, pagePath string) (*popup.Gate, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[visitorID+"|"+pagePath]
	if !ok {
		return nil, false
	}
	s.lastActivity = time.Now()
	return s.gate, true
}

// Len reports the current session count.
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// evictLocked drops sessions idle past the TTL, cancelling their timers.
func (m *SessionManager) evictLocked() {
	cutoff := time.Now().Add(-m.ttl)
	for k, s := range m.sessions {
		if s.lastActivity.Before(cutoff) {
			s.gate.Close()
			delete(m.sessions, k)
		}
	}
}
