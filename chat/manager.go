package chat

import (
	"log/slog"
	"sync"
	"time"
)

// defaultIdleTTL is how long an untouched session survives before the next
// registry access sweeps it away.
const defaultIdleTTL = 30 * time.Minute

// Manager hands out sessions lazily, one per store and browsing session.
// Nothing is created at page load; the first turn instantiates the
// session, which is then reused for the rest of that visit. Visit ids
// arrive from client cookies, so the registry cannot trust them to be
// finite: sessions idle past the TTL are evicted on access.
type Manager struct {
	client  Streamer
	logger  *slog.Logger
	idleTTL time.Duration

	mu       sync.Mutex
	sessions map[sessionKey]*sessionEntry
}

type sessionKey struct {
	storeID string
	visitID string
}

type sessionEntry struct {
	session  *Session
	lastUsed time.Time
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithIdleTTL overrides how long an untouched session is kept.
func WithIdleTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) {
		if ttl > 0 {
			m.idleTTL = ttl
		}
	}
}

// NewManager creates a session manager over the given streaming client.
func NewManager(client Streamer, logger *slog.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		client:   client,
		logger:   logger,
		idleTTL:  defaultIdleTTL,
		sessions: make(map[sessionKey]*sessionEntry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Session returns the conversation for (storeID, visitID), creating it on
// first use with the given persona instruction. The instruction is fixed
// for the session's lifetime; later edits to a store's persona only affect
// new visits.
func (m *Manager) Session(storeID, visitID, instruction string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.sweep(now)

	key := sessionKey{storeID: storeID, visitID: visitID}
	if e, ok := m.sessions[key]; ok {
		e.lastUsed = now
		return e.session
	}

	s := NewSession(m.client, instruction, m.logger.With("store", storeID))
	m.sessions[key] = &sessionEntry{session: s, lastUsed: now}
	m.logger.Debug("Opened chat session", "store", storeID, "sessions", len(m.sessions))
	return s
}

// Drop removes the session for (storeID, visitID), if any.
func (m *Manager) Drop(storeID, visitID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionKey{storeID: storeID, visitID: visitID})
}

// sweep evicts sessions idle past the TTL. A session with a turn still
// streaming is kept regardless of its age. Must be called with m.mu held.
func (m *Manager) sweep(now time.Time) {
	for key, e := range m.sessions {
		if now.Sub(e.lastUsed) < m.idleTTL || e.session.Busy() {
			continue
		}
		delete(m.sessions, key)
		m.logger.Debug("Evicted idle chat session", "store", key.storeID)
	}
}
