package trivia

import (
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Registry is the process-wide owner of live sessions. It also indexes which
// sessions each connection belongs to so disconnects do not scan every room.
//
// Lock order: the registry lock is never held while a session lock is being
// acquired. Callers holding a session lock may call into the registry.
type Registry struct {
	mu           sync.RWMutex
	sessions     map[string]*Session
	connSessions map[string]map[string]struct{}
	clock        clockwork.Clock
}

// NewRegistry creates an empty registry.
func NewRegistry(clock clockwork.Clock) *Registry {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Registry{
		sessions:     make(map[string]*Session),
		connSessions: make(map[string]map[string]struct{}),
		clock:        clock,
	}
}

// Create inserts a new lobby session with connID as its host.
func (r *Registry) Create(id, hostName, connID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[id]; exists {
		return nil, ErrDuplicateSession
	}

	session := newSession(id, hostName, connID, r.clock.Now())
	r.sessions[id] = session
	r.trackLocked(connID, id)

	log.Debug().
		Str("session_id", id).
		Str("connection_id", connID).
		Int("live_sessions", len(r.sessions)).
		Msg("session registered")

	return session, nil
}

// Get returns the live session for id. Absence is not an error.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Track records that connID belongs to session id.
func (r *Registry) Track(connID, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trackLocked(connID, id)
}

func (r *Registry) trackLocked(connID, id string) {
	ids, ok := r.connSessions[connID]
	if !ok {
		ids = make(map[string]struct{})
		r.connSessions[connID] = ids
	}
	ids[id] = struct{}{}
}

// Untrack forgets that connID belongs to session id.
func (r *Registry) Untrack(connID, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.untrackLocked(connID, id)
}

func (r *Registry) untrackLocked(connID, id string) {
	if ids, ok := r.connSessions[connID]; ok {
		delete(ids, id)
		if len(ids) == 0 {
			delete(r.connSessions, connID)
		}
	}
}

// SessionsFor returns the live sessions connID belongs to.
func (r *Registry) SessionsFor(connID string) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.connSessions[connID]
	out := make([]*Session, 0, len(ids))
	for id := range ids {
		if s, ok := r.sessions[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Remove deletes a session. The caller must hold the session lock. The
// session is marked closed and its pending timer cancelled so no callback
// touches it afterwards.
func (r *Registry) Remove(s *Session) {
	s.closed = true
	s.roundActive = false
	s.CancelTimer()

	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.sessions[s.ID]; ok && current == s {
		delete(r.sessions, s.ID)
	}
	for _, p := range s.Players {
		r.untrackLocked(p.ID, s.ID)
	}

	log.Debug().
		Str("session_id", s.ID).
		Int("live_sessions", len(r.sessions)).
		Msg("session removed")
}

// All returns every live session.
func (r *Registry) All() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
