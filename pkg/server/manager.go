package server

import (
	"sync"
	"sync/atomic"
)

// SessionManager tracks live sessions.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	totalCreated atomic.Uint64
	totalClosed  atomic.Uint64
}

// ManagerStats is a snapshot of session counters.
type ManagerStats struct {
	Active       int
	TotalCreated uint64
	TotalClosed  uint64
}

// NewSessionManager creates an empty manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{sessions: make(map[string]*Session)}
}

// Add registers a session.
func (sm *SessionManager) Add(s *Session) {
	sm.mu.Lock()
	sm.sessions[s.ID] = s
	sm.mu.Unlock()
	sm.totalCreated.Add(1)
}

// Remove forgets a session. Removing an unknown id is a no-op.
func (sm *SessionManager) Remove(id string) {
	sm.mu.Lock()
	_, ok := sm.sessions[id]
	delete(sm.sessions, id)
	sm.mu.Unlock()
	if ok {
		sm.totalClosed.Add(1)
	}
}

// Get returns the session with id, or nil.
func (sm *SessionManager) Get(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}

// Count returns the number of live sessions.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// ForEach calls fn for each session until fn returns false.
func (sm *SessionManager) ForEach(fn func(*Session) bool) {
	sm.mu.RLock()
	list := make([]*Session, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		list = append(list, s)
	}
	sm.mu.RUnlock()

	for _, s := range list {
		if !fn(s) {
			return
		}
	}
}

// Stats returns session counters.
func (sm *SessionManager) Stats() ManagerStats {
	return ManagerStats{
		Active:       sm.Count(),
		TotalCreated: sm.totalCreated.Load(),
		TotalClosed:  sm.totalClosed.Load(),
	}
}

// Shutdown closes every session.
func (sm *SessionManager) Shutdown() {
	sm.ForEach(func(s *Session) bool {
		s.Close()
		return true
	})
}
