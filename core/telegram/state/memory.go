package state

import "sync"

// MemoryStore is a map-backed Store safe for concurrent use across users.
// Values are stored by copy, so callers never share a session with the store.
type MemoryStore[T any] struct {
	mu       sync.RWMutex
	sessions map[int64]T
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore[T any]() *MemoryStore[T] {
	return &MemoryStore[T]{
		sessions: make(map[int64]T),
	}
}

// Get returns the session for a user if it exists.
func (m *MemoryStore[T]) Get(userID int64) (T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userID]
	return s, ok
}

// Put stores the session for a user, replacing any previous one.
func (m *MemoryStore[T]) Put(userID int64, session T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[userID] = session
}

// Delete removes the session for a user.
func (m *MemoryStore[T]) Delete(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

// Len reports how many users currently have a session.
func (m *MemoryStore[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
