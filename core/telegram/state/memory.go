package state

import (
	"sort"
	"sync"
)

// MemoryStore keeps one session value per Telegram user id for the lifetime of
// the process. Values are copied in and out so callers never share state with
// the store; use Mutate for read-modify-write updates.
type MemoryStore[T any] struct {
	mu       sync.RWMutex
	sessions map[int64]*T
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore[T any]() *MemoryStore[T] {
	return &MemoryStore[T]{
		sessions: make(map[int64]*T),
	}
}

// Create stores v for the user, replacing any existing session.
func (m *MemoryStore[T]) Create(userID int64, v T) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[userID] = &v
}

// Get returns a copy of the user's session and whether it exists.
func (m *MemoryStore[T]) Get(userID int64) (T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[userID]
	if !ok {
		var zero T
		return zero, false
	}
	return *session, true
}

// Mutate applies fn to the stored session in place. It reports false and does
// not call fn when the user has no session.
func (m *MemoryStore[T]) Mutate(userID int64, fn func(*T)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[userID]
	if !ok {
		return false
	}
	if fn != nil {
		fn(session)
	}
	return true
}

// Delete removes the user's session and reports whether one existed.
func (m *MemoryStore[T]) Delete(userID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[userID]; !ok {
		return false
	}
	delete(m.sessions, userID)
	return true
}

// Len reports the number of active sessions.
func (m *MemoryStore[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Entry pairs a user id with a copy of its session.
type Entry[T any] struct {
	UserID  int64
	Session T
}

// Snapshot returns copies of the sessions accepted by keep, ordered by user id.
// A nil keep selects everything.
func (m *MemoryStore[T]) Snapshot(keep func(T) bool) []Entry[T] {
	m.mu.RLock()
	out := make([]Entry[T], 0, len(m.sessions))
	for id, s := range m.sessions {
		if keep != nil && !keep(*s) {
			continue
		}
		out = append(out, Entry[T]{UserID: id, Session: *s})
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}
