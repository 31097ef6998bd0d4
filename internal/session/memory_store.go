package session

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store used in tests and development
// environments without Redis.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*State

	// SaveErr, when set, makes every Save fail (for failure-path tests).
	SaveErr error
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*State)}
}

func (m *MemoryStore) Save(ctx context.Context, state *State) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[state.SessionID] = state.Clone()
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, sessionID string) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return state.Clone(), nil
}

func (m *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

func (m *MemoryStore) ActiveForUser(ctx context.Context, username string) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, state := range m.sessions {
		if state.Username == username && !state.IsPaused {
			return state.Clone(), nil
		}
	}
	return nil, ErrSessionNotFound
}

func (m *MemoryStore) PausedForUser(ctx context.Context, username string) ([]*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var paused []*State
	for _, state := range m.sessions {
		if state.Username == username && state.IsPaused {
			paused = append(paused, state.Clone())
		}
	}
	return paused, nil
}

func (m *MemoryStore) CleanupActiveForUser(ctx context.Context, username string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, state := range m.sessions {
		if state.Username == username && !state.IsPaused {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// Len reports how many sessions are stored.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
