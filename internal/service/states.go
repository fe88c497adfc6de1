package service

import (
	"context"
	"sync"
	"time"
)

// SessionState is the part of a practice session that outlives the process:
// the selection. The working set is always rebuilt from storage.
type SessionState struct {
	Topic   string `json:"topic"`
	Chapter string `json:"chapter"`
}

// StateStore persists session selections by session ID.
type StateStore interface {
	Save(ctx context.Context, sessionID string, st SessionState) error
	// Load returns ok=false if nothing is stored for sessionID.
	Load(ctx context.Context, sessionID string) (st SessionState, ok bool, err error)
	Delete(ctx context.Context, sessionID string) error
}

// MemoryStates is a process-local StateStore. With a positive TTL an entry
// expires that long after its last Save, like the Redis store.
type MemoryStates struct {
	ttl time.Duration
	now func() time.Time

	mu     sync.Mutex
	states map[string]memoryState
}

type memoryState struct {
	st      SessionState
	expires time.Time // zero: never
}

var _ StateStore = (*MemoryStates)(nil)

func NewMemoryStates(ttl time.Duration) *MemoryStates {
	return &MemoryStates{
		ttl:    ttl,
		now:    time.Now,
		states: make(map[string]memoryState),
	}
}

func (m *MemoryStates) expired(e memoryState, now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}

func (m *MemoryStates) Save(ctx context.Context, sessionID string, st SessionState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for id, e := range m.states {
		if m.expired(e, now) {
			delete(m.states, id)
		}
	}
	e := memoryState{st: st}
	if m.ttl > 0 {
		e.expires = now.Add(m.ttl)
	}
	m.states[sessionID] = e
	return nil
}

func (m *MemoryStates) Load(ctx context.Context, sessionID string) (SessionState, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.states[sessionID]
	if !ok {
		return SessionState{}, false, nil
	}
	if m.expired(e, m.now()) {
		delete(m.states, sessionID)
		return SessionState{}, false, nil
	}
	return e.st, true, nil
}

func (m *MemoryStates) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, sessionID)
	return nil
}
