package chat

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Domenick1991/airassist/internal/domain"
)

// SessionStore persists open sessions. Get returns domain.ErrSessionNotFound
// for unknown or expired ids.
type SessionStore interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore keeps sessions in process. Entries are stored serialized so
// callers never share slices with the store. Expired entries are dropped on
// read and swept at most once per ttl on save.
type MemoryStore struct {
	mu        sync.Mutex
	entries   map[string]memoryEntry
	ttl       time.Duration
	now       func() time.Time
	nextSweep time.Time
}

// NewMemoryStore expires sessions idle for longer than ttl; ttl <= 0 keeps
// them until deleted.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if !e.expiresAt.IsZero() && m.now().After(e.expiresAt) {
		delete(m.entries, id)
		return nil, domain.ErrSessionNotFound
	}

	var s Session
	if err := json.Unmarshal(e.data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	e := memoryEntry{data: data}
	if m.ttl > 0 {
		e.expiresAt = now.Add(m.ttl)
		m.sweep(now)
	}
	m.entries[s.ID] = e
	return nil
}

func (m *MemoryStore) sweep(now time.Time) {
	if now.Before(m.nextSweep) {
		return
	}
	for id, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, id)
		}
	}
	m.nextSweep = now.Add(m.ttl)
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

var _ SessionStore = (*MemoryStore)(nil)
