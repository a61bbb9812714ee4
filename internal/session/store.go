package session

import (
	"context"
	"sync"
	"time"
)

// Store persists sessions between requests.
type Store interface {
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

type memoryEntry struct {
	sess      Session
	expiresAt time.Time
}

// MemoryStore keeps sessions in process. Entries expire after ttl of
// inactivity; a zero ttl never expires.
type MemoryStore struct {
	mu  sync.Mutex
	ttl time.Duration
	m   map[string]memoryEntry
	now func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, m: make(map[string]memoryEntry), now: time.Now}
}

func (st *MemoryStore) Load(_ context.Context, id string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	e, ok := st.m[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if !e.expiresAt.IsZero() && st.now().After(e.expiresAt) {
		delete(st.m, id)
		return nil, ErrSessionNotFound
	}
	s := e.sess
	return &s, nil
}

func (st *MemoryStore) Save(_ context.Context, s *Session) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	s.UpdatedAt = st.now()
	e := memoryEntry{sess: *s}
	if st.ttl > 0 {
		e.expiresAt = s.UpdatedAt.Add(st.ttl)
	}
	st.m[s.ID] = e
	return nil
}

func (st *MemoryStore) Delete(_ context.Context, id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.m, id)
	return nil
}
