// Package session reads the signed-in user. Sessions are created by the
// identity provider in front of this service; the listing only reads them.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rsilvagit/joblist/internal/model"
)

// ErrNotFound is returned when a session id is unknown or expired.
var ErrNotFound = errors.New("session: not found")

// Store maps session ids to users.
type Store interface {
	Get(ctx context.Context, id string) (*model.User, error)
	Put(ctx context.Context, id string, user *model.User) error
	Delete(ctx context.Context, id string) error
	Close() error
}

type ctxKey struct{}

// WithUser returns a context carrying the signed-in user.
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, user)
}

// UserFromContext returns the signed-in user, or nil.
func UserFromContext(ctx context.Context) *model.User {
	u, _ := ctx.Value(ctxKey{}).(*model.User)
	return u
}

type memoryEntry struct {
	user    model.User
	expires time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expires.IsZero() && now.After(e.expires)
}

// MemoryStore keeps sessions in process. Used in demo mode and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates a MemoryStore. A zero ttl never expires.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*model.User, error) {
	m.mu.RLock()
	e, ok := m.entries[id]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	if e.expired(m.now()) {
		m.mu.Lock()
		if cur, ok := m.entries[id]; ok && cur.expired(m.now()) {
			delete(m.entries, id)
		}
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	u := e.user
	return &u, nil
}

func (m *MemoryStore) Put(ctx context.Context, id string, user *model.User) error {
	e := memoryEntry{user: *user}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}

	m.mu.Lock()
	m.sweepLocked()
	m.entries[id] = e
	m.mu.Unlock()
	return nil
}

// sweepLocked drops every expired entry.
func (m *MemoryStore) sweepLocked() {
	now := m.now()
	for id, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, id)
		}
	}
}

// Len reports the number of stored sessions, expired ones included until
// they are swept.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Close() error { return nil }
