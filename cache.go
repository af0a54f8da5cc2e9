package identity

import (
	"context"
	"sync"
)

// StoredSession is the persisted mirror of the current session. It exists
// so a session survives a reload; the identity backend stays the source of
// truth and the mirror is revalidated before use.
type StoredSession struct {
	Token   string         `json:"token,omitempty"`
	Session *SessionObject `json:"user,omitempty"`
}

// SessionCache is the local key-value slot mirroring the current session.
// Implementations must treat the slot as a cache: cleared on sign-out,
// never authoritative.
type SessionCache interface {
	Load(ctx context.Context) (*StoredSession, error)
	Store(ctx context.Context, s *StoredSession) error
	Clear(ctx context.Context) error
}

// MemorySessionCache keeps the mirror in process memory. It is the default
// cache and the one used in tests; see adapters/rediscache for a shared one.
type MemorySessionCache struct {
	mu      sync.RWMutex
	current *StoredSession
}

var _ SessionCache = (*MemorySessionCache)(nil)

func NewMemorySessionCache() *MemorySessionCache {
	return &MemorySessionCache{}
}

func (c *MemorySessionCache) Load(ctx context.Context) (*StoredSession, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current, nil
}

func (c *MemorySessionCache) Store(ctx context.Context, s *StoredSession) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = s
	return nil
}

func (c *MemorySessionCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = nil
	return nil
}

type noopSessionCache struct{}

func (noopSessionCache) Load(context.Context) (*StoredSession, error) { return nil, nil }
func (noopSessionCache) Store(context.Context, *StoredSession) error  { return nil }
func (noopSessionCache) Clear(context.Context) error                  { return nil }

func normalizeSessionCache(c SessionCache) SessionCache {
	if c == nil {
		return noopSessionCache{}
	}
	return c
}
