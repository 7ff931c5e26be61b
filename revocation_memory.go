package credo

import (
	"context"
	"sync"
	"time"
)

// MemoryRevocationStore is an in-process denylist for deployments and
// tests without Redis. Entries carry their own expiry; reads check it
// lazily and a low-priority periodic sweep reclaims memory. The sweep is
// idempotent, safe alongside request handling, never revokes a token
// early, and never resurrects an expired entry.
type MemoryRevocationStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	now     func() time.Time
	done    chan struct{}
	once    sync.Once
}

// NewMemoryRevocationStore starts the store with a background sweep at
// the given interval (0 disables it; lazy expiry still applies). Close
// stops the sweep.
func NewMemoryRevocationStore(sweepInterval time.Duration) *MemoryRevocationStore {
	s := &MemoryRevocationStore{
		entries: make(map[string]time.Time),
		now:     time.Now,
		done:    make(chan struct{}),
	}
	if sweepInterval > 0 {
		go s.sweepLoop(sweepInterval)
	}
	return s
}

// Revoke denylists the token until now+ttl.
func (s *MemoryRevocationStore) Revoke(_ context.Context, tokenStr string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	key := revocationKey("m", tokenStr)
	expiry := s.now().Add(ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	// Keep the later expiry if the token was already revoked; shortening
	// would un-revoke it early.
	if existing, ok := s.entries[key]; !ok || expiry.After(existing) {
		s.entries[key] = expiry
	}
	return nil
}

// IsRevoked reports whether the token is denylisted and not yet expired.
func (s *MemoryRevocationStore) IsRevoked(_ context.Context, tokenStr string) (bool, error) {
	key := revocationKey("m", tokenStr)

	s.mu.RLock()
	expiry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if s.now().After(expiry) {
		s.mu.Lock()
		// Re-check under the write lock; a concurrent Revoke may have
		// extended the entry.
		if current, still := s.entries[key]; still && s.now().After(current) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return false, nil
	}
	return true, nil
}

// Close stops the background sweep. Idempotent.
func (s *MemoryRevocationStore) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *MemoryRevocationStore) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *MemoryRevocationStore) sweep() {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, expiry := range s.entries {
		if now.After(expiry) {
			delete(s.entries, key)
		}
	}
}
