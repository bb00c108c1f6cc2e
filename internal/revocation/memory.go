package revocation

import (
	"context"
	"sync"
	"time"
)

// MemoryRegistry keeps revoked token identifiers in a process-local map.
// Suitable only for a single-process deployment; a multi-instance service
// must use RedisRegistry so revocations are visible to every instance.
type MemoryRegistry struct {
	mu      sync.RWMutex
	entries map[string]time.Time // tokenID -> moment the entry can be pruned
	now     func() time.Time
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (r *MemoryRegistry) Revoke(_ context.Context, tokenID string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[tokenID] = r.now().Add(ttl)
	return nil
}

func (r *MemoryRegistry) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[tokenID]
	return ok, nil
}

// Prune drops entries whose underlying token has expired on its own,
// bounding memory. Returns the number of entries removed.
func (r *MemoryRegistry) Prune(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, pruneAt := range r.entries {
		if now.After(pruneAt) {
			delete(r.entries, id)
			removed++
		}
	}
	return removed
}

// StartJanitor prunes on the given interval until ctx is cancelled.
func (r *MemoryRegistry) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				r.Prune(now)
			}
		}
	}()
}
