package cache

import (
	"context"
	"sync"
	"time"

	"balancete/internal/core"
	"balancete/internal/ledgers"
)

// LedgerCache is a read-through cache of ledger snapshots in front of a LedgerReader.
// Cached values are cloned on the way out so callers never share series slices.
// A read that overlaps an invalidation of the same entity is not cached.
type LedgerCache struct {
	reader ledgers.LedgerReader
	lru    *LRUCache[core.Ledger]

	mu          sync.Mutex
	generations map[string]uint64
	epoch       uint64
}

func NewLedgerCache(reader ledgers.LedgerReader, size int, ttl time.Duration) *LedgerCache {
	return &LedgerCache{
		reader:      reader,
		lru:         NewLRUCache[core.Ledger](size, ttl),
		generations: make(map[string]uint64),
	}
}

// FetchLedger implements ledgers.LedgerReader
func (c *LedgerCache) FetchLedger(ctx context.Context, entityID string) (core.Ledger, error) {
	if l, ok := c.lru.Get(entityID); ok {
		return l.Clone(), nil
	}
	gen := c.generation(entityID)
	l, err := c.reader.FetchLedger(ctx, entityID)
	if err != nil {
		return core.Ledger{}, err
	}

	c.mu.Lock()
	if c.generations[entityID]+c.epoch == gen {
		c.lru.Set(entityID, l.Clone())
	}
	c.mu.Unlock()
	return l, nil
}

func (c *LedgerCache) generation(entityID string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[entityID] + c.epoch
}

// Invalidate drops the snapshot of one entity.
func (c *LedgerCache) Invalidate(entityID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[entityID]++
	c.lru.Delete(entityID)
}

// InvalidateAll drops every snapshot.
func (c *LedgerCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.lru.Clear()
}

func (c *LedgerCache) CleanExpired() int { return c.lru.CleanExpired() }

func (c *LedgerCache) Stats() Stats { return c.lru.Stats() }
