package preference

import (
	"sync"

	"valley_bot/internal/domain"
)

// Cache is the process-wide owner → language mapping. It is never a source
// of truth; entries are only replaced, never evicted.
type Cache struct {
	mu      sync.RWMutex
	entries map[domain.Owner]entry
}

// entry is settled once its language is known to match storage. An unsettled
// entry holds the default picked when storage had nothing or failed.
type entry struct {
	lang    domain.Language
	settled bool
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[domain.Owner]entry)}
}

// Get returns the cached language for owner.
func (c *Cache) Get(owner domain.Owner) (domain.Language, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[owner]
	return e.lang, ok
}

// Put stores lang for owner as settled, replacing any previous entry.
func (c *Cache) Put(owner domain.Owner, lang domain.Language) {
	c.mu.Lock()
	c.entries[owner] = entry{lang: lang, settled: true}
	c.mu.Unlock()
}

// Offer stores lang when owner has no entry, or when the entry is unsettled
// and lang is settled. It returns the language cached afterwards.
func (c *Cache) Offer(owner domain.Owner, lang domain.Language, settled bool) domain.Language {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[owner]; ok && (existing.settled || !settled) {
		return existing.lang
	}
	c.entries[owner] = entry{lang: lang, settled: settled}
	return lang
}

// Len returns the number of cached owners.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}
