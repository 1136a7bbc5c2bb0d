/*
cache.go - Advisory text cache

PURPOSE:
  Memoizes generated advisory text keyed by a hash of the financial
  snapshot it was produced from. Entries expire on a TTL and are
  invalidated eagerly whenever the user's ledger mutates, so stale advice
  is bounded by whichever comes first.
*/
package insight

import (
	"sync"
	"time"

	"github.com/pesoplan/finance-engine/ledger"
)

// DefaultCacheTTL bounds how long one advisory survives without a mutation.
const DefaultCacheTTL = 15 * time.Minute

type cacheEntry struct {
	text    string
	expires time.Time
}

// Cache is an in-memory per-user advisory store. The zero value is not
// usable; construct with NewCache.
type Cache struct {
	mu      sync.RWMutex
	entries map[ledger.UserID]map[string]cacheEntry
	ttl     time.Duration

	now func() time.Time
}

func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		entries: make(map[ledger.UserID]map[string]cacheEntry),
		ttl:     ttl,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Get returns the cached advisory for this snapshot hash, if still fresh.
func (c *Cache) Get(userID ledger.UserID, hash string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[userID][hash]
	if !ok || c.now().After(entry.expires) {
		return "", false
	}
	return entry.text, true
}

// Put stores an advisory under the snapshot hash it was derived from. The
// user's expired entries are dropped on the way in, so active users never
// accumulate dead hashes.
func (c *Cache) Put(userID ledger.UserID, hash, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	perUser, ok := c.entries[userID]
	if !ok {
		perUser = make(map[string]cacheEntry)
		c.entries[userID] = perUser
	}
	for h, entry := range perUser {
		if now.After(entry.expires) {
			delete(perUser, h)
		}
	}
	perUser[hash] = cacheEntry{text: text, expires: now.Add(c.ttl)}
}

// PurgeExpired evicts every expired advisory across all users and removes
// users whose maps emptied out. Inactive users stop retaining memory once
// their last entry ages past the TTL.
func (c *Cache) PurgeExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	purged := 0
	for userID, perUser := range c.entries {
		for h, entry := range perUser {
			if now.After(entry.expires) {
				delete(perUser, h)
				purged++
			}
		}
		if len(perUser) == 0 {
			delete(c.entries, userID)
		}
	}
	return purged
}

// Invalidate drops every cached advisory for the user.
func (c *Cache) Invalidate(userID ledger.UserID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
}

// LedgerMutated implements ledger.MutationListener: any mutation makes the
// user's cached advisories stale.
func (c *Cache) LedgerMutated(userID ledger.UserID) {
	c.Invalidate(userID)
}
