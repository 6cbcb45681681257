package openstates

import (
	"strings"
	"sync"
	"time"

	"github.com/skridlevsky/legiscore/internal/legislature"
)

type cachedBill struct {
	votes    []legislature.VoteRecord
	cachedAt time.Time
}

// BillCache stores fetched bill votes in memory with automatic expiration.
// Several tracked votes usually come from the same bill, so one fetch serves all of them.
type BillCache struct {
	mu    sync.RWMutex
	bills map[string]*cachedBill // state/session/bill -> votes
	ttl   time.Duration
	now   func() time.Time
}

// NewBillCache creates a new bill cache
func NewBillCache(ttl time.Duration) *BillCache {
	if ttl == 0 {
		ttl = 10 * time.Minute
	}

	return &BillCache{
		bills: make(map[string]*cachedBill),
		ttl:   ttl,
		now:   time.Now,
	}
}

func cacheKey(state, session, billID string) string {
	return strings.ToLower(state) + "/" + session + "/" + strings.ToUpper(billID)
}

// Put adds or replaces a bill's votes
func (c *BillCache) Put(state, session, billID string, votes []legislature.VoteRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.bills[cacheKey(state, session, billID)] = &cachedBill{
		votes:    votes,
		cachedAt: c.now(),
	}
}

// Get retrieves a bill's votes if present and not expired
func (c *BillCache) Get(state, session, billID string) ([]legislature.VoteRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.bills[cacheKey(state, session, billID)]
	if !exists {
		return nil, false
	}
	if c.now().Sub(entry.cachedAt) > c.ttl {
		return nil, false
	}
	return entry.votes, true
}

// CleanExpired removes expired bills and returns how many were dropped
func (c *BillCache) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.bills {
		if c.now().Sub(entry.cachedAt) > c.ttl {
			delete(c.bills, key)
			removed++
		}
	}
	return removed
}

// Clear removes all bills
func (c *BillCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.bills = make(map[string]*cachedBill)
}

// Count returns the number of cached bills, expired or not
func (c *BillCache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.bills)
}
