// Package cache holds the in-memory single-slot rate cache. It is never the
// system of record: it is rebuilt on the next refresh tick after a restart.
package cache

import (
	"strings"
	"sync"
	"time"

	portsprov "github.com/EnesEfeTokta/fintrack-backend/internal/core/ports/providers"
	"github.com/EnesEfeTokta/fintrack-backend/internal/models"
	"github.com/shopspring/decimal"
)

// MemoryRateCache stores the single most recent provider response. The slot
// is replaced wholesale under a lock, so readers never see a partially
// updated rate map. Entries expire after ttl so a silently dead refresh loop
// cannot serve arbitrarily stale data forever.
type MemoryRateCache struct {
	mu        sync.RWMutex
	latest    *models.RateSnapshot
	expiresAt time.Time
	ttl       time.Duration
	now       func() time.Time
}

// NewMemoryRateCache creates a cache whose entries live for the refresh
// interval plus a grace period, matching the refresh schedule.
func NewMemoryRateCache(ttl time.Duration) *MemoryRateCache {
	return &MemoryRateCache{
		ttl: ttl,
		now: time.Now,
	}
}

var _ portsprov.RateCache = (*MemoryRateCache)(nil)

// SetLatest replaces the cached snapshot. The rate map is copied so later
// mutation by the caller cannot leak into readers.
func (c *MemoryRateCache) SetLatest(snapshot models.RateSnapshot) {
	rates := make(map[string]decimal.Decimal, len(snapshot.Rates))
	for code, rate := range snapshot.Rates {
		rates[strings.ToUpper(code)] = rate
	}
	entry := &models.RateSnapshot{
		Date:  snapshot.Date,
		Base:  strings.ToUpper(snapshot.Base),
		Rates: rates,
	}

	c.mu.Lock()
	c.latest = entry
	c.expiresAt = c.now().Add(c.ttl)
	c.mu.Unlock()
}

// GetLatest returns the cached snapshot, or false when the slot is empty or
// expired.
func (c *MemoryRateCache) GetLatest() (*models.RateSnapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.latest == nil || c.now().After(c.expiresAt) {
		return nil, false
	}
	return c.latest, true
}

// GetRate looks up a single cached rate, case-insensitively.
func (c *MemoryRateCache) GetRate(code string) (decimal.Decimal, bool) {
	snapshot, ok := c.GetLatest()
	if !ok {
		return decimal.Decimal{}, false
	}
	rate, ok := snapshot.Rates[strings.ToUpper(code)]
	return rate, ok
}
