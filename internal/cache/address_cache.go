package cache

import (
	"sync"

	"github.com/Cheertaboi/delivery-order-service/internal/models"
)

// AddressCache remembers resolved coordinates by normalized address.
// When it reaches maxEntries it is cleared rather than evicting one by one.
type AddressCache struct {
	mu         sync.RWMutex
	store      map[string]models.Coordinates
	maxEntries int
}

func NewAddressCache(maxEntries int) *AddressCache {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &AddressCache{
		store:      make(map[string]models.Coordinates),
		maxEntries: maxEntries,
	}
}

func (c *AddressCache) Get(key string) (models.Coordinates, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := c.store[key]
	return val, ok
}

func (c *AddressCache) Set(key string, value models.Coordinates) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.store[key]; !exists && len(c.store) >= c.maxEntries {
		c.store = make(map[string]models.Coordinates)
	}
	c.store[key] = value
}

func (c *AddressCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}
