package llm

import (
	"sync"

	"github.com/Veraticus/business-anzsic-locator/internal/model"
)

// Cache memoizes AI classifications for the lifetime of the process. Keys are the
// exact concatenation of business name and address. With maxEntries > 0 the oldest
// insertion is evicted first; zero means unbounded.
type Cache struct {
	entries    map[string]model.Classification
	order      []string
	maxEntries int
	mu         sync.RWMutex
}

// NewCache creates a cache bounded to maxEntries (0 = unbounded).
func NewCache(maxEntries int) *Cache {
	if maxEntries < 0 {
		maxEntries = 0
	}
	return &Cache{
		entries:    make(map[string]model.Classification),
		maxEntries: maxEntries,
	}
}

func cacheKey(name, address string) string {
	return name + address
}

// Get returns the cached classification for (name, address).
func (c *Cache) Get(name, address string) (model.Classification, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.entries[cacheKey(name, address)]
	return v, ok
}

// Put stores value for (name, address).
func (c *Cache) Put(name, address string, value model.Classification) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(name, address)
	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = value

	if c.maxEntries > 0 {
		for len(c.order) > c.maxEntries {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]model.Classification)
	c.order = nil
}
