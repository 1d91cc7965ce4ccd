package domain

import "sync"

// Cache memoizes instrumented output by request path. Entries are only ever
// dropped all at once.
type Cache interface {
	Get(key string) (string, bool)
	Put(key, value string)
	Clear()
	Len() int
}

type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewCache returns an empty in-memory cache safe for concurrent use.
func NewCache() Cache {
	return &memoryCache{entries: map[string]string{}}
}

func (c *memoryCache) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.entries[key]

	return v, ok
}

func (c *memoryCache) Put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = value
}

func (c *memoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = map[string]string{}
}

func (c *memoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}
