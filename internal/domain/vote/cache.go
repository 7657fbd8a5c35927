package vote

import "sync"

// Invalidator is implemented by derived state that must be rebuilt after a write.
type Invalidator interface {
	Invalidate()
}

// Cache holds a lazily rebuilt value derived from the vote log.
// The zero value is an empty, stale cache.
type Cache[T any] struct {
	mu    sync.Mutex
	value T
	valid bool
}

// Get returns the cached value, rebuilding it first when stale.
// A failed build leaves the cache stale.
func (c *Cache[T]) Get(build func() (T, error)) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid {
		return c.value, nil
	}
	v, err := build()
	if err != nil {
		var zero T
		return zero, err
	}
	c.value = v
	c.valid = true
	return v, nil
}

// Invalidate marks the cached value stale.
func (c *Cache[T]) Invalidate() {
	c.mu.Lock()
	c.valid = false
	c.mu.Unlock()
}

// Valid reports whether the next Get will be served without a rebuild.
func (c *Cache[T]) Valid() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.valid
}
