// Package cache keeps read-mostly ledger views, such as the account
// snapshot and dashboard totals, in a ristretto cache.
package cache

import (
	"fmt"
	"sync"

	"github.com/dgraph-io/ristretto/v2"
)

// Key groups. Clearing a group drops every key set under it.
const (
	GroupAccounts = "accounts"
	GroupSummary  = "summary"
)

// Cache is safe for concurrent use. A nil *Cache is valid and caches nothing.
type Cache struct {
	store *ristretto.Cache[string, any]

	// ristretto cannot enumerate keys, so they are tracked per group.
	mu     sync.Mutex
	groups map[string]map[string]struct{}
}

func New() (*Cache, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, any]{
		NumCounters: 10000, // number of keys to track frequency of
		MaxCost:     10000,
		BufferItems: 64, // number of keys per Get buffer
	})
	if err != nil {
		return nil, fmt.Errorf("cache.New: %w", err)
	}
	return &Cache{store: c, groups: make(map[string]map[string]struct{})}, nil
}

// Set stores value under key in group and waits until it is visible to Get.
func (c *Cache) Set(group, key string, value any) {
	if c == nil {
		return
	}
	c.mu.Lock()
	keys, ok := c.groups[group]
	if !ok {
		keys = make(map[string]struct{})
		c.groups[group] = keys
	}
	keys[key] = struct{}{}
	c.mu.Unlock()

	c.store.Set(key, value, 1)
	c.store.Wait()
}

func (c *Cache) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	return c.store.Get(key)
}

// Clear drops every key in the given groups.
func (c *Cache) Clear(groups ...string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, g := range groups {
		for key := range c.groups[g] {
			c.store.Del(key)
		}
		delete(c.groups, g)
	}
}

func (c *Cache) Close() {
	if c == nil {
		return
	}
	c.store.Close()
}

// Load returns the value under key when it is present and of type T.
func Load[T any](c *Cache, key string) (T, bool) {
	var zero T
	v, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}
