// Package cache is a thread-safe key/value store with optional expiry and tag-based eviction.
package cache

import (
	"sort"
	"sync"
	"time"
)

// Cache is a simple thread-safe key-value store using sync.Map.
type Cache struct {
	m sync.Map
	// tagIndex maps tag string to a set of keys (*sync.Map of key -> struct{})
	tagIndex sync.Map
	// keyTags maps key to the tags it carries so Delete can clean the index
	keyTags sync.Map
	now     func() time.Time
}

// NewCache creates a new Cache instance.
func NewCache() *Cache {
	return &Cache{now: time.Now}
}

type cacheItem struct {
	Value     any
	ExpiresAt int64 // Unix nanoseconds; 0 means no expiration
}

// Set stores value for key. A ttl of 0 never expires. Tags group keys for DeleteByTag.
func (c *Cache) Set(key string, value any, ttl time.Duration, tags []string) {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = c.now().Add(ttl).UnixNano()
	}
	c.m.Store(key, cacheItem{Value: value, ExpiresAt: expiresAt})
	if len(tags) > 0 {
		c.TagKey(key, tags)
	}
}

// Get returns the value for key if present and not expired.
func (c *Cache) Get(key string) (any, bool) {
	v, ok := c.m.Load(key)
	if !ok {
		return nil, false
	}
	item := v.(cacheItem)
	if item.ExpiresAt > 0 && c.now().UnixNano() > item.ExpiresAt {
		c.Delete(key)
		return nil, false
	}
	return item.Value, true
}

// GetOrDefault returns the value for key, or def when missing.
func (c *Cache) GetOrDefault(key string, def any) any {
	if v, ok := c.Get(key); ok {
		return v
	}
	return def
}

// Delete removes key and its tag memberships. Returns whether key was present.
func (c *Cache) Delete(key string) bool {
	_, existed := c.m.LoadAndDelete(key)
	if tags, ok := c.keyTags.LoadAndDelete(key); ok {
		for _, tag := range tags.([]string) {
			if val, ok := c.tagIndex.Load(tag); ok {
				val.(*sync.Map).Delete(key)
			}
		}
	}
	return existed
}

// DeleteMany removes multiple keys.
func (c *Cache) DeleteMany(keys ...string) {
	for _, key := range keys {
		c.Delete(key)
	}
}

// Keys returns all live keys, sorted.
func (c *Cache) Keys() []string {
	var keys []string
	c.m.Range(func(key, _ any) bool {
		keys = append(keys, key.(string))
		return true
	})
	sort.Strings(keys)
	return keys
}

// Len is the number of stored entries, expired ones included until touched.
func (c *Cache) Len() int {
	n := 0
	c.m.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// IterateFilter returns the values for which filter returns true.
func (c *Cache) IterateFilter(filter func(key string, value any) bool) []any {
	var results []any
	c.m.Range(func(key, value any) bool {
		item := value.(cacheItem)
		if filter(key.(string), item.Value) {
			results = append(results, item.Value)
		}
		return true
	})
	return results
}

// TagKey assigns tags to key.
func (c *Cache) TagKey(key string, tags []string) {
	for _, tag := range tags {
		val, _ := c.tagIndex.LoadOrStore(tag, &sync.Map{})
		val.(*sync.Map).Store(key, struct{}{})
	}
	existing, _ := c.keyTags.Load(key)
	merged, _ := existing.([]string)
	for _, tag := range tags {
		if !contains(merged, tag) {
			merged = append(merged, tag)
		}
	}
	c.keyTags.Store(key, merged)
}

// GetKeysByTag returns the keys carrying tag.
func (c *Cache) GetKeysByTag(tag string) []string {
	var keys []string
	if val, ok := c.tagIndex.Load(tag); ok {
		val.(*sync.Map).Range(func(key, _ any) bool {
			keys = append(keys, key.(string))
			return true
		})
	}
	sort.Strings(keys)
	return keys
}

// DeleteByTag deletes every entry carrying tag and returns the removed keys.
func (c *Cache) DeleteByTag(tag string) []string {
	keys := c.GetKeysByTag(tag)
	for _, key := range keys {
		c.Delete(key)
	}
	c.tagIndex.Delete(tag)
	return keys
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
