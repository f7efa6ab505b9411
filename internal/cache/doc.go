// Package cache provides a generic soft-limit LRU cache.
//
//	c := cache.New[string, int](100)
//	c.Set("key", 42)
//	v, ok := c.Get("key")
//
// When the cache grows past its limit, the least recently used quarter of
// the entries is evicted in one pass.
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache
