// Package cache provides a simple in-memory TTL cache keyed by the
// deterministic report keys built in keys.go.
// In production, this could be backed by Redis behind the same port.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// InMemory is a thread-safe in-memory byte cache with per-entry TTL.
type InMemory struct {
	mu      sync.RWMutex
	items   map[string]entry
	sweep   time.Duration
	stopped chan struct{}
}

// New creates a new in-memory cache. sweep controls how often expired
// entries are collected in the background.
func New(sweep time.Duration) *InMemory {
	c := &InMemory{
		items:   make(map[string]entry),
		sweep:   sweep,
		stopped: make(chan struct{}),
	}
	// Background cleanup goroutine
	go c.cleanup()
	return c
}

// Get retrieves a value from the cache. The second return value is false
// if the key is absent or expired. Never returns an error.
func (c *InMemory) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[key]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set stores a value in the cache with the given TTL.
func (c *InMemory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = entry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// Delete removes the given keys from the cache.
func (c *InMemory) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, k := range keys {
		delete(c.items, k)
	}
	return nil
}

// DeletePrefix removes every key that starts with prefix. Used by the
// write path to flush whole report namespaces.
func (c *InMemory) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k := range c.items {
		if strings.HasPrefix(k, prefix) {
			delete(c.items, k)
		}
	}
	return nil
}

// Close stops the background cleanup goroutine.
func (c *InMemory) Close() {
	close(c.stopped)
}

// cleanup periodically removes expired entries.
func (c *InMemory) cleanup() {
	ticker := time.NewTicker(c.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopped:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for k, v := range c.items {
				if now.After(v.expiresAt) {
					delete(c.items, k)
				}
			}
			c.mu.Unlock()
		}
	}
}
