package cache

import (
	"errors"
	"sync"
	"time"
)

// ErrCacheMiss is returned when a key is absent or expired
var ErrCacheMiss = errors.New("cache: miss")

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

// MemoryService implements CacheService with an in-process map.
// It is used when no memcached address is configured.
type MemoryService struct {
	mu    sync.RWMutex
	items map[string]memoryItem
}

// NewMemoryService creates a new in-memory cache service
func NewMemoryService() *MemoryService {
	return &MemoryService{
		items: make(map[string]memoryItem),
	}
}

// Get retrieves a value from the in-memory cache
func (m *MemoryService) Get(key string) ([]byte, error) {
	m.mu.RLock()
	item, ok := m.items[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrCacheMiss
	}
	if !item.expiresAt.IsZero() && time.Now().After(item.expiresAt) {
		m.mu.Lock()
		delete(m.items, key)
		m.mu.Unlock()
		return nil, ErrCacheMiss
	}
	return item.value, nil
}

// Set stores a value in the in-memory cache with an expiration time
func (m *MemoryService) Set(key string, value []byte, expiration time.Duration) error {
	var expiresAt time.Time
	if expiration > 0 {
		expiresAt = time.Now().Add(expiration)
	}
	m.mu.Lock()
	m.items[key] = memoryItem{value: value, expiresAt: expiresAt}
	m.mu.Unlock()
	return nil
}

// Delete removes a value from the in-memory cache
func (m *MemoryService) Delete(key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}
