package cache

import (
	"errors"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// keyPrefix namespaces our keys on shared memcached instances
const keyPrefix = "seanime_provider_"

// MemcacheService implements CacheService on memcached. Misses are
// normalized to ErrCacheMiss so callers see the same sentinel from
// every implementation.
type MemcacheService struct {
	client *memcache.Client
}

// NewMemcacheService creates a new memcache service
func NewMemcacheService(serverAddr string) *MemcacheService {
	return &MemcacheService{
		client: memcache.New(serverAddr),
	}
}

// Get retrieves a value from memcached
func (m *MemcacheService) Get(key string) ([]byte, error) {
	item, err := m.client.Get(keyPrefix + key)
	if err != nil {
		if errors.Is(err, memcache.ErrCacheMiss) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}
	return item.Value, nil
}

// Set stores a value in memcached with an expiration time
func (m *MemcacheService) Set(key string, value []byte, expiration time.Duration) error {
	return m.client.Set(&memcache.Item{
		Key:        keyPrefix + key,
		Value:      value,
		Expiration: int32(expiration.Seconds()),
	})
}

// Delete removes a value from memcached
func (m *MemcacheService) Delete(key string) error {
	err := m.client.Delete(keyPrefix + key)
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil
	}
	return err
}
