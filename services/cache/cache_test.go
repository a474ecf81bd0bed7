package cache

import (
	"testing"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/stretchr/testify/assert"
)

func TestMemoryService(t *testing.T) {
	mc := NewMemoryService()

	err := mc.Set("test_key", []byte("test_value"), 1*time.Minute)
	assert.NoError(t, err)

	value, err := mc.Get("test_key")
	assert.NoError(t, err)
	assert.Equal(t, "test_value", string(value))

	err = mc.Delete("test_key")
	assert.NoError(t, err)

	_, err = mc.Get("test_key")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryServiceExpiration(t *testing.T) {
	mc := NewMemoryService()

	err := mc.Set("short_lived", []byte("v"), 10*time.Millisecond)
	assert.NoError(t, err)

	time.Sleep(30 * time.Millisecond)

	_, err = mc.Get("short_lived")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

// This test requires a running memcached instance
// If memcached is not available, the test will be skipped
func TestMemcacheService(t *testing.T) {
	mc := NewMemcacheService("localhost:11211")

	_, err := mc.client.Get("test")
	if err != nil && err != memcache.ErrCacheMiss {
		t.Skip("Memcached is not available, skipping test")
	}

	err = mc.Set("test_key", []byte("test_value"), 1*time.Second)
	assert.NoError(t, err)

	value, err := mc.Get("test_key")
	assert.NoError(t, err)
	assert.Equal(t, "test_value", string(value))

	err = mc.Delete("test_key")
	assert.NoError(t, err)

	_, err = mc.Get("test_key")
	assert.ErrorIs(t, err, ErrCacheMiss)

	// deleting an absent key is not an error
	assert.NoError(t, mc.Delete("never_set"))
}
