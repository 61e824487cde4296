package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// This test requires a running memcached instance
// If memcached is not available, the test will be skipped
func TestMemcacheService(t *testing.T) {
	mc := NewMemcacheService("localhost:11211")

	if err := mc.Ping(); err != nil {
		t.Skip("Memcached is not available, skipping test")
	}

	key := "steam_rate_limited:test.example.com"

	// Set a value
	err := mc.Set(key, []byte("300"), 2*time.Second)
	assert.NoError(t, err)

	// Get the value
	value, err := mc.Get(key)
	assert.NoError(t, err)
	assert.Equal(t, "300", string(value))

	// Delete the value
	assert.NoError(t, mc.Delete(key))

	// Try to get the deleted value
	_, err = mc.Get(key)
	assert.Error(t, err)

	// Deleting again is fine
	assert.NoError(t, mc.Delete(key))
}
