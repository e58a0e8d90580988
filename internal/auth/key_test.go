package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/parla-ai/mapi-client/internal/auth"
)

func TestTemporaryKey_Valid(t *testing.T) {
	t.Parallel()

	tests := getKeyValidityTestCases()

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.key.Valid())
		})
	}
}

func getKeyValidityTestCases() []struct {
	name     string
	key      *auth.TemporaryKey
	expected bool
} {
	return []struct {
		name     string
		key      *auth.TemporaryKey
		expected bool
	}{
		{
			name:     "nil key",
			key:      nil,
			expected: false,
		},
		{
			name: "empty key value",
			key: &auth.TemporaryKey{
				Value: "",
			},
			expected: false,
		},
		{
			name: "valid key without expiry",
			key: &auth.TemporaryKey{
				Value: "test-key",
			},
			expected: true,
		},
		{
			name: "valid key with future expiry",
			key: &auth.TemporaryKey{
				Value:     "test-key",
				ExpiresAt: time.Now().Add(1 * time.Hour),
			},
			expected: true,
		},
		{
			name: "expired key",
			key: &auth.TemporaryKey{
				Value:     "test-key",
				ExpiresAt: time.Now().Add(-1 * time.Hour),
			},
			expected: false,
		},
		{
			name: "key expiring within buffer",
			key: &auth.TemporaryKey{
				Value:     "test-key",
				ExpiresAt: time.Now().Add(15 * time.Second),
			},
			expected: false, // Should be false due to 30 second buffer
		},
		{
			name: "key expiring just outside buffer",
			key: &auth.TemporaryKey{
				Value:     "test-key",
				ExpiresAt: time.Now().Add(35 * time.Second),
			},
			expected: true,
		},
	}
}

func TestKeyStore(t *testing.T) {
	t.Parallel()
	t.Run("new store is empty", testNewStoreEmpty)
	t.Run("set and get key", testSetAndGetKey)
	t.Run("clear key", testClearKey)
	t.Run("concurrent access", testConcurrentKeyAccess)
}

func testNewStoreEmpty(t *testing.T) {
	t.Parallel()

	store := auth.NewKeyStore()
	assert.Nil(t, store.Get())
}

func testSetAndGetKey(t *testing.T) {
	t.Parallel()

	store := auth.NewKeyStore()
	key := &auth.TemporaryKey{
		Value:     "test-key",
		ExpiresAt: time.Now().Add(time.Hour),
	}

	store.Set(key)
	retrieved := store.Get()
	assert.NotNil(t, retrieved)
	assert.Equal(t, key.Value, retrieved.Value)
	assert.Equal(t, key.ExpiresAt, retrieved.ExpiresAt)
}

func testClearKey(t *testing.T) {
	t.Parallel()

	store := auth.NewKeyStore()
	key := &auth.TemporaryKey{
		Value: "test-key",
	}

	store.Set(key)
	assert.NotNil(t, store.Get())

	store.Clear()
	assert.Nil(t, store.Get())
}

func testConcurrentKeyAccess(t *testing.T) {
	t.Parallel()

	store := auth.NewKeyStore()
	done := make(chan bool)

	// Start concurrent goroutines
	startKeySetters(store, done)
	startKeyGetters(store, done)

	// Wait for all goroutines
	for i := 0; i < 4; i++ {
		<-done
	}

	// Should not panic and should have a key
	finalKey := store.Get()
	assert.NotNil(t, finalKey)
	assert.True(t, finalKey.Value == "key-1" || finalKey.Value == "key-2")
}

func startKeySetters(store *auth.KeyStore, done chan bool) {
	// Multiple goroutines setting keys
	go func() {
		for i := 0; i < 100; i++ {
			store.Set(&auth.TemporaryKey{
				Value: "key-1",
			})
		}

		done <- true
	}()

	go func() {
		for i := 0; i < 100; i++ {
			store.Set(&auth.TemporaryKey{
				Value: "key-2",
			})
		}

		done <- true
	}()
}

func startKeyGetters(store *auth.KeyStore, done chan bool) {
	// Multiple goroutines getting keys
	go func() {
		for i := 0; i < 100; i++ {
			_ = store.Get()
		}

		done <- true
	}()

	go func() {
		for i := 0; i < 100; i++ {
			_ = store.Get()
		}

		done <- true
	}()
}
