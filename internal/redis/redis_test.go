package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLocker(t *testing.T) *ChildLocker {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDRESS")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDRESS not set")
	}
	client := NewClient(addr, "", "")
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())
	return NewChildLocker(client, 5*time.Second)
}

func TestChildLocker_Exclusive(t *testing.T) {
	l := testLocker(t)
	ctx := context.Background()
	key := "kidcurate:test:" + uuid.NewString()

	unlock, ok, err := l.TryLock(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.TryLock(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok, "second caller must not get the lock")

	unlock()
	unlock2, ok, err := l.TryLock(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	unlock2()
}

func TestChildLocker_StaleUnlockKeepsNewHolder(t *testing.T) {
	l := testLocker(t)
	ctx := context.Background()
	key := "kidcurate:test:" + uuid.NewString()

	unlock, ok, err := l.TryLock(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)

	// simulate expiry and a new holder
	require.NoError(t, l.client.Del(ctx, key).Err())
	unlock2, ok, err := l.TryLock(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)

	unlock()
	_, ok, err = l.TryLock(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok, "releasing an expired token must not free the new holder's lock")
	unlock2()
}

func TestNewChildLocker_DefaultTTL(t *testing.T) {
	l := NewChildLocker(NewClient("localhost:0", "", ""), 0)
	assert.Equal(t, 30*time.Second, l.ttl)
}
