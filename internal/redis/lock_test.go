package redisclient

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-availability-engine/internal/lock"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client, err := NewRedisClient(context.Background(), mr.Addr(), "", "")
	require.NoError(t, err)

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return mr, client
}

func TestRedisSlotLockerReleasesKey(t *testing.T) {
	mr, client := setupTestRedis(t)
	locker := NewRedisSlotLocker(client, 5*time.Second)
	key := lock.SlotKey(3, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))

	err := locker.WithSlotLock(context.Background(), key, func(ctx context.Context) error {
		assert.True(t, mr.Exists(key))
		return nil
	})
	require.NoError(t, err)
	assert.False(t, mr.Exists(key))
}

func TestRedisSlotLockerHeldKeyFailsFast(t *testing.T) {
	mr, client := setupTestRedis(t)
	locker := NewRedisSlotLocker(client, 5*time.Second)
	key := lock.SlotKey(3, time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))

	require.NoError(t, mr.Set(key, "someone-else"))

	called := false
	err := locker.WithSlotLock(context.Background(), key, func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, lock.ErrNotAcquired)
	assert.False(t, called)

	// a foreign token must survive our release attempt
	got, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}

func TestRedisSlotLockerPropagatesError(t *testing.T) {
	mr, client := setupTestRedis(t)
	locker := NewRedisSlotLocker(client, 5*time.Second)
	boom := errors.New("boom")

	err := locker.WithSlotLock(context.Background(), "lock:slot:1:1", func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("lock:slot:1:1"))
}

func TestRedisSlotLockerSingleWinner(t *testing.T) {
	_, client := setupTestRedis(t)
	locker := NewRedisSlotLocker(client, 5*time.Second)

	const n = 20
	var (
		wg      sync.WaitGroup
		winners int32
		release = make(chan struct{})
		start   = make(chan struct{})
	)

	results := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			results <- locker.WithSlotLock(context.Background(), "lock:slot:9:9", func(ctx context.Context) error {
				atomic.AddInt32(&winners, 1)
				<-release
				return nil
			})
		}()
	}
	close(start)

	// losers return immediately; wait for them before letting the winner go
	for i := 0; i < n-1; i++ {
		assert.ErrorIs(t, <-results, lock.ErrNotAcquired)
	}
	close(release)
	wg.Wait()
	assert.NoError(t, <-results)
	assert.Equal(t, int32(1), atomic.LoadInt32(&winners))
}
