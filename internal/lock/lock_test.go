package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotKeyIsZoneIndependent(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	utc := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	local := utc.In(berlin)

	assert.Equal(t, SlotKey(4, utc), SlotKey(4, local))
	assert.NotEqual(t, SlotKey(4, utc), SlotKey(5, utc))
}

func TestLocalLockerExcludesSameKey(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	entered := make(chan struct{})
	leave := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- l.WithSlotLock(ctx, "k", func(context.Context) error {
			close(entered)
			<-leave
			return nil
		})
	}()
	<-entered

	err := l.WithSlotLock(ctx, "k", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrNotAcquired)

	// a different key is independent
	err = l.WithSlotLock(ctx, "other", func(context.Context) error { return nil })
	assert.NoError(t, err)

	close(leave)
	require.NoError(t, <-done)

	err = l.WithSlotLock(ctx, "k", func(context.Context) error { return nil })
	assert.NoError(t, err)
}

func TestLocalLockerConcurrentSingleWinner(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	const n = 50
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		inside   int
		maxInner int
		start    = make(chan struct{})
	)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_ = l.WithSlotLock(ctx, "same", func(context.Context) error {
				mu.Lock()
				inside++
				if inside > maxInner {
					maxInner = inside
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)

				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, maxInner)
	assert.Zero(t, l.(*localLocker).size())
}

func TestLocalLockerPropagatesError(t *testing.T) {
	l := NewLocal()
	boom := errors.New("boom")

	err := l.WithSlotLock(context.Background(), "k", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestLocalLockerCancelledContext(t *testing.T) {
	l := NewLocal()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := l.WithSlotLock(ctx, "k", func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
