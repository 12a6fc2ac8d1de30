package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrNotAcquired = errors.New("slot lock not acquired")

// Locker guards a critical section per key. Callers that lose the race get ErrNotAcquired
// immediately instead of queueing behind the holder.
type Locker interface {
	WithSlotLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// SlotKey names the lock for one practitioner at one instant.
func SlotKey(practitionerID int64, at time.Time) string {
	return fmt.Sprintf("lock:slot:%d:%d", practitionerID, at.UTC().Unix())
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// localLocker is an in-process keyed mutex. Only valid when this process is the sole writer.
type localLocker struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func NewLocal() Locker {
	return &localLocker{entries: make(map[string]*entry)}
}

func (l *localLocker) WithSlotLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e := l.acquire(key)
	defer l.release(key, e)

	if !e.mu.TryLock() {
		return ErrNotAcquired
	}
	defer e.mu.Unlock()

	return fn(ctx)
}

func (l *localLocker) acquire(key string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		e = &entry{}
		l.entries[key] = e
	}
	e.refs++
	return e
}

func (l *localLocker) release(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

// size reports the number of live keys.
func (l *localLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
