package availability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-availability-engine/internal/apperror"
)

func newTestStore() *Store {
	return NewStore(NewMemoryRepository())
}

func TestAddWindow(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	w, err := store.AddWindow(ctx, 7, Monday, NewClock(9, 0), NewClock(10, 0))
	require.NoError(t, err)
	assert.NotZero(t, w.ID)
	assert.Equal(t, int64(7), w.PractitionerID)
	assert.False(t, w.CreatedAt.IsZero())

	_, err = store.AddWindow(ctx, 7, Monday, NewClock(10, 0), NewClock(10, 0))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = store.AddWindow(ctx, 7, Monday, NewClock(11, 0), NewClock(10, 0))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestAddWindowRejectsExactDuplicateButAllowsOverlap(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	_, err := store.AddWindow(ctx, 7, Monday, NewClock(9, 0), NewClock(10, 0))
	require.NoError(t, err)

	_, err = store.AddWindow(ctx, 7, Monday, NewClock(9, 0), NewClock(10, 0))
	assert.ErrorIs(t, err, ErrDuplicateWindow)
	assert.True(t, apperror.Is(err, apperror.Conflict))

	_, err = store.AddWindow(ctx, 7, Monday, NewClock(9, 30), NewClock(10, 30))
	assert.NoError(t, err)

	// same range for another practitioner is fine
	_, err = store.AddWindow(ctx, 8, Monday, NewClock(9, 0), NewClock(10, 0))
	assert.NoError(t, err)
}

func TestUpdateWindow(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	w, err := store.AddWindow(ctx, 7, Monday, NewClock(9, 0), NewClock(10, 0))
	require.NoError(t, err)

	updated, err := store.UpdateWindow(ctx, w.ID, Tuesday, NewClock(13, 0), NewClock(17, 0))
	require.NoError(t, err)
	assert.Equal(t, Tuesday, updated.Day)
	assert.Equal(t, int64(7), updated.PractitionerID)

	got, err := store.GetWindow(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, NewClock(13, 0), got.Start)
	assert.Equal(t, NewClock(17, 0), got.End)

	_, err = store.UpdateWindow(ctx, w.ID, Tuesday, NewClock(17, 0), NewClock(13, 0))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = store.UpdateWindow(ctx, 999, Tuesday, NewClock(13, 0), NewClock(17, 0))
	assert.ErrorIs(t, err, ErrWindowNotFound)
	assert.True(t, apperror.Is(err, apperror.NotFound))
}

func TestUpdateWindowOntoExistingRange(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	_, err := store.AddWindow(ctx, 7, Monday, NewClock(9, 0), NewClock(10, 0))
	require.NoError(t, err)
	other, err := store.AddWindow(ctx, 7, Monday, NewClock(14, 0), NewClock(15, 0))
	require.NoError(t, err)

	_, err = store.UpdateWindow(ctx, other.ID, Monday, NewClock(9, 0), NewClock(10, 0))
	assert.ErrorIs(t, err, ErrDuplicateWindow)

	// updating a window to its own range is not a collision
	_, err = store.UpdateWindow(ctx, other.ID, Monday, NewClock(14, 0), NewClock(15, 0))
	assert.NoError(t, err)
}

func TestRemoveWindow(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	w, err := store.AddWindow(ctx, 7, Monday, NewClock(9, 0), NewClock(10, 0))
	require.NoError(t, err)

	require.NoError(t, store.RemoveWindow(ctx, w.ID))
	assert.ErrorIs(t, store.RemoveWindow(ctx, w.ID), ErrWindowNotFound)

	windows, err := store.ListWindows(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, windows)
}

func TestListWindowsOrdering(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()

	add := func(day Weekday, sh, sm, eh, em int) {
		_, err := store.AddWindow(ctx, 7, day, NewClock(sh, sm), NewClock(eh, em))
		require.NoError(t, err)
	}
	add(Wednesday, 8, 0, 9, 0)
	add(Monday, 13, 0, 14, 0)
	add(Monday, 9, 0, 12, 0)
	add(Monday, 9, 0, 10, 0)
	add(Sunday, 18, 0, 20, 0)
	_, err := store.AddWindow(ctx, 8, Monday, NewClock(6, 0), NewClock(7, 0))
	require.NoError(t, err)

	windows, err := store.ListWindows(ctx, 7)
	require.NoError(t, err)
	require.Len(t, windows, 5)

	var got []string
	for _, w := range windows {
		got = append(got, w.Day.String()+" "+w.Start.String()+"-"+w.End.String())
	}
	assert.Equal(t, []string{
		"sunday 18:00-20:00",
		"monday 09:00-10:00",
		"monday 09:00-12:00",
		"monday 13:00-14:00",
		"wednesday 08:00-09:00",
	}, got)

	_, err = store.ListWindows(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidPractitioner)
}
