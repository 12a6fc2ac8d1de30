package availability

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *PgRepository) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewPgRepository(mock)
}

func TestPgCreateWindow(t *testing.T) {
	mock, repo := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery("INSERT INTO availability_windows").
		WithArgs(int64(7), int16(Monday), "09:00", "10:00").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(12), now, now))

	w := &Window{PractitionerID: 7, Day: Monday, Start: NewClock(9, 0), End: NewClock(10, 0)}
	require.NoError(t, repo.Create(context.Background(), w))
	assert.Equal(t, int64(12), w.ID)
	assert.Equal(t, now, w.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgCreateWindowUniqueViolation(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery("INSERT INTO availability_windows").
		WithArgs(int64(7), int16(Monday), "09:00", "10:00").
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

	w := &Window{PractitionerID: 7, Day: Monday, Start: NewClock(9, 0), End: NewClock(10, 0)}
	err := repo.Create(context.Background(), w)
	assert.ErrorIs(t, err, ErrDuplicateWindow)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgListWindows(t *testing.T) {
	mock, repo := newMockRepo(t)
	now := time.Now().UTC()

	rows := pgxmock.NewRows([]string{"id", "practitioner_id", "day_of_week", "start_time", "end_time", "created_at", "updated_at"}).
		AddRow(int64(1), int64(7), int16(1), "09:00:00", "10:00:00", now, now).
		AddRow(int64(2), int64(7), int16(1), "09:30:00", "24:00:00", now, now)
	mock.ExpectQuery("SELECT (.+) FROM availability_windows").
		WithArgs(int64(7)).
		WillReturnRows(rows)

	windows, err := repo.ListByPractitioner(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, windows, 2)
	assert.Equal(t, Monday, windows[0].Day)
	assert.Equal(t, NewClock(9, 30), windows[1].Start)
	assert.Equal(t, EndOfDay, windows[1].End)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgGetWindowNotFound(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM availability_windows").
		WithArgs(int64(404)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "practitioner_id", "day_of_week", "start_time", "end_time", "created_at", "updated_at"}))

	_, err := repo.GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, ErrWindowNotFound)
}

func TestPgDeleteWindow(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectExec("DELETE FROM availability_windows").
		WithArgs(int64(3)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM availability_windows").
		WithArgs(int64(3)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, repo.Delete(context.Background(), 3))
	assert.ErrorIs(t, repo.Delete(context.Background(), 3), ErrWindowNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
