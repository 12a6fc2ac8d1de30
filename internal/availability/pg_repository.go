package availability

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hackgods/clinic-availability-engine/internal/db"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var windowColumns = []string{
	"id", "practitioner_id", "day_of_week", "start_time::text", "end_time::text", "created_at", "updated_at",
}

type PgRepository struct {
	db db.DBTX
}

func NewPgRepository(conn db.DBTX) *PgRepository {
	if conn == nil {
		panic("availability: pgx pool required")
	}
	return &PgRepository{db: conn}
}

func scanWindow(row pgx.Row) (*Window, error) {
	var (
		w          Window
		day        int16
		start, end string
	)

	err := row.Scan(&w.ID, &w.PractitionerID, &day, &start, &end, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWindowNotFound
		}
		return nil, err
	}

	w.Day = Weekday(day)
	if w.Start, err = ParseClock(start); err != nil {
		return nil, fmt.Errorf("window %d start: %w", w.ID, err)
	}
	if w.End, err = ParseClock(end); err != nil {
		return nil, fmt.Errorf("window %d end: %w", w.ID, err)
	}
	return &w, nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return ErrDuplicateWindow
		case pgerrcode.CheckViolation:
			return ErrInvalidRange
		}
	}
	return err
}

func (r *PgRepository) Create(ctx context.Context, w *Window) error {
	query, args, err := psql.Insert("availability_windows").
		Columns("practitioner_id", "day_of_week", "start_time", "end_time").
		Values(w.PractitionerID, int16(w.Day),
			squirrel.Expr("?::time", w.Start.String()),
			squirrel.Expr("?::time", w.End.String())).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create window query: %w", err)
	}

	if err := r.db.QueryRow(ctx, query, args...).Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt); err != nil {
		if mapped := mapWriteError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("create window: %w", err)
	}
	return nil
}

func (r *PgRepository) GetByID(ctx context.Context, id int64) (*Window, error) {
	query, args, err := psql.Select(windowColumns...).
		From("availability_windows").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get window query: %w", err)
	}

	w, err := scanWindow(r.db.QueryRow(ctx, query, args...))
	if err != nil && !errors.Is(err, ErrWindowNotFound) {
		return nil, fmt.Errorf("get window: %w", err)
	}
	return w, err
}

func (r *PgRepository) Update(ctx context.Context, w *Window) error {
	query, args, err := psql.Update("availability_windows").
		Set("day_of_week", int16(w.Day)).
		Set("start_time", squirrel.Expr("?::time", w.Start.String())).
		Set("end_time", squirrel.Expr("?::time", w.End.String())).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": w.ID}).
		Suffix("RETURNING practitioner_id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update window query: %w", err)
	}

	err = r.db.QueryRow(ctx, query, args...).Scan(&w.PractitionerID, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrWindowNotFound
		}
		if mapped := mapWriteError(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("update window: %w", err)
	}
	return nil
}

func (r *PgRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := psql.Delete("availability_windows").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete window query: %w", err)
	}

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete window: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrWindowNotFound
	}
	return nil
}

func (r *PgRepository) ListByPractitioner(ctx context.Context, practitionerID int64) ([]Window, error) {
	query, args, err := psql.Select(windowColumns...).
		From("availability_windows").
		Where(squirrel.Eq{"practitioner_id": practitionerID}).
		OrderBy("day_of_week", "start_time", "end_time", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list windows query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list windows: %w", err)
	}
	defer rows.Close()

	var result []Window
	for rows.Next() {
		w, err := scanWindow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan window: %w", err)
		}
		result = append(result, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list windows: %w", err)
	}
	return result, nil
}
