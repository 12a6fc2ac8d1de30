package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hackgods/clinic-availability-engine/internal/db"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var appointmentColumns = []string{
	"id", "patient_id", "practitioner_id", "appointment_at", "status", "created_at", "updated_at",
}

type PgRepository struct {
	db db.DBTX
}

func NewPgRepository(conn db.DBTX) *PgRepository {
	if conn == nil {
		panic("appointment: pgx pool required")
	}
	return &PgRepository{db: conn}
}

// Helpers

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var (
		a      Appointment
		status string
	)

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.PractitionerID,
		&a.At,
		&status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.Status = Status(status)
	return &a, nil
}

func statusStrings(statuses []Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func (r *PgRepository) queryList(ctx context.Context, q squirrel.SelectBuilder, what string) ([]Appointment, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", what, err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}

	return result, nil
}

// Interface methods

func (r *PgRepository) Insert(ctx context.Context, a *Appointment) error {
	query, args, err := psql.Insert("appointments").
		Columns("patient_id", "practitioner_id", "appointment_at", "status").
		Values(a.PatientID, a.PractitionerID, a.At.UTC(), string(a.Status)).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert appointment query: %w", err)
	}

	err = r.db.QueryRow(ctx, query, args...).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrSlotTaken
		}
		return fmt.Errorf("insert appointment: %w", err)
	}

	a.At = a.At.UTC()
	return nil
}

func (r *PgRepository) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	query, args, err := psql.Select(appointmentColumns...).
		From("appointments").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get appointment query: %w", err)
	}

	a, err := scanAppointment(r.db.QueryRow(ctx, query, args...))
	if err != nil && !errors.Is(err, ErrAppointmentNotFound) {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return a, err
}

func (r *PgRepository) FindOccupying(ctx context.Context, practitionerID int64, at time.Time, statuses []Status) (*Appointment, error) {
	query, args, err := psql.Select(appointmentColumns...).
		From("appointments").
		Where(squirrel.Eq{"practitioner_id": practitionerID}).
		Where(squirrel.Eq{"appointment_at": at.UTC()}).
		Where(squirrel.Eq{"status": statusStrings(statuses)}).
		OrderBy("id").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build occupying appointment query: %w", err)
	}

	a, err := scanAppointment(r.db.QueryRow(ctx, query, args...))
	if err != nil && !errors.Is(err, ErrAppointmentNotFound) {
		return nil, fmt.Errorf("check occupying appointment: %w", err)
	}
	return a, err
}

func (r *PgRepository) ListByPractitioner(ctx context.Context, practitionerID int64, from, to time.Time) ([]Appointment, error) {
	q := psql.Select(appointmentColumns...).
		From("appointments").
		Where(squirrel.Eq{"practitioner_id": practitionerID}).
		Where(squirrel.GtOrEq{"appointment_at": from.UTC()}).
		Where(squirrel.Lt{"appointment_at": to.UTC()}).
		OrderBy("appointment_at", "id")

	return r.queryList(ctx, q, "list appointments by practitioner")
}

func (r *PgRepository) ListByPatient(ctx context.Context, patientID int64, limit, offset int) ([]Appointment, error) {
	q := psql.Select(appointmentColumns...).
		From("appointments").
		Where(squirrel.Eq{"patient_id": patientID}).
		OrderBy("appointment_at DESC", "id DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))

	return r.queryList(ctx, q, "list appointments by patient")
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id int64, from, to Status) (*Appointment, error) {
	query, args, err := psql.Update("appointments").
		Set("status", string(to)).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"status": string(from)}).
		Suffix("RETURNING id, patient_id, practitioner_id, appointment_at, status, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update status query: %w", err)
	}

	a, err := scanAppointment(r.db.QueryRow(ctx, query, args...))
	if err != nil && !errors.Is(err, ErrAppointmentNotFound) {
		return nil, fmt.Errorf("update appointment status: %w", err)
	}
	return a, err
}
