package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hackgods/clinic-availability-engine/internal/lock"
)

var tracer = otel.Tracer("clinic.internal.appointment")

// SlotValidator re-checks, at reservation time, that an instant is a real slot of the
// practitioner's current availability.
type SlotValidator interface {
	ValidateSlot(ctx context.Context, practitionerID int64, at time.Time) error
}

// Ledger is the authoritative appointment store. Reserve is the only way a slot becomes occupied.
type Ledger struct {
	repo      Repository
	locker    lock.Locker
	validator SlotValidator
	policy    OccupancyPolicy
	logger    zerolog.Logger
}

func NewLedger(repo Repository, locker lock.Locker, validator SlotValidator, policy OccupancyPolicy, logger zerolog.Logger) *Ledger {
	return &Ledger{
		repo:      repo,
		locker:    locker,
		validator: validator,
		policy:    policy,
		logger:    logger,
	}
}

func (l *Ledger) Policy() OccupancyPolicy {
	return l.policy
}

// Reserve books (practitionerID, at) for the patient. The occupancy check and the insert run
// under the per-slot lock, so concurrent calls for one slot yield exactly one appointment.
func (l *Ledger) Reserve(ctx context.Context, patientID, practitionerID int64, at time.Time) (*Appointment, error) {
	ctx, span := tracer.Start(ctx, "ledger.reserve")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("clinic.practitioner_id", practitionerID),
		attribute.Int64("clinic.patient_id", patientID),
		attribute.String("clinic.slot", at.UTC().Format(time.RFC3339)),
	)

	if patientID <= 0 {
		return nil, ErrInvalidPatient
	}
	if practitionerID <= 0 {
		return nil, ErrInvalidPractitioner
	}

	var created *Appointment

	err := l.locker.WithSlotLock(ctx, lock.SlotKey(practitionerID, at), func(lockCtx context.Context) error {
		// availability may have changed since the caller resolved slots
		if err := l.validator.ValidateSlot(lockCtx, practitionerID, at); err != nil {
			return err
		}

		existing, err := l.repo.FindOccupying(lockCtx, practitionerID, at, l.policy.OccupyingStatuses())
		if err != nil && !errors.Is(err, ErrAppointmentNotFound) {
			return fmt.Errorf("check occupying appointment: %w", err)
		}
		if existing != nil {
			return ErrSlotTaken
		}

		appt := &Appointment{
			PatientID:      patientID,
			PractitionerID: practitionerID,
			At:             at,
			Status:         StatusScheduled,
		}
		if err := l.repo.Insert(lockCtx, appt); err != nil {
			if errors.Is(err, ErrSlotTaken) {
				return err
			}
			return fmt.Errorf("insert appointment: %w", err)
		}

		created = appt
		return nil
	})

	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			err = ErrSlotBeingBooked
		}
		span.RecordError(err)
		return nil, err
	}

	l.logger.Debug().
		Int64("appointment_id", created.ID).
		Int64("practitioner_id", practitionerID).
		Time("at", created.At).
		Msg("slot reserved")

	return created, nil
}

// CancelReservation moves a scheduled appointment to cancelled, which frees the slot under the
// release policy.
func (l *Ledger) CancelReservation(ctx context.Context, id int64) (*Appointment, error) {
	return l.SetStatus(ctx, id, StatusScheduled, StatusCancelled)
}

// SetStatus persists from -> to as a compare-and-set. Losing the race to another writer is
// reported as ErrAlreadyTerminal, since every status other than scheduled is terminal.
func (l *Ledger) SetStatus(ctx context.Context, id int64, from, to Status) (*Appointment, error) {
	current, err := l.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != from {
		if current.Status.Terminal() {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyTerminal, current.Status)
		}
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, current.Status, to)
	}

	updated, err := l.repo.UpdateStatus(ctx, id, from, to)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, ErrAppointmentNotFound) {
		return nil, err
	}

	reloaded, getErr := l.repo.GetByID(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	return nil, fmt.Errorf("%w: %s", ErrAlreadyTerminal, reloaded.Status)
}

func (l *Ledger) Get(ctx context.Context, id int64) (*Appointment, error) {
	return l.repo.GetByID(ctx, id)
}

// ListBetween returns the practitioner's appointments with from <= At < to.
func (l *Ledger) ListBetween(ctx context.Context, practitionerID int64, from, to time.Time) ([]Appointment, error) {
	return l.repo.ListByPractitioner(ctx, practitionerID, from, to)
}

func (l *Ledger) ListByPatient(ctx context.Context, patientID int64, limit, offset int) ([]Appointment, error) {
	if limit <= 0 {
		limit = 20 // default
	}
	if limit > 100 {
		limit = 100 // max
	}
	if offset < 0 {
		offset = 0
	}
	return l.repo.ListByPatient(ctx, patientID, limit, offset)
}
