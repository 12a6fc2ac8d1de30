package appointment

import (
	"context"
	"time"

	"github.com/hackgods/clinic-availability-engine/internal/apperror"
	"github.com/hackgods/clinic-availability-engine/internal/availability"
)

var (
	ErrAppointmentNotFound = apperror.New(apperror.NotFound, "appointment not found")
	ErrSlotTaken           = apperror.New(apperror.Conflict, "slot is already booked")
	ErrSlotBeingBooked     = apperror.New(apperror.Conflict, "slot is currently being booked, please retry")
	ErrInvalidPatient      = apperror.New(apperror.Validation, "patient id must be positive")
	ErrInvalidPractitioner = availability.ErrInvalidPractitioner
	ErrInvalidStatus       = apperror.New(apperror.Validation, "unknown appointment status")
	ErrIllegalTransition   = apperror.New(apperror.IllegalTransition, "illegal status transition")
	ErrAlreadyTerminal     = apperror.New(apperror.IllegalTransition, "appointment is already in a terminal state")
)

// Repository contains all DB interactions needed by the ledger.
type Repository interface {
	// Insert stores a new appointment and fills ID and timestamps.
	// A storage-level uniqueness collision is reported as ErrSlotTaken.
	Insert(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id int64) (*Appointment, error)

	// For conflict checks; ErrAppointmentNotFound when the slot is free.
	FindOccupying(ctx context.Context, practitionerID int64, at time.Time, statuses []Status) (*Appointment, error)

	// ListByPractitioner returns appointments with from <= At < to, ascending.
	ListByPractitioner(ctx context.Context, practitionerID int64, from, to time.Time) ([]Appointment, error)
	ListByPatient(ctx context.Context, patientID int64, limit, offset int) ([]Appointment, error)

	// UpdateStatus is a compare-and-set; ErrAppointmentNotFound when no row has id with status from.
	UpdateStatus(ctx context.Context, id int64, from, to Status) (*Appointment, error)
}
