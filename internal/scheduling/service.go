package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hackgods/clinic-availability-engine/internal/appointment"
	"github.com/hackgods/clinic-availability-engine/internal/apperror"
	"github.com/hackgods/clinic-availability-engine/internal/availability"
	"github.com/hackgods/clinic-availability-engine/internal/events"
	"github.com/hackgods/clinic-availability-engine/internal/observability/metrics"
	"github.com/hackgods/clinic-availability-engine/internal/slots"
)

var tracer = otel.Tracer("clinic.internal.scheduling")

// Service is the entry point for booking and status changes.
type Service struct {
	windows  *availability.Store
	resolver *slots.Resolver
	ledger   *appointment.Ledger
	machine  *appointment.StateMachine
	recorder *events.Recorder
	metrics  *metrics.SchedulingMetrics
	logger   zerolog.Logger
}

// NewService wires the service. recorder and m may be nil.
func NewService(
	windows *availability.Store,
	resolver *slots.Resolver,
	ledger *appointment.Ledger,
	recorder *events.Recorder,
	m *metrics.SchedulingMetrics,
	logger zerolog.Logger,
) *Service {
	return &Service{
		windows:  windows,
		resolver: resolver,
		ledger:   ledger,
		machine:  appointment.NewStateMachine(ledger),
		recorder: recorder,
		metrics:  m,
		logger:   logger,
	}
}

func (s *Service) Resolver() *slots.Resolver {
	return s.resolver
}

// ResolveSlots lists the practitioner's slots on date with their current availability.
func (s *Service) ResolveSlots(ctx context.Context, practitionerID int64, date time.Time) ([]slots.Slot, error) {
	ctx, span := tracer.Start(ctx, "scheduling.resolve_slots")
	defer span.End()
	span.SetAttributes(attribute.Int64("clinic.practitioner_id", practitionerID))

	if practitionerID <= 0 {
		return nil, availability.ErrInvalidPractitioner
	}

	start := time.Now()
	defer func() { s.metrics.ObserveResolve(time.Since(start).Seconds()) }()

	windows, err := s.windows.ListWindows(ctx, practitionerID)
	if err != nil {
		return nil, err
	}

	from, to := s.resolver.DayBounds(date)
	existing, err := s.ledger.ListBetween(ctx, practitionerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list appointments for day: %w", err)
	}

	return s.resolver.ResolveSlots(practitionerID, from, windows, existing), nil
}

// RequestBooking books at for the patient if it is one of the practitioner's open slots.
// A slot that is already taken at check time gives appointment.ErrSlotTaken; losing the race
// inside the ledger surfaces the ledger's own conflict error.
func (s *Service) RequestBooking(ctx context.Context, patientID, practitionerID int64, at time.Time) (*appointment.Appointment, error) {
	ctx, span := tracer.Start(ctx, "scheduling.request_booking")
	defer span.End()

	appt, err := s.requestBooking(ctx, patientID, practitionerID, at)
	s.metrics.ObserveBooking(outcome(err, "created"))
	if err != nil {
		span.RecordError(err)
		s.logger.Debug().
			Err(err).
			Int64("patient_id", patientID).
			Int64("practitioner_id", practitionerID).
			Time("at", at).
			Msg("booking rejected")
		return nil, err
	}

	s.recorder.Record(ctx, appt.ID, events.EventAppointmentCreated, events.AppointmentCreated{
		AppointmentID:  appt.ID,
		PatientID:      appt.PatientID,
		PractitionerID: appt.PractitionerID,
		At:             appt.At,
		Status:         string(appt.Status),
	})

	s.logger.Info().
		Int64("appointment_id", appt.ID).
		Int64("patient_id", patientID).
		Int64("practitioner_id", practitionerID).
		Time("at", appt.At).
		Msg("appointment booked")

	return appt, nil
}

func (s *Service) requestBooking(ctx context.Context, patientID, practitionerID int64, at time.Time) (*appointment.Appointment, error) {
	if patientID <= 0 {
		return nil, appointment.ErrInvalidPatient
	}
	if practitionerID <= 0 {
		return nil, availability.ErrInvalidPractitioner
	}

	windows, err := s.windows.ListWindows(ctx, practitionerID)
	if err != nil {
		return nil, err
	}
	if err := s.resolver.CheckSlot(at, windows); err != nil {
		return nil, err
	}

	from, to := s.resolver.DayBounds(at)
	existing, err := s.ledger.ListBetween(ctx, practitionerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list appointments for day: %w", err)
	}
	for _, slot := range s.resolver.ResolveSlots(practitionerID, from, windows, existing) {
		if slot.At.Equal(at) && !slot.Available {
			return nil, appointment.ErrSlotTaken
		}
	}

	return s.ledger.Reserve(ctx, patientID, practitionerID, at)
}

// ChangeStatus moves an appointment to target through the state machine.
func (s *Service) ChangeStatus(ctx context.Context, id int64, target appointment.Status) (*appointment.Appointment, error) {
	ctx, span := tracer.Start(ctx, "scheduling.change_status")
	defer span.End()

	updated, from, err := s.machine.Apply(ctx, id, target)
	s.metrics.ObserveTransition(string(target), outcome(err, "ok"))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.recorder.Record(ctx, updated.ID, events.EventAppointmentStatusChanged, events.AppointmentStatusChanged{
		AppointmentID: updated.ID,
		From:          string(from),
		To:            string(updated.Status),
	})

	s.logger.Info().
		Int64("appointment_id", updated.ID).
		Str("from", string(from)).
		Str("to", string(updated.Status)).
		Msg("appointment status changed")

	return updated, nil
}

func (s *Service) GetAppointment(ctx context.Context, id int64) (*appointment.Appointment, error) {
	return s.ledger.Get(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID int64, limit, offset int) ([]appointment.Appointment, error) {
	if patientID <= 0 {
		return nil, appointment.ErrInvalidPatient
	}
	return s.ledger.ListByPatient(ctx, patientID, limit, offset)
}

// ListForPractitionerOn returns the practitioner's appointments on the calendar day of date.
func (s *Service) ListForPractitionerOn(ctx context.Context, practitionerID int64, date time.Time) ([]appointment.Appointment, error) {
	if practitionerID <= 0 {
		return nil, availability.ErrInvalidPractitioner
	}
	from, to := s.resolver.DayBounds(date)
	return s.ledger.ListBetween(ctx, practitionerID, from, to)
}

// outcome labels a result for metrics.
func outcome(err error, success string) string {
	if err == nil {
		return success
	}
	if kind, ok := apperror.KindOf(err); ok {
		return string(kind)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "cancelled"
	}
	return "error"
}
