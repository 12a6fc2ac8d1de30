package appointment

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
)

// transitions is the full table of legal moves. Terminal statuses have no entry.
var transitions = map[Status][]Status{
	StatusScheduled: {StatusCompleted, StatusCancelled, StatusNoShow},
}

// CanTransition reports whether from -> to appears in the transition table.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// StateMachine applies legal status changes to existing appointments.
type StateMachine struct {
	ledger *Ledger
}

func NewStateMachine(ledger *Ledger) *StateMachine {
	return &StateMachine{ledger: ledger}
}

// Transition moves the appointment to target. Requests from a terminal status, or to a status
// not reachable from the current one, fail with an IllegalTransition error.
func (m *StateMachine) Transition(ctx context.Context, id int64, target Status) (*Appointment, error) {
	updated, _, err := m.Apply(ctx, id, target)
	return updated, err
}

// Apply is Transition that also reports the status the appointment left.
func (m *StateMachine) Apply(ctx context.Context, id int64, target Status) (*Appointment, Status, error) {
	ctx, span := tracer.Start(ctx, "statemachine.transition")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("clinic.appointment_id", id),
		attribute.String("clinic.target_status", string(target)),
	)

	if !target.Valid() {
		return nil, "", fmt.Errorf("%w: %q", ErrInvalidStatus, target)
	}

	current, err := m.ledger.Get(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, "", err
	}

	if !CanTransition(current.Status, target) {
		err := fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, current.Status, target)
		span.RecordError(err)
		return nil, "", err
	}

	var updated *Appointment
	if target == StatusCancelled {
		updated, err = m.ledger.CancelReservation(ctx, id)
	} else {
		updated, err = m.ledger.SetStatus(ctx, id, current.Status, target)
	}
	if err != nil {
		if errors.Is(err, ErrAlreadyTerminal) {
			err = fmt.Errorf("%w: %v", ErrIllegalTransition, err)
		}
		span.RecordError(err)
		return nil, "", err
	}

	return updated, current.Status, nil
}
