package events

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
)

// Recorder appends events to the outbox. Failures are logged and swallowed: the appointment
// change they describe has already been committed.
type Recorder struct {
	store  Store
	logger zerolog.Logger
}

func NewRecorder(store Store, logger zerolog.Logger) *Recorder {
	return &Recorder{store: store, logger: logger}
}

func (r *Recorder) Record(ctx context.Context, appointmentID int64, eventType string, payload any) {
	if r == nil || r.store == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		r.logger.Error().Err(err).Str("event_type", eventType).Msg("failed to marshal event payload")
		data = nil
	}

	id := appointmentID
	ev := &Event{
		Type:          eventType,
		AppointmentID: &id,
		Payload:       data,
	}

	if err := r.store.Insert(ctx, ev); err != nil {
		r.logger.Error().
			Err(err).
			Str("event_type", eventType).
			Int64("appointment_id", appointmentID).
			Msg("failed to insert event log")
	}
}
