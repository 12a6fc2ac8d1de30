package redisclient

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-availability-engine/internal/events"
	"github.com/hackgods/clinic-availability-engine/pkg/logging"
)

func TestStreamPublisherAppends(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()
	pub := NewStreamPublisher(client, "clinic:events")

	apptID := int64(12)
	payload, err := json.Marshal(events.AppointmentStatusChanged{AppointmentID: 12, From: "scheduled", To: "completed"})
	require.NoError(t, err)

	err = pub.Publish(ctx, events.Event{
		ID:            3,
		Type:          events.EventAppointmentStatusChanged,
		AppointmentID: &apptID,
		Payload:       payload,
		CreatedAt:     time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	msgs, err := client.XRange(ctx, "clinic:events", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "APPOINTMENT_STATUS_CHANGED", msgs[0].Values["event_type"])
	assert.Equal(t, "12", msgs[0].Values["appointment_id"])
	assert.JSONEq(t, `{"appointmentId":12,"from":"scheduled","to":"completed"}`, msgs[0].Values["payload"].(string))
}

func TestRelayDrainsIntoStream(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	store := events.NewMemoryStore()
	rec := events.NewRecorder(store, logging.Nop())
	rec.Record(ctx, 1, events.EventAppointmentCreated, events.AppointmentCreated{AppointmentID: 1, PatientID: 4, PractitionerID: 7})
	rec.Record(ctx, 1, events.EventAppointmentStatusChanged, events.AppointmentStatusChanged{AppointmentID: 1, From: "scheduled", To: "cancelled"})

	relay := events.NewRelay(store, NewStreamPublisher(client, "clinic:events"), logging.Nop())
	n, err := relay.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	msgs, err := client.XRange(ctx, "clinic:events", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "APPOINTMENT_CREATED", msgs[0].Values["event_type"])

	n, err = relay.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
