package events

import (
	"encoding/json"
	"time"
)

const (
	EventAppointmentCreated       = "APPOINTMENT_CREATED"
	EventAppointmentStatusChanged = "APPOINTMENT_STATUS_CHANGED"
)

// Event is one row of the event_logs outbox.
type Event struct {
	ID            int64
	Type          string
	AppointmentID *int64
	Payload       json.RawMessage
	CreatedAt     time.Time
	DeliveredAt   *time.Time
}

type AppointmentCreated struct {
	AppointmentID  int64     `json:"appointmentId"`
	PatientID      int64     `json:"patientId"`
	PractitionerID int64     `json:"practitionerId"`
	At             time.Time `json:"at"`
	Status         string    `json:"status"`
}

type AppointmentStatusChanged struct {
	AppointmentID int64  `json:"appointmentId"`
	From          string `json:"from"`
	To            string `json:"to"`
}
