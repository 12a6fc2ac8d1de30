package api

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/hackgods/clinic-availability-engine/internal/appointment"
	"github.com/hackgods/clinic-availability-engine/internal/availability"
	"github.com/hackgods/clinic-availability-engine/internal/slots"
)

type CreateAppointmentRequest struct {
	PatientID      int64  `json:"patientId"`
	PractitionerID int64  `json:"practitionerId"`
	Timestamp      string `json:"timestamp"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type AppointmentResponse struct {
	ID             int64     `json:"id"`
	PatientID      int64     `json:"patientId"`
	PractitionerID int64     `json:"practitionerId"`
	Timestamp      time.Time `json:"timestamp"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
}

type SlotResponse struct {
	Time      string    `json:"time"`
	Timestamp time.Time `json:"timestamp"`
	Available bool      `json:"available"`
}

type SlotsResponse struct {
	PractitionerID int64          `json:"practitionerId"`
	Date           string         `json:"date"`
	Slots          []SlotResponse `json:"slots"`
}

// WeekdayParam accepts "monday", "mon" or 1.
type WeekdayParam string

func (p *WeekdayParam) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = WeekdayParam(s)
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*p = WeekdayParam(strconv.Itoa(n))
	return nil
}

type WindowRequest struct {
	PractitionerID int64        `json:"practitionerId"`
	DayOfWeek      WeekdayParam `json:"dayOfWeek"`
	StartTime      string       `json:"startTime"`
	EndTime        string       `json:"endTime"`
}

type WindowResponse struct {
	ID             int64  `json:"id"`
	PractitionerID int64  `json:"practitionerId"`
	DayOfWeek      string `json:"dayOfWeek"`
	StartTime      string `json:"startTime"`
	EndTime        string `json:"endTime"`
}

type WindowListResponse struct {
	PractitionerID int64            `json:"practitionerId"`
	Windows        []WindowResponse `json:"windows"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func toAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:             a.ID,
		PatientID:      a.PatientID,
		PractitionerID: a.PractitionerID,
		Timestamp:      a.At.UTC(),
		Status:         string(a.Status),
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func toAppointmentList(list []appointment.Appointment) AppointmentListResponse {
	out := AppointmentListResponse{Appointments: make([]AppointmentResponse, 0, len(list))}
	for i := range list {
		out.Appointments = append(out.Appointments, toAppointmentResponse(&list[i]))
	}
	return out
}

func toSlotsResponse(practitionerID int64, date string, list []slots.Slot) SlotsResponse {
	out := SlotsResponse{
		PractitionerID: practitionerID,
		Date:           date,
		Slots:          make([]SlotResponse, 0, len(list)),
	}
	for _, s := range list {
		out.Slots = append(out.Slots, SlotResponse{
			Time:      s.Time.String(),
			Timestamp: s.At,
			Available: s.Available,
		})
	}
	return out
}

func toWindowResponse(w *availability.Window) WindowResponse {
	return WindowResponse{
		ID:             w.ID,
		PractitionerID: w.PractitionerID,
		DayOfWeek:      w.Day.String(),
		StartTime:      w.Start.String(),
		EndTime:        w.End.String(),
	}
}
