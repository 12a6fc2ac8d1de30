package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-availability-engine/internal/appointment"
	"github.com/hackgods/clinic-availability-engine/internal/apperror"
	"github.com/hackgods/clinic-availability-engine/internal/scheduling"
	"github.com/hackgods/clinic-availability-engine/internal/slots"
)

func listSlotsHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		practitionerID, ok := queryID(w, r, "practitionerId")
		if !ok {
			return
		}

		rawDate := r.URL.Query().Get("date")
		date, err := svc.Resolver().ParseDate(rawDate)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}

		list, err := svc.ResolveSlots(r.Context(), practitionerID, date)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toSlotsResponse(practitionerID, date.Format(slots.DateLayout), list))
	}
}

func createAppointmentHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		at, err := time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", "timestamp must be RFC 3339")
			return
		}

		appt, err := svc.RequestBooking(r.Context(), req.PatientID, req.PractitionerID, at)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func getAppointmentHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		appt, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

// listAppointmentsHandler serves either ?patientId=&limit=&offset= or ?practitionerId=&date=.
func listAppointmentsHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		if q.Get("patientId") != "" {
			patientID, ok := queryID(w, r, "patientId")
			if !ok {
				return
			}
			limit, _ := strconv.Atoi(q.Get("limit"))
			offset, _ := strconv.Atoi(q.Get("offset"))

			list, err := svc.ListByPatient(r.Context(), patientID, limit, offset)
			if err != nil {
				writeDomainError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, toAppointmentList(list))
			return
		}

		practitionerID, ok := queryID(w, r, "practitionerId")
		if !ok {
			return
		}
		date, err := svc.Resolver().ParseDate(q.Get("date"))
		if err != nil {
			writeDomainError(w, r, err)
			return
		}

		list, err := svc.ListForPractitionerOn(r.Context(), practitionerID, date)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentList(list))
	}
}

func updateStatusHandler(svc *scheduling.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		var req UpdateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		target, err := appointment.ParseStatus(req.Status)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}

		appt, err := svc.ChangeStatus(r.Context(), id, target)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

// Helpers

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}

// writeDomainError maps an error kind to its status code. Anything without a kind is a storage
// or programming failure and is logged, not echoed.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	kind, ok := apperror.KindOf(err)
	if !ok {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	switch kind {
	case apperror.Validation:
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	case apperror.Conflict:
		writeError(w, http.StatusConflict, "slot_conflict", err.Error())
	case apperror.IllegalTransition:
		writeError(w, http.StatusConflict, "illegal_transition", err.Error())
	case apperror.NotFound:
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "validation_error", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func queryID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := r.URL.Query().Get(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "validation_error", name+" must be a positive integer")
		return 0, false
	}
	return id, true
}
