package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-availability-engine/internal/appointment"
	"github.com/hackgods/clinic-availability-engine/internal/availability"
	"github.com/hackgods/clinic-availability-engine/internal/events"
	"github.com/hackgods/clinic-availability-engine/internal/lock"
	"github.com/hackgods/clinic-availability-engine/internal/observability/metrics"
	"github.com/hackgods/clinic-availability-engine/internal/scheduling"
	"github.com/hackgods/clinic-availability-engine/internal/slots"
	"github.com/hackgods/clinic-availability-engine/pkg/logging"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	windows := availability.NewStore(availability.NewMemoryRepository())
	resolver := slots.NewResolver(30*time.Minute, time.UTC, appointment.PolicyRelease)
	ledger := appointment.NewLedger(appointment.NewMemoryRepository(), lock.NewLocal(),
		slots.NewValidator(windows, resolver), appointment.PolicyRelease, logging.Nop())

	reg := prometheus.NewRegistry()
	svc := scheduling.NewService(windows, resolver, ledger,
		events.NewRecorder(events.NewMemoryStore(), logging.Nop()),
		metrics.NewSchedulingMetrics(reg), logging.Nop())

	return NewRouter(RouterConfig{
		Service:  svc,
		Windows:  windows,
		Gatherer: reg,
		Logger:   logging.Nop(),
		Env:      "test",
		Version:  "dev",
	})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestBookingFlowOverHTTP(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/availability",
		`{"practitionerId":7,"dayOfWeek":"monday","startTime":"09:00","endTime":"10:00"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	win := decode[WindowResponse](t, rec)
	assert.Equal(t, "monday", win.DayOfWeek)

	rec = do(t, h, http.MethodGet, "/slots?practitionerId=7&date=2026-03-02", "")
	require.Equal(t, http.StatusOK, rec.Code)
	slotsResp := decode[SlotsResponse](t, rec)
	require.Len(t, slotsResp.Slots, 2)
	assert.Equal(t, "09:00", slotsResp.Slots[0].Time)
	assert.Equal(t, "09:30", slotsResp.Slots[1].Time)
	assert.Equal(t, "2026-03-02", slotsResp.Date)

	rec = do(t, h, http.MethodPost, "/appointments",
		`{"patientId":1,"practitionerId":7,"timestamp":"2026-03-02T09:00:00Z"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	appt := decode[AppointmentResponse](t, rec)
	assert.Equal(t, "scheduled", appt.Status)

	rec = do(t, h, http.MethodPost, "/appointments",
		`{"patientId":2,"practitionerId":7,"timestamp":"2026-03-02T09:00:00Z"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "slot_conflict", decode[ErrorResponse](t, rec).Error)

	rec = do(t, h, http.MethodPost, "/appointments",
		`{"patientId":2,"practitionerId":7,"timestamp":"2026-03-02T09:15:00Z"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", decode[ErrorResponse](t, rec).Error)

	rec = do(t, h, http.MethodPut, "/appointments/1/status", `{"status":"completed"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "completed", decode[AppointmentResponse](t, rec).Status)

	rec = do(t, h, http.MethodPut, "/appointments/1/status", `{"status":"cancelled"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	errResp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "illegal_transition", errResp.Error)
	assert.Contains(t, errResp.Message, "completed -> cancelled")

	rec = do(t, h, http.MethodPut, "/appointments/99/status", `{"status":"cancelled"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/slots?practitionerId=7&date=2026-03-02", "")
	slotsResp = decode[SlotsResponse](t, rec)
	assert.False(t, slotsResp.Slots[0].Available)
}

func TestAppointmentQueries(t *testing.T) {
	h := newTestRouter(t)

	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/availability",
		`{"practitionerId":7,"dayOfWeek":1,"startTime":"09:00","endTime":"11:00"}`).Code)
	for _, ts := range []string{"09:00", "09:30", "10:00"} {
		rec := do(t, h, http.MethodPost, "/appointments",
			`{"patientId":3,"practitionerId":7,"timestamp":"2026-03-02T`+ts+`:00Z"}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := do(t, h, http.MethodGet, "/appointments/2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(2), decode[AppointmentResponse](t, rec).ID)

	rec = do(t, h, http.MethodGet, "/appointments?patientId=3&limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[AppointmentListResponse](t, rec)
	require.Len(t, list.Appointments, 2)
	assert.Equal(t, int64(3), list.Appointments[0].ID)

	rec = do(t, h, http.MethodGet, "/appointments?practitionerId=7&date=2026-03-02", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[AppointmentListResponse](t, rec).Appointments, 3)

	rec = do(t, h, http.MethodGet, "/appointments?practitionerId=7&date=tomorrow", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/appointments/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/appointments/404", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[ErrorResponse](t, rec).Error)
}

func TestAvailabilityCRUD(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/availability",
		`{"practitionerId":7,"dayOfWeek":"tue","startTime":"14:00","endTime":"12:00"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/availability", `{"practitionerId":7,`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request_body", decode[ErrorResponse](t, rec).Error)

	rec = do(t, h, http.MethodPost, "/availability",
		`{"practitionerId":7,"dayOfWeek":"tuesday","startTime":"13:00","endTime":"17:00"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[WindowResponse](t, rec).ID

	rec = do(t, h, http.MethodPost, "/availability",
		`{"practitionerId":7,"dayOfWeek":"monday","startTime":"08:00","endTime":"09:00"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodGet, "/availability?practitionerId=7", "")
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decode[WindowListResponse](t, rec)
	require.Len(t, listed.Windows, 2)
	assert.Equal(t, "monday", listed.Windows[0].DayOfWeek)

	rec = do(t, h, http.MethodPut, "/availability/"+jsonID(id),
		`{"dayOfWeek":"wednesday","startTime":"13:00","endTime":"18:00"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[WindowResponse](t, rec)
	assert.Equal(t, "wednesday", updated.DayOfWeek)
	assert.Equal(t, "18:00", updated.EndTime)

	rec = do(t, h, http.MethodGet, "/availability/"+jsonID(id), "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodDelete, "/availability/"+jsonID(id), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodDelete, "/availability/"+jsonID(id), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/health/live", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = do(t, h, http.MethodGet, "/health/ready", "")
	require.Equal(t, http.StatusOK, rec.Code)
	ready := decode[ReadinessResponse](t, rec)
	assert.Equal(t, "ok", ready.Status)
	assert.Equal(t, "disabled", ready.Dependencies["postgres"])

	do(t, h, http.MethodGet, "/slots?practitionerId=1&date=2026-03-02", "")
	rec = do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "clinic_scheduling_resolve_slots_seconds"))
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(logging.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := do(t, h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", decode[ErrorResponse](t, rec).Error)
}

func TestWeekdayParam(t *testing.T) {
	var req WindowRequest
	require.NoError(t, json.Unmarshal([]byte(`{"dayOfWeek":3}`), &req))
	assert.Equal(t, WeekdayParam("3"), req.DayOfWeek)

	require.NoError(t, json.Unmarshal([]byte(`{"dayOfWeek":"Fri"}`), &req))
	assert.Equal(t, WeekdayParam("Fri"), req.DayOfWeek)
}

func jsonID(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
