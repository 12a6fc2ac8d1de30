package api

import (
	"encoding/json"
	"net/http"

	"github.com/hackgods/clinic-availability-engine/internal/availability"
)

type windowInput struct {
	day   availability.Weekday
	start availability.ClockTime
	end   availability.ClockTime
}

func decodeWindow(r *http.Request) (WindowRequest, error) {
	var req WindowRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	return req, err
}

func parseWindow(req WindowRequest) (windowInput, error) {
	day, err := availability.ParseWeekday(string(req.DayOfWeek))
	if err != nil {
		return windowInput{}, err
	}
	start, err := availability.ParseClock(req.StartTime)
	if err != nil {
		return windowInput{}, err
	}
	end, err := availability.ParseClock(req.EndTime)
	if err != nil {
		return windowInput{}, err
	}
	return windowInput{day: day, start: start, end: end}, nil
}

func listWindowsHandler(store *availability.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		practitionerID, ok := queryID(w, r, "practitionerId")
		if !ok {
			return
		}

		windows, err := store.ListWindows(r.Context(), practitionerID)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}

		resp := WindowListResponse{PractitionerID: practitionerID, Windows: make([]WindowResponse, 0, len(windows))}
		for i := range windows {
			resp.Windows = append(resp.Windows, toWindowResponse(&windows[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getWindowHandler(store *availability.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		win, err := store.GetWindow(r.Context(), id)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toWindowResponse(win))
	}
}

func createWindowHandler(store *availability.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeWindow(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		in, err := parseWindow(req)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}

		win, err := store.AddWindow(r.Context(), req.PractitionerID, in.day, in.start, in.end)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toWindowResponse(win))
	}
}

func updateWindowHandler(store *availability.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		req, err := decodeWindow(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		in, err := parseWindow(req)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}

		win, err := store.UpdateWindow(r.Context(), id, in.day, in.start, in.end)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toWindowResponse(win))
	}
}

func deleteWindowHandler(store *availability.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		if err := store.RemoveWindow(r.Context(), id); err != nil {
			writeDomainError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
