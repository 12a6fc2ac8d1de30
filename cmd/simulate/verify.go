package main

import (
	"context"
	"fmt"
	"sort"
	"time"
)

type appointmentView struct {
	ID             int64     `json:"id"`
	PractitionerID int64     `json:"practitionerId"`
	Timestamp      time.Time `json:"timestamp"`
	Status         string    `json:"status"`
}

// verify lists every practitioner's appointments on the simulation date and reports any
// instant held by more than one scheduled or completed appointment.
func (s *Simulator) verify(ctx context.Context) ([]string, error) {
	var violations []string
	for pid := 1; pid <= s.config.Practitioners; pid++ {
		var list struct {
			Appointments []appointmentView `json:"appointments"`
		}
		url := fmt.Sprintf("%s/appointments?practitionerId=%d&date=%s", s.config.APIBaseURL, pid, s.config.Date)
		if err := s.getJSON(ctx, url, &list); err != nil {
			return nil, err
		}
		violations = append(violations, findDoubleBookings(list.Appointments)...)
	}
	return violations, nil
}

func findDoubleBookings(list []appointmentView) []string {
	type key struct {
		practitioner int64
		unix         int64
	}
	held := map[key][]int64{}
	for _, a := range list {
		if a.Status != "scheduled" && a.Status != "completed" {
			continue
		}
		k := key{a.PractitionerID, a.Timestamp.Unix()}
		held[k] = append(held[k], a.ID)
	}

	var out []string
	for k, ids := range held {
		if len(ids) > 1 {
			out = append(out, fmt.Sprintf("practitioner %d at %s held by appointments %v",
				k.practitioner, time.Unix(k.unix, 0).UTC().Format("2006-01-02 15:04"), ids))
		}
	}
	sort.Strings(out)
	return out
}
