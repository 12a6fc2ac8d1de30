package appointment

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Terminal statuses accept no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusNoShow
}

// ParseStatus is lenient about case, separators and the US spelling of cancelled.
func ParseStatus(raw string) (Status, error) {
	norm := strings.ToLower(strings.TrimSpace(raw))
	norm = strings.NewReplacer("-", "", "_", "", " ", "").Replace(norm)

	switch norm {
	case "scheduled":
		return StatusScheduled, nil
	case "completed":
		return StatusCompleted, nil
	case "cancelled", "canceled":
		return StatusCancelled, nil
	case "noshow":
		return StatusNoShow, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
}

type Appointment struct {
	ID             int64
	PatientID      int64
	PractitionerID int64
	At             time.Time
	Status         Status
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// OccupancyPolicy decides which statuses keep a slot taken.
type OccupancyPolicy int

const (
	// PolicyRelease frees the slot once an appointment is cancelled or marked no-show.
	PolicyRelease OccupancyPolicy = iota
	// PolicyRetain keeps the slot taken whatever happened to the appointment.
	PolicyRetain
)

func ParsePolicy(raw string) (OccupancyPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "release":
		return PolicyRelease, nil
	case "retain":
		return PolicyRetain, nil
	}
	return 0, fmt.Errorf("unknown slot freeing policy %q", raw)
}

func (p OccupancyPolicy) String() string {
	if p == PolicyRetain {
		return "retain"
	}
	return "release"
}

func (p OccupancyPolicy) Occupies(s Status) bool {
	if p == PolicyRetain {
		return s.Valid()
	}
	return s == StatusScheduled || s == StatusCompleted
}

// OccupyingStatuses lists the statuses that block a slot under p.
func (p OccupancyPolicy) OccupyingStatuses() []Status {
	if p == PolicyRetain {
		return []Status{StatusScheduled, StatusCompleted, StatusCancelled, StatusNoShow}
	}
	return []Status{StatusScheduled, StatusCompleted}
}
