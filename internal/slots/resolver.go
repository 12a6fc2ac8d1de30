package slots

import (
	"fmt"
	"sort"
	"time"

	"github.com/hackgods/clinic-availability-engine/internal/appointment"
	"github.com/hackgods/clinic-availability-engine/internal/apperror"
	"github.com/hackgods/clinic-availability-engine/internal/availability"
)

var (
	ErrNotAligned          = apperror.New(apperror.Validation, "timestamp is not aligned to the slot grid")
	ErrOutsideAvailability = apperror.New(apperror.Validation, "timestamp is outside the practitioner's availability")
	ErrInvalidDate         = apperror.New(apperror.Validation, "invalid date, expected YYYY-MM-DD")
)

const DateLayout = "2006-01-02"

// Slot is a derived, never persisted, bookable instant.
type Slot struct {
	PractitionerID int64
	Date           time.Time // midnight of the slot's day in the resolver location
	Time           availability.ClockTime
	At             time.Time
	Available      bool
}

// Resolver turns weekly windows into dated slots. It holds configuration only, no state,
// so the same inputs always give the same output.
type Resolver struct {
	increment time.Duration
	loc       *time.Location
	policy    appointment.OccupancyPolicy
}

func NewResolver(increment time.Duration, loc *time.Location, policy appointment.OccupancyPolicy) *Resolver {
	if increment <= 0 {
		increment = 30 * time.Minute
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{increment: increment, loc: loc, policy: policy}
}

func (r *Resolver) Increment() time.Duration { return r.increment }

func (r *Resolver) Location() *time.Location { return r.loc }

func (r *Resolver) Policy() appointment.OccupancyPolicy { return r.policy }

// ParseDate reads YYYY-MM-DD as a day in the resolver location.
func (r *Resolver) ParseDate(raw string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, raw, r.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return d, nil
}

// Day normalises any instant or date to midnight of its calendar day in the resolver location.
func (r *Resolver) Day(t time.Time) time.Time {
	y, m, d := t.In(r.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, r.loc)
}

// DayBounds returns [start, end) of the calendar day of date.
func (r *Resolver) DayBounds(date time.Time) (time.Time, time.Time) {
	start := r.Day(date)
	y, m, d := start.Date()
	return start, time.Date(y, m, d+1, 0, 0, 0, 0, r.loc)
}

// Candidates lists the distinct slot instants the windows produce on date, ascending.
func (r *Resolver) Candidates(date time.Time, windows []availability.Window) []time.Time {
	day := r.Day(date)
	weekday := availability.WeekdayOf(day)
	y, m, d := day.Date()
	step := availability.ClockTime(r.increment / time.Minute)

	seen := make(map[int64]struct{})
	var out []time.Time

	for _, w := range windows {
		if w.Day != weekday {
			continue
		}
		for start := w.Start; start+step <= w.End; start += step {
			at := time.Date(y, m, d, start.Hour(), start.Minute(), 0, 0, r.loc)
			// wall times skipped by a DST jump normalise to another hour
			if availability.ClockOf(at) != start || !sameDay(at, y, m, d) {
				continue
			}
			key := at.Unix()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, at)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func sameDay(t time.Time, y int, m time.Month, d int) bool {
	ty, tm, td := t.Date()
	return ty == y && tm == m && td == d
}

// ResolveSlots returns the practitioner's slots for date in ascending order, each marked
// unavailable when an existing appointment occupies it under the resolver policy.
func (r *Resolver) ResolveSlots(practitionerID int64, date time.Time, windows []availability.Window, existing []appointment.Appointment) []Slot {
	occupied := make(map[int64]struct{})
	for _, a := range existing {
		if a.PractitionerID == practitionerID && r.policy.Occupies(a.Status) {
			occupied[a.At.Unix()] = struct{}{}
		}
	}

	var own []availability.Window
	for _, w := range windows {
		if w.PractitionerID == practitionerID {
			own = append(own, w)
		}
	}

	day := r.Day(date)
	candidates := r.Candidates(day, own)
	out := make([]Slot, 0, len(candidates))
	for _, at := range candidates {
		_, taken := occupied[at.Unix()]
		out = append(out, Slot{
			PractitionerID: practitionerID,
			Date:           day,
			Time:           availability.ClockOf(at),
			At:             at,
			Available:      !taken,
		})
	}
	return out
}

// CheckSlot reports whether at is one of the instants Candidates would emit for its day.
// Times inside a window but off the grid get ErrNotAligned, anything else ErrOutsideAvailability.
func (r *Resolver) CheckSlot(at time.Time, windows []availability.Window) error {
	local := at.In(r.loc)
	if local.Second() != 0 || local.Nanosecond() != 0 {
		return fmt.Errorf("%w: %s", ErrNotAligned, at.Format(time.RFC3339Nano))
	}

	for _, c := range r.Candidates(local, windows) {
		if c.Equal(at) {
			return nil
		}
	}

	clock := availability.ClockOf(local)
	weekday := availability.WeekdayOf(local)
	for _, w := range windows {
		if w.Day == weekday && clock >= w.Start && clock < w.End {
			return fmt.Errorf("%w: %s (every %s from %s)", ErrNotAligned, clock, r.increment, w.Start)
		}
	}
	return fmt.Errorf("%w: %s %s", ErrOutsideAvailability, weekday, clock)
}
