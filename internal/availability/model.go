package availability

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hackgods/clinic-availability-engine/internal/apperror"
)

var (
	ErrWindowNotFound      = apperror.New(apperror.NotFound, "availability window not found")
	ErrInvalidRange        = apperror.New(apperror.Validation, "start time must be before end time")
	ErrInvalidDay          = apperror.New(apperror.Validation, "invalid day of week")
	ErrInvalidClock        = apperror.New(apperror.Validation, "invalid time of day")
	ErrInvalidPractitioner = apperror.New(apperror.Validation, "practitioner id must be positive")
	ErrDuplicateWindow     = apperror.New(apperror.Conflict, "identical availability window already exists")
)

// Weekday follows time.Weekday numbering: Sunday is 0.
type Weekday int

const (
	Sunday Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var weekdayNames = [...]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

func (d Weekday) Valid() bool {
	return d >= Sunday && d <= Saturday
}

func (d Weekday) String() string {
	if !d.Valid() {
		return "weekday(" + strconv.Itoa(int(d)) + ")"
	}
	return weekdayNames[d]
}

// WeekdayOf returns the weekday of t in t's own location.
func WeekdayOf(t time.Time) Weekday {
	return Weekday(t.Weekday())
}

// ParseWeekday accepts a lower or mixed case English name, a three letter prefix, or 0..6.
func ParseWeekday(s string) (Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		d := Weekday(n)
		if !d.Valid() {
			return 0, fmt.Errorf("%w: %d", ErrInvalidDay, n)
		}
		return d, nil
	}
	for i, name := range weekdayNames {
		if s == name || (len(s) == 3 && strings.HasPrefix(name, s)) {
			return Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDay, s)
}

// ClockTime is a minute-precision time of day, stored as minutes after midnight.
// 24:00 (1440) is allowed as a window end.
type ClockTime int

const (
	Midnight  ClockTime = 0
	EndOfDay  ClockTime = 24 * 60
	minPerDay           = 24 * 60
)

func NewClock(hour, minute int) ClockTime {
	return ClockTime(hour*60 + minute)
}

// ParseClock reads "HH:MM" or "HH:MM:SS". Seconds must be zero.
func ParseClock(s string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}

	var nums [3]int
	for i, p := range parts {
		if len(p) != 2 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
		}
		nums[i] = n
	}

	h, m, sec := nums[0], nums[1], nums[2]
	if m > 59 || sec != 0 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return NewClock(h, m), nil
}

func (c ClockTime) Valid() bool {
	return c >= Midnight && c <= EndOfDay
}

func (c ClockTime) Hour() int   { return int(c) / 60 }
func (c ClockTime) Minute() int { return int(c) % 60 }

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// Duration is the offset from midnight.
func (c ClockTime) Duration() time.Duration {
	return time.Duration(c) * time.Minute
}

// ClockOf returns the time of day of t in t's own location, truncated to the minute.
func ClockOf(t time.Time) ClockTime {
	return NewClock(t.Hour(), t.Minute())
}

// Window is one recurring weekly availability range for a practitioner.
type Window struct {
	ID             int64
	PractitionerID int64
	Day            Weekday
	Start          ClockTime
	End            ClockTime
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Validate checks the window invariants: positive practitioner, real weekday, start < end.
func (w Window) Validate() error {
	if w.PractitionerID <= 0 {
		return ErrInvalidPractitioner
	}
	if !w.Day.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidDay, w.Day)
	}
	if !w.Start.Valid() || !w.End.Valid() {
		return ErrInvalidClock
	}
	if w.Start >= w.End {
		return fmt.Errorf("%w: %s-%s", ErrInvalidRange, w.Start, w.End)
	}
	return nil
}

// sameRange reports whether two windows collide on the uniqueness key.
func (w Window) sameRange(o Window) bool {
	return w.PractitionerID == o.PractitionerID && w.Day == o.Day && w.Start == o.Start && w.End == o.End
}
