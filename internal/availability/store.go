package availability

import (
	"context"
	"sort"
)

// Store is the validated entry point for availability templates. It never touches bookings.
type Store struct {
	repo Repository
}

func NewStore(repo Repository) *Store {
	return &Store{repo: repo}
}

// AddWindow creates a weekly window and returns it with its id.
func (s *Store) AddWindow(ctx context.Context, practitionerID int64, day Weekday, start, end ClockTime) (*Window, error) {
	w := &Window{
		PractitionerID: practitionerID,
		Day:            day,
		Start:          start,
		End:            end,
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// UpdateWindow replaces day and range of an existing window. The practitioner never changes.
func (s *Store) UpdateWindow(ctx context.Context, id int64, day Weekday, start, end ClockTime) (*Window, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	w := &Window{
		ID:             id,
		PractitionerID: existing.PractitionerID,
		Day:            day,
		Start:          start,
		End:            end,
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *Store) RemoveWindow(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *Store) GetWindow(ctx context.Context, id int64) (*Window, error) {
	return s.repo.GetByID(ctx, id)
}

// ListWindows returns the practitioner's windows ordered by day, start, end, then id,
// whatever order the repository produced them in.
func (s *Store) ListWindows(ctx context.Context, practitionerID int64) ([]Window, error) {
	if practitionerID <= 0 {
		return nil, ErrInvalidPractitioner
	}

	windows, err := s.repo.ListByPractitioner(ctx, practitionerID)
	if err != nil {
		return nil, err
	}

	SortWindows(windows)
	return windows, nil
}

// SortWindows orders windows deterministically in place.
func SortWindows(windows []Window) {
	sort.SliceStable(windows, func(i, j int) bool {
		a, b := windows[i], windows[j]
		if a.Day != b.Day {
			return a.Day < b.Day
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.End != b.End {
			return a.End < b.End
		}
		return a.ID < b.ID
	})
}
