package appointment

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository is the in-process ledger storage used with STORAGE=memory and in tests.
// It enforces the same uniqueness rule as the appointments_occupied_slot_uniq index.
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]Appointment
	now    func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		rows: make(map[int64]Appointment),
		now:  time.Now,
	}
}

func (r *MemoryRepository) Insert(_ context.Context, a *Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	at := a.At.UTC()
	if PolicyRelease.Occupies(a.Status) {
		for _, existing := range r.rows {
			if existing.PractitionerID == a.PractitionerID && existing.At.Equal(at) && PolicyRelease.Occupies(existing.Status) {
				return ErrSlotTaken
			}
		}
	}

	r.nextID++
	now := r.now().UTC()
	a.ID = r.nextID
	a.At = at
	a.CreatedAt = now
	a.UpdatedAt = now
	r.rows[a.ID] = *a
	return nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id int64) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.rows[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return &a, nil
}

func (r *MemoryRepository) FindOccupying(_ context.Context, practitionerID int64, at time.Time, statuses []Status) (*Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *Appointment
	for _, a := range r.rows {
		if a.PractitionerID != practitionerID || !a.At.Equal(at) || !containsStatus(statuses, a.Status) {
			continue
		}
		if found == nil || a.ID < found.ID {
			cp := a
			found = &cp
		}
	}
	if found == nil {
		return nil, ErrAppointmentNotFound
	}
	return found, nil
}

func (r *MemoryRepository) ListByPractitioner(_ context.Context, practitionerID int64, from, to time.Time) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Appointment
	for _, a := range r.rows {
		if a.PractitionerID == practitionerID && !a.At.Before(from) && a.At.Before(to) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].At.Equal(out[j].At) {
			return out[i].At.Before(out[j].At)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryRepository) ListByPatient(_ context.Context, patientID int64, limit, offset int) ([]Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Appointment
	for _, a := range r.rows {
		if a.PatientID == patientID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].At.Equal(out[j].At) {
			return out[i].At.After(out[j].At)
		}
		return out[i].ID > out[j].ID
	})

	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepository) UpdateStatus(_ context.Context, id int64, from, to Status) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.rows[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}

	a.Status = to
	a.UpdatedAt = r.now().UTC()
	r.rows[id] = a
	return &a, nil
}

func containsStatus(statuses []Status, s Status) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}
