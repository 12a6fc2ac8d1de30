package availability

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Repository persists availability windows. Implementations enforce the
// (practitioner, day, start, end) uniqueness rule and nothing else.
type Repository interface {
	Create(ctx context.Context, w *Window) error
	GetByID(ctx context.Context, id int64) (*Window, error)
	Update(ctx context.Context, w *Window) error
	Delete(ctx context.Context, id int64) error
	ListByPractitioner(ctx context.Context, practitionerID int64) ([]Window, error)
}

// MemoryRepository keeps windows in process memory.
type MemoryRepository struct {
	mu      sync.RWMutex
	nextID  int64
	windows map[int64]Window
	now     func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		windows: make(map[int64]Window),
		now:     time.Now,
	}
}

func (r *MemoryRepository) Create(_ context.Context, w *Window) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.collides(*w, 0) {
		return ErrDuplicateWindow
	}

	r.nextID++
	now := r.now().UTC()
	w.ID = r.nextID
	w.CreatedAt = now
	w.UpdatedAt = now
	r.windows[w.ID] = *w
	return nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id int64) (*Window, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	w, ok := r.windows[id]
	if !ok {
		return nil, ErrWindowNotFound
	}
	return &w, nil
}

func (r *MemoryRepository) Update(_ context.Context, w *Window) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.windows[w.ID]
	if !ok {
		return ErrWindowNotFound
	}
	if r.collides(*w, w.ID) {
		return ErrDuplicateWindow
	}

	w.PractitionerID = existing.PractitionerID
	w.CreatedAt = existing.CreatedAt
	w.UpdatedAt = r.now().UTC()
	r.windows[w.ID] = *w
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.windows[id]; !ok {
		return ErrWindowNotFound
	}
	delete(r.windows, id)
	return nil
}

func (r *MemoryRepository) ListByPractitioner(_ context.Context, practitionerID int64) ([]Window, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Window
	for _, w := range r.windows {
		if w.PractitionerID == practitionerID {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// collides must be called with r.mu held.
func (r *MemoryRepository) collides(w Window, skipID int64) bool {
	practitionerID := w.PractitionerID
	if skipID != 0 {
		practitionerID = r.windows[skipID].PractitionerID
	}
	candidate := w
	candidate.PractitionerID = practitionerID

	for id, other := range r.windows {
		if id != skipID && candidate.sameRange(other) {
			return true
		}
	}
	return false
}
