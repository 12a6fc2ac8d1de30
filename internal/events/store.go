package events

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/hackgods/clinic-availability-engine/internal/db"
)

// Store persists events until the relay has handed them on.
type Store interface {
	Insert(ctx context.Context, ev *Event) error
	// FetchPending returns undelivered events, oldest first.
	FetchPending(ctx context.Context, limit int) ([]Event, error)
	// MarkDelivered reports false when the event was already delivered or does not exist.
	MarkDelivered(ctx context.Context, id int64) (bool, error)
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

type PgStore struct {
	db db.DBTX
}

func NewPgStore(conn db.DBTX) *PgStore {
	if conn == nil {
		panic("events: pgx pool required")
	}
	return &PgStore{db: conn}
}

func (s *PgStore) Insert(ctx context.Context, ev *Event) error {
	var payload any
	if len(ev.Payload) > 0 {
		payload = []byte(ev.Payload)
	}

	query, args, err := psql.Insert("event_logs").
		Columns("event_type", "appointment_id", "payload").
		Values(ev.Type, ev.AppointmentID, payload).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("events: build insert: %w", err)
	}

	if err := s.db.QueryRow(ctx, query, args...).Scan(&ev.ID, &ev.CreatedAt); err != nil {
		return fmt.Errorf("events: insert event log: %w", err)
	}
	return nil
}

func (s *PgStore) FetchPending(ctx context.Context, limit int) ([]Event, error) {
	query, args, err := psql.Select("id", "event_type", "appointment_id", "payload", "created_at").
		From("event_logs").
		Where(squirrel.Eq{"delivered_at": nil}).
		OrderBy("id").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("events: build fetch pending: %w", err)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("events: fetch pending: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			ev      Event
			payload []byte
		)
		if err := rows.Scan(&ev.ID, &ev.Type, &ev.AppointmentID, &payload, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("events: scan event log: %w", err)
		}
		ev.Payload = append([]byte(nil), payload...)
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *PgStore) MarkDelivered(ctx context.Context, id int64) (bool, error) {
	query, args, err := psql.Update("event_logs").
		Set("delivered_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"delivered_at": nil}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("events: build mark delivered: %w", err)
	}

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("events: mark delivered: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// MemoryStore backs STORAGE=memory.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[int64]Event)}
}

func (s *MemoryStore) Insert(_ context.Context, ev *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	ev.ID = s.nextID
	ev.CreatedAt = time.Now().UTC()
	s.rows[ev.ID] = *ev
	return nil
}

func (s *MemoryStore) FetchPending(_ context.Context, limit int) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Event
	for _, ev := range s.rows {
		if ev.DeliveredAt == nil {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) MarkDelivered(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, ok := s.rows[id]
	if !ok || ev.DeliveredAt != nil {
		return false, nil
	}
	now := time.Now().UTC()
	ev.DeliveredAt = &now
	s.rows[id] = ev
	return true, nil
}

// All returns every stored event in insertion order.
func (s *MemoryStore) All() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Event, 0, len(s.rows))
	for _, ev := range s.rows {
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
