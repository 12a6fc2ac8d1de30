package redisclient

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hackgods/clinic-availability-engine/internal/events"
)

// StreamPublisher appends outbox events to a Redis stream.
type StreamPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

func NewStreamPublisher(client *redis.Client, stream string) *StreamPublisher {
	return &StreamPublisher{client: client, stream: stream, maxLen: 100_000}
}

func (p *StreamPublisher) Publish(ctx context.Context, ev events.Event) error {
	values := map[string]any{
		"event_id":   strconv.FormatInt(ev.ID, 10),
		"event_type": ev.Type,
		"created_at": ev.CreatedAt.UTC().Format(time.RFC3339Nano),
		"payload":    string(ev.Payload),
	}
	if ev.AppointmentID != nil {
		values["appointment_id"] = strconv.FormatInt(*ev.AppointmentID, 10)
	}

	err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: values,
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return nil
}
