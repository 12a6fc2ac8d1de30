package events

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Publisher hands an event to a downstream transport.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Relay drains the outbox into a Publisher. Delivery is at least once: an event is marked
// delivered only after Publish returns nil.
type Relay struct {
	store     Store
	publisher Publisher
	logger    zerolog.Logger
	batchSize int
	interval  time.Duration
	onBatch   func(delivered, failed int)
}

func NewRelay(store Store, publisher Publisher, logger zerolog.Logger) *Relay {
	return &Relay{
		store:     store,
		publisher: publisher,
		logger:    logger,
		batchSize: 100,
		interval:  5 * time.Second,
	}
}

func (r *Relay) WithBatchSize(size int) *Relay {
	if size > 0 {
		r.batchSize = size
	}
	return r
}

func (r *Relay) WithInterval(interval time.Duration) *Relay {
	if interval > 0 {
		r.interval = interval
	}
	return r
}

// OnBatch registers a callback invoked after every drained batch.
func (r *Relay) OnBatch(fn func(delivered, failed int)) *Relay {
	r.onBatch = fn
	return r
}

// RunOnce relays one batch. It stops at the first publish failure so ordering is kept.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	pending, err := r.store.FetchPending(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}

	delivered, failed := 0, 0
	defer func() {
		if r.onBatch != nil && (delivered > 0 || failed > 0) {
			r.onBatch(delivered, failed)
		}
	}()

	for _, ev := range pending {
		if err := r.publisher.Publish(ctx, ev); err != nil {
			failed++
			return delivered, fmt.Errorf("publish event %d: %w", ev.ID, err)
		}
		ok, err := r.store.MarkDelivered(ctx, ev.ID)
		if err != nil {
			failed++
			return delivered, err
		}
		if ok {
			delivered++
		}
	}
	return delivered, nil
}

// Run relays once at startup and then on every tick until ctx is done.
func (r *Relay) Run(ctx context.Context) {
	r.tick(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("shutdown signal received, stopping event relay")
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Relay) tick(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	n, err := r.RunOnce(runCtx)
	if err != nil {
		r.logger.Error().Err(err).Int("delivered", n).Msg("relay run error")
		return
	}
	if n > 0 {
		r.logger.Info().Int("delivered", n).Dur("took", time.Since(start)).Msg("relay run complete")
	}
}
