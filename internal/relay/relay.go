package relay

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/example/table-bot/internal/domain/reservation"
	"github.com/example/table-bot/internal/events"
)

// Source is the bookings outbox.
type Source interface {
	Unpublished(ctx context.Context, limit int) ([]reservation.Booking, error)
	MarkPublished(ctx context.Context, id string, at time.Time) error
}

// Relay polls for unpublished bookings and announces them on the event bus.
type Relay struct {
	Source    Source
	Publisher events.Publisher
	Interval  time.Duration
	BatchSize int
	Log       *zap.Logger

	now func() time.Time
}

func (r *Relay) Run(ctx context.Context) error {
	if r.Interval <= 0 {
		r.Interval = 5 * time.Second
	}
	t := time.NewTicker(r.Interval)
	defer t.Stop()

	// kick immediately
	r.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			r.tick(ctx)
		}
	}
}

func (r *Relay) tick(ctx context.Context) {
	log := r.logger()
	limit := r.BatchSize
	if limit <= 0 {
		limit = 25
	}

	bs, err := r.Source.Unpublished(ctx, limit)
	if err != nil {
		log.Error("unpublished bookings query failed", zap.Error(err))
		return
	}

	for _, b := range bs {
		if err := r.Publisher.PublishBooking(ctx, b); err != nil {
			// retried on the next tick
			log.Warn("publish booking failed", zap.String("booking_id", b.ID), zap.Error(err))
			return
		}
		if err := r.Source.MarkPublished(ctx, b.ID, r.clock().UTC()); err != nil {
			log.Error("mark booking published failed", zap.String("booking_id", b.ID), zap.Error(err))
			return
		}
		log.Debug("booking published", zap.String("booking_id", b.ID))
	}
}

func (r *Relay) logger() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}

func (r *Relay) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}
