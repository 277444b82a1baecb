// Package bookings records confirmed reservations.
package bookings

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/example/table-bot/internal/db"
	"github.com/example/table-bot/internal/domain/reservation"
)

// Recorder receives every reservation the guest confirmed.
type Recorder interface {
	Record(ctx context.Context, b reservation.Booking) error
}

const bookingColumns = `id::text,conversation_id,reservation_time,party_size,full_name,created_at,published_at`

type Repo struct{ db *db.DB }

func NewRepo(d *db.DB) *Repo { return &Repo{db: d} }

func (r *Repo) Record(ctx context.Context, b reservation.Booking) error {
	return r.db.Exec(ctx, `
INSERT INTO bookings(id,conversation_id,reservation_time,party_size,full_name,created_at)
VALUES ($1,$2,$3,$4,$5,$6)`,
		b.ID, b.ConversationID, b.Time, b.PartySize, b.FullName, b.CreatedAt)
}

func (r *Repo) Get(ctx context.Context, id string) (reservation.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id))
	if err != nil {
		return reservation.Booking{}, db.WrapNotFound(err)
	}
	return b, nil
}

func (r *Repo) ListRecent(ctx context.Context, limit int) ([]reservation.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY created_at DESC LIMIT $1`, limit)
}

// Unpublished returns bookings not yet announced on the event bus, oldest first.
func (r *Repo) Unpublished(ctx context.Context, limit int) ([]reservation.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE published_at IS NULL ORDER BY created_at ASC LIMIT $1`, limit)
}

func (r *Repo) MarkPublished(ctx context.Context, id string, at time.Time) error {
	return r.db.Exec(ctx, `UPDATE bookings SET published_at=$2 WHERE id=$1`, id, at)
}

func (r *Repo) list(ctx context.Context, sql string, limit int) ([]reservation.Booking, error) {
	rows, err := r.db.Query(ctx, sql, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []reservation.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBooking(row db.Row) (reservation.Booking, error) {
	var b reservation.Booking
	var published *time.Time
	if err := row.Scan(&b.ID, &b.ConversationID, &b.Time, &b.PartySize, &b.FullName, &b.CreatedAt, &published); err != nil {
		return reservation.Booking{}, err
	}
	b.PublishedAt = published
	return b, nil
}

// LogRecorder only logs bookings. Used when no database is configured.
type LogRecorder struct{ Log *zap.Logger }

func (l LogRecorder) Record(ctx context.Context, b reservation.Booking) error {
	log := l.Log
	if log == nil {
		log = zap.NewNop()
	}
	log.Info("reservation confirmed",
		zap.String("booking_id", b.ID),
		zap.String("conversation_id", b.ConversationID),
		zap.String("time", b.Time),
		zap.Int("party_size", b.PartySize),
	)
	return nil
}
