// Package events announces confirmed bookings on NATS.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/table-bot/internal/domain/reservation"
)

const SubjectBookingConfirmed = "tablebot.bookings.confirmed"

type Publisher interface {
	PublishBooking(ctx context.Context, b reservation.Booking) error
	Close() error
}

// BookingEvent is the JSON payload published for each confirmed booking.
type BookingEvent struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	Time           string    `json:"time"`
	PartySize      int       `json:"partySize"`
	FullName       string    `json:"fullName"`
	CreatedAt      time.Time `json:"createdAt"`
}

func NewBookingEvent(b reservation.Booking) BookingEvent {
	return BookingEvent{
		ID:             b.ID,
		ConversationID: b.ConversationID,
		Time:           b.Time,
		PartySize:      b.PartySize,
		FullName:       b.FullName,
		CreatedAt:      b.CreatedAt,
	}
}

type NATS struct {
	conn    *nats.Conn
	subject string
	log     *zap.Logger
}

func NewNATS(url string, log *zap.Logger) (*NATS, error) {
	if log == nil {
		log = zap.NewNop()
	}
	nc, err := nats.Connect(url,
		nats.Name("tablebot"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", zap.Error(err))
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	log.Info("connected to nats", zap.String("url", url))
	return &NATS{conn: nc, subject: SubjectBookingConfirmed, log: log}, nil
}

func (n *NATS) PublishBooking(ctx context.Context, b reservation.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(NewBookingEvent(b))
	if err != nil {
		return err
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", n.subject, err)
	}
	return nil
}

func (n *NATS) Close() error {
	return n.conn.Drain()
}
