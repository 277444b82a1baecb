package relay

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/example/table-bot/internal/domain/reservation"
)

type fakeSource struct {
	UnpublishedFunc func(ctx context.Context, limit int) ([]reservation.Booking, error)
	marked          []string
}

func (f *fakeSource) Unpublished(ctx context.Context, limit int) ([]reservation.Booking, error) {
	return f.UnpublishedFunc(ctx, limit)
}

func (f *fakeSource) MarkPublished(ctx context.Context, id string, at time.Time) error {
	f.marked = append(f.marked, id)
	return nil
}

type fakePublisher struct {
	PublishFunc func(b reservation.Booking) error
	published   []string
}

func (f *fakePublisher) PublishBooking(ctx context.Context, b reservation.Booking) error {
	if f.PublishFunc != nil {
		if err := f.PublishFunc(b); err != nil {
			return err
		}
	}
	f.published = append(f.published, b.ID)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func bookings(ids ...string) []reservation.Booking {
	var out []reservation.Booking
	for _, id := range ids {
		out = append(out, reservation.Booking{ID: id})
	}
	return out
}

func TestTickPublishesAndMarks(t *testing.T) {
	// Arrange
	src := &fakeSource{UnpublishedFunc: func(ctx context.Context, limit int) ([]reservation.Booking, error) {
		assert.Equal(t, 10, limit)
		return bookings("a", "b"), nil
	}}
	pub := &fakePublisher{}
	r := &Relay{Source: src, Publisher: pub, BatchSize: 10}

	// Act
	r.tick(context.Background())

	// Assert
	assert.Equal(t, []string{"a", "b"}, pub.published)
	assert.Equal(t, []string{"a", "b"}, src.marked)
}

func TestTickStopsOnPublishFailure(t *testing.T) {
	src := &fakeSource{UnpublishedFunc: func(ctx context.Context, limit int) ([]reservation.Booking, error) {
		return bookings("a", "b", "c"), nil
	}}
	pub := &fakePublisher{PublishFunc: func(b reservation.Booking) error {
		if b.ID == "b" {
			return errors.New("nats down")
		}
		return nil
	}}
	r := &Relay{Source: src, Publisher: pub}

	r.tick(context.Background())

	assert.Equal(t, []string{"a"}, src.marked)
}

func TestRunStopsOnCancel(t *testing.T) {
	src := &fakeSource{UnpublishedFunc: func(ctx context.Context, limit int) ([]reservation.Booking, error) {
		return nil, nil
	}}
	r := &Relay{Source: src, Publisher: &fakePublisher{}, Interval: time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop")
	}
}
