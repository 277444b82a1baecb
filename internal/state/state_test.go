package state

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/table-bot/internal/dialog"
	"github.com/example/table-bot/internal/domain/reservation"
)

func sampleConversation() Conversation {
	return Conversation{
		Reservation: &reservation.Reservation{
			Time:         reservation.String("May 01 at 06:00 PM"),
			AmountPeople: reservation.String("4"),
			FullName:     reservation.String("Ada Lovelace"),
			Confirmed:    reservation.Bool(false),
		},
		Dialog:    &dialog.State{Pending: dialog.StepConfirmation, Prompt: dialog.Message{Text: "Is that correct?"}},
		UpdatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

// storeContract runs the behavior every backend must share.
func storeContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	want := sampleConversation()
	require.NoError(t, s.Set(ctx, "conv-1", want))

	got, ok, err := s.Get(ctx, "conv-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want.Reservation, got.Reservation)
	assert.Equal(t, want.Dialog, got.Dialog)
	assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt))

	want.Reservation.Confirmed = reservation.Bool(true)
	require.NoError(t, s.Set(ctx, "conv-1", want))
	got, _, err = s.Get(ctx, "conv-1")
	require.NoError(t, err)
	assert.True(t, *got.Reservation.Confirmed)

	require.NoError(t, s.Delete(ctx, "conv-1"))
	_, ok, err = s.Get(ctx, "conv-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemory(0, zap.NewNop())
	defer s.Close()
	storeContract(t, s)
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemory(time.Hour, nil)
	defer s.Close()
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "k", sampleConversation()))

	s.sweep(time.Now().Add(2 * time.Hour))

	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLite(context.Background(), filepath.Join(t.TempDir(), "state", "tablebot.db"))
	require.NoError(t, err)
	defer s.Close()
	storeContract(t, s)
}

func TestSQLiteOpenFailure(t *testing.T) {
	orig := openDB
	defer func() { openDB = orig }()
	openDB = func(driver, dsn string) (*sql.DB, error) { return nil, errors.New("boom") }

	_, err := NewSQLite(context.Background(), filepath.Join(t.TempDir(), "x.db"))
	assert.ErrorContains(t, err, "boom")
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("TABLEBOT_TEST_REDIS_URL")
	if url == "" {
		t.Skip("TABLEBOT_TEST_REDIS_URL not set")
	}
	s, err := NewRedis(context.Background(), url, time.Minute, zap.NewNop())
	require.NoError(t, err)
	defer s.Close()
	storeContract(t, s)
}

func TestTurnSavesOnlyOnSaveChanges(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(0, nil)
	defer s.Close()

	turn, err := Load(ctx, s, "conv")
	require.NoError(t, err)

	r := turn.Reservation(func() reservation.Reservation {
		return reservation.Reservation{AmountPeople: reservation.String("2")}
	})
	assert.Equal(t, "2", *r.AmountPeople)

	_, ok, _ := s.Get(ctx, "conv")
	assert.False(t, ok)

	require.NoError(t, turn.SaveChanges(ctx))
	got, ok, err := s.Get(ctx, "conv")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2", *got.Reservation.AmountPeople)
}

func TestTurnReservationDefaultOnlyWhenMissing(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(0, nil)
	defer s.Close()
	require.NoError(t, s.Set(ctx, "conv", sampleConversation()))

	turn, err := Load(ctx, s, "conv")
	require.NoError(t, err)

	called := false
	r := turn.Reservation(func() reservation.Reservation {
		called = true
		return reservation.Reservation{}
	})
	assert.False(t, called)
	assert.Equal(t, "Ada Lovelace", *r.FullName)

	turn.Clear()
	assert.Nil(t, turn.Dialog())
}

func TestTurnSaveChangesHonorsCancellation(t *testing.T) {
	s := NewMemory(0, nil)
	defer s.Close()
	turn, err := Load(context.Background(), s, "conv")
	require.NoError(t, err)
	turn.SetReservation(reservation.Reservation{FullName: reservation.String("x")})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, turn.SaveChanges(ctx), context.Canceled)
	_, ok, _ := s.Get(context.Background(), "conv")
	assert.False(t, ok)
}
