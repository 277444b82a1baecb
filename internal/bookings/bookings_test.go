package bookings

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/table-bot/internal/db"
	"github.com/example/table-bot/internal/domain/reservation"
	"github.com/example/table-bot/internal/migrate"
)

func openTestDB(t *testing.T) *db.DB {
	t.Helper()
	url := os.Getenv("TABLEBOT_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TABLEBOT_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	d, err := db.Open(ctx, url)
	require.NoError(t, err)
	t.Cleanup(d.Close)
	// packages migrate the same database concurrently; a lost race succeeds on retry
	if _, err = migrate.Up(ctx, d, zap.NewNop()); err != nil {
		_, err = migrate.Up(ctx, d, zap.NewNop())
	}
	require.NoError(t, err)
	return d
}

func contains(bs []reservation.Booking, id string) bool {
	for _, b := range bs {
		if b.ID == id {
			return true
		}
	}
	return false
}

func TestRepoRecordAndPublish(t *testing.T) {
	d := openTestDB(t)
	repo := NewRepo(d)
	ctx := context.Background()
	created := time.Now().UTC().Truncate(time.Microsecond)
	b := reservation.Booking{
		ID:             uuid.NewString(),
		ConversationID: "conv-" + uuid.NewString(),
		Time:           "May 01 at 06:00 PM",
		PartySize:      4,
		FullName:       "Ada Lovelace",
		CreatedAt:      created,
	}
	t.Cleanup(func() { _ = d.Exec(context.Background(), `DELETE FROM bookings WHERE id=$1`, b.ID) })

	require.NoError(t, repo.Record(ctx, b))

	got, err := repo.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ConversationID, got.ConversationID)
	assert.Equal(t, b.Time, got.Time)
	assert.Equal(t, 4, got.PartySize)
	assert.Equal(t, "Ada Lovelace", got.FullName)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.Nil(t, got.PublishedAt)

	recent, err := repo.ListRecent(ctx, 1000)
	require.NoError(t, err)
	assert.True(t, contains(recent, b.ID))

	pending, err := repo.Unpublished(ctx, 1000)
	require.NoError(t, err)
	assert.True(t, contains(pending, b.ID))

	at := created.Add(time.Minute)
	require.NoError(t, repo.MarkPublished(ctx, b.ID, at))

	pending, err = repo.Unpublished(ctx, 1000)
	require.NoError(t, err)
	assert.False(t, contains(pending, b.ID))

	got, err = repo.Get(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PublishedAt)
	assert.True(t, at.Equal(*got.PublishedAt))
}

func TestRepoGetMissing(t *testing.T) {
	repo := NewRepo(openTestDB(t))

	_, err := repo.Get(context.Background(), uuid.NewString())

	assert.True(t, errors.Is(err, db.ErrNotFound))
}

func TestLogRecorderNeverFails(t *testing.T) {
	var r Recorder = LogRecorder{}

	err := r.Record(context.Background(), reservation.Booking{ID: "b1", PartySize: 2})

	assert.NoError(t, err)
}
