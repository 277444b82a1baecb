package state

import (
	"context"

	"github.com/example/table-bot/internal/db"
)

// Postgres stores slots in the conversation_state table created by the
// embedded migrations.
type Postgres struct{ db *db.DB }

func NewPostgres(d *db.DB) *Postgres { return &Postgres{db: d} }

func (p *Postgres) Get(ctx context.Context, key string) (Conversation, bool, error) {
	var b []byte
	err := p.db.QueryRow(ctx, `SELECT data FROM conversation_state WHERE key=$1`, key).Scan(&b)
	if db.IsNotFound(err) {
		return Conversation{}, false, nil
	}
	if err != nil {
		return Conversation{}, false, db.WrapNotFound(err)
	}
	c, err := decode(b)
	if err != nil {
		return Conversation{}, false, err
	}
	return c, true, nil
}

func (p *Postgres) Set(ctx context.Context, key string, c Conversation) error {
	b, err := encode(c)
	if err != nil {
		return err
	}
	return p.db.Exec(ctx, `
INSERT INTO conversation_state(key, data, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE SET data=EXCLUDED.data, updated_at=EXCLUDED.updated_at`,
		key, b, c.UpdatedAt)
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	return p.db.Exec(ctx, `DELETE FROM conversation_state WHERE key=$1`, key)
}

// Close is a no-op; the pool is owned by the caller.
func (p *Postgres) Close() error { return nil }
