package migrate

import (
	"context"
	"embed"
	"fmt"
	"path"
	"sort"

	"go.uber.org/zap"

	"github.com/example/table-bot/internal/db"
)

//go:embed *.sql
var fs embed.FS

// Migration is one embedded SQL file; Version is its file name.
type Migration struct {
	Version string
	SQL     string
}

// List returns the embedded migrations in apply order.
func List() ([]Migration, error) {
	entries, err := fs.ReadDir(".")
	if err != nil {
		return nil, err
	}
	var out []Migration
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".sql" {
			continue
		}
		b, err := fs.ReadFile(e.Name())
		if err != nil {
			return nil, err
		}
		out = append(out, Migration{Version: e.Name(), SQL: string(b)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// Pending returns migrations not yet recorded in schema_migrations.
func Pending(ctx context.Context, d *db.DB) ([]Migration, error) {
	all, err := List()
	if err != nil {
		return nil, err
	}
	if err := d.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY, applied_at TIMESTAMPTZ NOT NULL DEFAULT now());`); err != nil {
		return nil, err
	}

	var out []Migration
	for _, m := range all {
		var applied bool
		if err := d.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version=$1)`, m.Version).Scan(&applied); err != nil {
			return nil, err
		}
		if !applied {
			out = append(out, m)
		}
	}
	return out, nil
}

// Up applies every pending migration and returns the versions applied.
func Up(ctx context.Context, d *db.DB, log *zap.Logger) ([]string, error) {
	if log == nil {
		log = zap.NewNop()
	}
	pending, err := Pending(ctx, d)
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, m := range pending {
		if err := d.Exec(ctx, m.SQL); err != nil {
			return applied, fmt.Errorf("apply %s: %w", m.Version, err)
		}
		if err := d.Exec(ctx, `INSERT INTO schema_migrations(version) VALUES ($1)`, m.Version); err != nil {
			return applied, err
		}
		log.Info("migration applied", zap.String("version", m.Version))
		applied = append(applied, m.Version)
	}
	return applied, nil
}
