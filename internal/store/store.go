// Package store caches fetched publication metadata so repeated runs do not
// re-query the provider for identifiers already seen.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"

	"github.com/sells-group/pubmetrics/internal/model"
)

// MetadataCache persists publication metadata keyed by Scopus id.
type MetadataCache interface {
	// GetMetadata returns the unexpired records among ids, keyed by Scopus id.
	// Missing ids are simply absent from the map.
	GetMetadata(ctx context.Context, ids []string) (map[string]model.PublicationMetadata, error)
	// PutMetadata upserts records with the given time-to-live.
	PutMetadata(ctx context.Context, records []model.PublicationMetadata, ttl time.Duration) error
	// DeleteExpired removes expired records and returns how many were removed.
	DeleteExpired(ctx context.Context) (int, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Pool is the subset of pgxpool.Pool the Postgres cache needs. pgxmock
// pools satisfy it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Open returns the cache for driver ("sqlite" or "postgres") and runs its
// migration.
func Open(ctx context.Context, driver, dsn string) (MetadataCache, error) {
	var (
		c   MetadataCache
		err error
	)
	switch driver {
	case "sqlite":
		c, err = NewSQLite(dsn)
	case "postgres":
		c, err = NewPostgres(ctx, dsn, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := c.Migrate(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// sqlite bound parameter limit is 999 on older builds.
const lookupChunk = 500

func chunk(ids []string, size int) [][]string {
	var out [][]string
	for len(ids) > size {
		out = append(out, ids[:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}
