package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/pubmetrics/internal/model"
)

// PostgresStore implements MetadataCache using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS publication_metadata (
	scopus_id  TEXT PRIMARY KEY,
	record     JSONB NOT NULL,
	fetched_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_publication_metadata_expires_at ON publication_metadata(expires_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) GetMetadata(ctx context.Context, ids []string) (map[string]model.PublicationMetadata, error) {
	out := make(map[string]model.PublicationMetadata, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT scopus_id, record FROM publication_metadata
		 WHERE scopus_id = ANY($1) AND expires_at > now()`,
		ids,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get metadata")
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var data []byte
		if err := rows.Scan(&id, &data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan metadata")
		}
		var rec model.PublicationMetadata
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, eris.Wrapf(err, "postgres: unmarshal %s", id)
		}
		out[id] = rec
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate metadata")
}

func (s *PostgresStore) PutMetadata(ctx context.Context, records []model.PublicationMetadata, ttl time.Duration) error {
	now := time.Now().UTC()
	expiresAt := now.Add(ttl)

	for i := range records {
		rec := &records[i]
		if rec.ScopusID == "" {
			continue
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return eris.Wrapf(err, "postgres: marshal %s", rec.ScopusID)
		}
		_, err = s.pool.Exec(ctx,
			`INSERT INTO publication_metadata (scopus_id, record, fetched_at, expires_at) VALUES ($1, $2, $3, $4)
			 ON CONFLICT (scopus_id) DO UPDATE SET record = $2, fetched_at = $3, expires_at = $4`,
			rec.ScopusID, data, now, expiresAt,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: upsert %s", rec.ScopusID)
		}
	}
	return nil
}

func (s *PostgresStore) DeleteExpired(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM publication_metadata WHERE expires_at <= now()`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired metadata")
	}
	return int(tag.RowsAffected()), nil
}
