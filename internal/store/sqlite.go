package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/pubmetrics/internal/model"
)

// SQLiteStore implements MetadataCache using modernc.org/sqlite.
type SQLiteStore struct {
	db      *sql.DB
	nowFunc func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, nowFunc: time.Now}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS publication_metadata (
	scopus_id  TEXT PRIMARY KEY,
	record     TEXT NOT NULL,
	fetched_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_publication_metadata_expires_at ON publication_metadata(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetMetadata(ctx context.Context, ids []string) (map[string]model.PublicationMetadata, error) {
	out := make(map[string]model.PublicationMetadata, len(ids))
	now := s.nowFunc().Unix()

	for _, batch := range chunk(ids, lookupChunk) {
		args := make([]any, 0, len(batch)+1)
		for _, id := range batch {
			args = append(args, id)
		}
		args = append(args, now)

		query := `SELECT scopus_id, record FROM publication_metadata
		 WHERE scopus_id IN (` + placeholders(len(batch)) + `) AND expires_at > ?`
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: get metadata")
		}
		if err := scanRecords(rows, out); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan metadata")
		}
	}
	return out, nil
}

func (s *SQLiteStore) PutMetadata(ctx context.Context, records []model.PublicationMetadata, ttl time.Duration) error {
	if len(records) == 0 {
		return nil
	}
	now := s.nowFunc()
	expiresAt := now.Add(ttl)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO publication_metadata (scopus_id, record, fetched_at, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(scopus_id) DO UPDATE SET record = excluded.record, fetched_at = excluded.fetched_at, expires_at = excluded.expires_at`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare upsert")
	}
	defer stmt.Close() //nolint:errcheck

	for i := range records {
		rec := &records[i]
		if rec.ScopusID == "" {
			continue
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return eris.Wrapf(err, "sqlite: marshal %s", rec.ScopusID)
		}
		if _, err := stmt.ExecContext(ctx, rec.ScopusID, string(data), now.Unix(), expiresAt.Unix()); err != nil {
			return eris.Wrapf(err, "sqlite: upsert %s", rec.ScopusID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

func (s *SQLiteStore) DeleteExpired(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM publication_metadata WHERE expires_at <= ?`, s.nowFunc().Unix(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired metadata")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func scanRecords(rows *sql.Rows, out map[string]model.PublicationMetadata) error {
	defer rows.Close() //nolint:errcheck
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return err
		}
		var rec model.PublicationMetadata
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return eris.Wrapf(err, "unmarshal %s", id)
		}
		out[id] = rec
	}
	return rows.Err()
}
