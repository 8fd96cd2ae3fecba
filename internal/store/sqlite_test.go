package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/pubmetrics/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func sampleRecord(id string) model.PublicationMetadata {
	return model.PublicationMetadata{
		ScopusID:           id,
		Title:              "Title " + id,
		Authors:            []model.Author{{ID: "A1", Seq: 1}, {ID: "A2", Seq: 2}},
		SubtypeDescription: "Article",
		Year:               "2024",
		DOI:                "10.1/" + id,
	}
}

func TestSQLite_PutAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.PutMetadata(ctx, []model.PublicationMetadata{sampleRecord("S1"), sampleRecord("S2")}, time.Hour))

	got, err := st.GetMetadata(ctx, []string{"S1", "S2", "S3"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, sampleRecord("S1"), got["S1"])
	s2 := got["S2"]
	assert.Equal(t, []string{"A1", "A2"}, s2.AuthorIDs())
	_, ok := got["S3"]
	assert.False(t, ok)
}

func TestSQLite_PutOverwrites(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.PutMetadata(ctx, []model.PublicationMetadata{sampleRecord("S1")}, time.Hour))
	updated := sampleRecord("S1")
	updated.Title = "Revised"
	require.NoError(t, st.PutMetadata(ctx, []model.PublicationMetadata{updated}, time.Hour))

	got, err := st.GetMetadata(ctx, []string{"S1"})
	require.NoError(t, err)
	assert.Equal(t, "Revised", got["S1"].Title)
}

func TestSQLite_ExpiredNotReturned(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.PutMetadata(ctx, []model.PublicationMetadata{sampleRecord("old")}, -time.Hour))
	require.NoError(t, st.PutMetadata(ctx, []model.PublicationMetadata{sampleRecord("new")}, time.Hour))

	got, err := st.GetMetadata(ctx, []string{"old", "new"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Contains(t, got, "new")

	n, err := st.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = st.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestSQLite_SkipsBlankIDsAndEmptyBatch(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.PutMetadata(ctx, nil, time.Hour))
	require.NoError(t, st.PutMetadata(ctx, []model.PublicationMetadata{{Title: "no id"}}, time.Hour))

	got, err := st.GetMetadata(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLite_LargeLookupIsChunked(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	var recs []model.PublicationMetadata
	var ids []string
	for i := 0; i < lookupChunk+25; i++ {
		id := fmt.Sprintf("S%04d", i)
		ids = append(ids, id)
		recs = append(recs, sampleRecord(id))
	}
	require.NoError(t, st.PutMetadata(ctx, recs, time.Hour))

	got, err := st.GetMetadata(ctx, ids)
	require.NoError(t, err)
	assert.Len(t, got, len(ids))
}

func TestOpen_SQLiteAndUnknownDriver(t *testing.T) {
	ctx := context.Background()

	c, err := Open(ctx, "sqlite", filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() }) //nolint:errcheck

	require.NoError(t, c.PutMetadata(ctx, []model.PublicationMetadata{sampleRecord("S1")}, time.Hour))
	got, err := c.GetMetadata(ctx, []string{"S1"})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = Open(ctx, "mongo", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}

func TestChunk(t *testing.T) {
	assert.Nil(t, chunk(nil, 3))
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, chunk([]string{"a", "b", "c"}, 2))
	assert.Equal(t, "?,?,?", placeholders(3))
	assert.Equal(t, "", placeholders(0))
}
