package enrich

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/pubmetrics/internal/metrics"
	"github.com/sells-group/pubmetrics/internal/model"
)

// Dump is the on-disk form of a metadata fetch, written by the fetch command
// and replayed with run --offline.
type Dump struct {
	FetchedAt time.Time                   `json:"fetched_at"`
	Records   []model.PublicationMetadata `json:"records"`
}

// SaveDump writes records as indented JSON to path.
func SaveDump(path string, records []model.PublicationMetadata) error {
	d := Dump{FetchedAt: time.Now().UTC(), Records: records}
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return eris.Wrap(err, "enrich: marshal dump")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "enrich: write dump %s", path)
	}
	return nil
}

// LoadDump reads a dump written by SaveDump.
func LoadDump(path string) (*Dump, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "enrich: read dump %s", path)
	}
	var d Dump
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, eris.Wrapf(err, "enrich: parse dump %s", path)
	}
	return &d, nil
}

// StaticSource serves metadata from memory. Ids with no record count as failed.
type StaticSource struct {
	byID map[string][]model.PublicationMetadata
}

// NewStaticSource indexes records by Scopus id. Duplicate ids are kept.
func NewStaticSource(records []model.PublicationMetadata) *StaticSource {
	s := &StaticSource{byID: make(map[string][]model.PublicationMetadata, len(records))}
	for _, rec := range records {
		if rec.ScopusID == "" {
			continue
		}
		s.byID[rec.ScopusID] = append(s.byID[rec.ScopusID], rec)
	}
	return s
}

var _ metrics.MetadataSource = (*StaticSource)(nil)

// Fetch returns the records matching ids.
func (s *StaticSource) Fetch(ctx context.Context, ids []string, progress metrics.ProgressFunc) (*model.FetchResult, error) {
	ids = dedupe(ids)
	res := &model.FetchResult{Requested: len(ids)}
	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "enrich: static fetch")
		}
		recs, ok := s.byID[id]
		if !ok {
			res.Failed++
		}
		res.Records = append(res.Records, recs...)
		if progress != nil {
			progress(i+1, len(ids))
		}
	}
	res.Cached = len(ids) - res.Failed
	return res, nil
}
