// Package enrich turns Scopus identifiers into publication metadata, either
// live from the Scopus API (with an optional cache) or from a saved dump.
package enrich

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/pubmetrics/internal/metrics"
	"github.com/sells-group/pubmetrics/internal/model"
	"github.com/sells-group/pubmetrics/internal/store"
	"github.com/sells-group/pubmetrics/pkg/scopus"
)

// ScopusSource fetches metadata from Scopus, consulting the cache first.
type ScopusSource struct {
	client      scopus.Client
	cache       store.MetadataCache
	ttl         time.Duration
	concurrency int
}

// Option configures a ScopusSource.
type Option func(*ScopusSource)

// WithCache enables read-through caching with the given time-to-live.
func WithCache(c store.MetadataCache, ttl time.Duration) Option {
	return func(s *ScopusSource) {
		s.cache = c
		s.ttl = ttl
	}
}

// WithConcurrency sets the number of in-flight requests.
func WithConcurrency(n int) Option {
	return func(s *ScopusSource) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewScopusSource creates a metadata source backed by client.
func NewScopusSource(client scopus.Client, opts ...Option) *ScopusSource {
	s := &ScopusSource{
		client:      client,
		ttl:         30 * 24 * time.Hour,
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ metrics.MetadataSource = (*ScopusSource)(nil)

// Fetch retrieves metadata for ids. Individual lookup failures are logged and
// counted in Failed; only cancellation aborts the batch.
func (s *ScopusSource) Fetch(ctx context.Context, ids []string, progress metrics.ProgressFunc) (*model.FetchResult, error) {
	ids = dedupe(ids)
	res := &model.FetchResult{Requested: len(ids)}
	if len(ids) == 0 {
		return res, nil
	}

	found := make(map[string]model.PublicationMetadata, len(ids))
	if s.cache != nil {
		cached, err := s.cache.GetMetadata(ctx, ids)
		if err != nil {
			zap.L().Warn("enrich: cache lookup failed, fetching all", zap.Error(err))
		} else {
			for id, rec := range cached {
				found[id] = rec
			}
			res.Cached = len(cached)
		}
	}

	var missing []string
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}

	total := len(ids)
	var done atomic.Int64
	done.Store(int64(res.Cached))
	var progressMu sync.Mutex
	report := func() {
		if progress == nil {
			return
		}
		progressMu.Lock()
		progress(int(done.Load()), total)
		progressMu.Unlock()
	}
	if res.Cached > 0 {
		report()
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	var mu sync.Mutex
	var fresh []model.PublicationMetadata
	var failed atomic.Int64

	for _, id := range missing {
		g.Go(func() error {
			defer func() {
				done.Add(1)
				report()
			}()

			abs, err := s.client.AbstractByEID(gCtx, id)
			if err != nil {
				if gCtx.Err() != nil {
					return gCtx.Err()
				}
				failed.Add(1)
				zap.L().Warn("enrich: metadata lookup failed",
					zap.String("scopus_id", id),
					zap.Error(err),
				)
				return nil
			}

			rec := FromAbstract(abs)
			rec.ScopusID = id
			mu.Lock()
			fresh = append(fresh, rec)
			found[id] = rec
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "enrich: fetch metadata")
	}
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "enrich: fetch metadata")
	}

	if s.cache != nil && len(fresh) > 0 {
		if err := s.cache.PutMetadata(ctx, fresh, s.ttl); err != nil {
			zap.L().Warn("enrich: cache store failed", zap.Int("records", len(fresh)), zap.Error(err))
		}
	}

	res.Failed = int(failed.Load())
	for _, id := range ids {
		if rec, ok := found[id]; ok {
			res.Records = append(res.Records, rec)
		}
	}

	zap.L().Info("enrich: metadata fetched",
		zap.Int("requested", res.Requested),
		zap.Int("cached", res.Cached),
		zap.Int("fetched", len(fresh)),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}

// FromAbstract converts a Scopus abstract record to publication metadata.
func FromAbstract(a *scopus.Abstract) model.PublicationMetadata {
	rec := model.PublicationMetadata{
		ScopusID:           a.EID,
		Title:              a.Title,
		DocumentType:       a.AggregationType,
		SubtypeDescription: a.SubtypeDescription,
		Year:               a.Year,
		Month:              a.Month,
		Day:                a.Day,
		DOI:                a.DOI,
		PMID:               a.PMID,
		SourceTitle:        a.SourceTitle,
		Volume:             a.Volume,
		Issue:              a.Issue,
		Publisher:          a.Publisher,
		ISSN:               a.ISSN,
		Abstract:           a.Description,
	}
	for _, au := range a.Authors {
		rec.Authors = append(rec.Authors, model.Author{
			ID:          au.AUID,
			Seq:         au.Seq,
			GivenName:   au.GivenName,
			Surname:     au.Surname,
			IndexedName: au.IndexedName,
		})
	}
	return rec
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
