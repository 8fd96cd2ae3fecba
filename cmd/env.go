package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/pubmetrics/internal/config"
	"github.com/sells-group/pubmetrics/internal/enrich"
	"github.com/sells-group/pubmetrics/internal/metrics"
	"github.com/sells-group/pubmetrics/internal/model"
	"github.com/sells-group/pubmetrics/internal/resilience"
	"github.com/sells-group/pubmetrics/internal/store"
	"github.com/sells-group/pubmetrics/pkg/scopus"
)

// sourceEnv holds the metadata source and the resources behind it.
type sourceEnv struct {
	Source metrics.MetadataSource
	Cache  store.MetadataCache // may be nil
}

// Close releases the cache connection, if any.
func (e *sourceEnv) Close() {
	if e.Cache != nil {
		_ = e.Cache.Close()
	}
}

// initSource builds the metadata source. A non-empty offline path replays a
// metadata dump; otherwise Scopus is queried, through the cache when one is
// configured. Callers should defer env.Close().
func initSource(ctx context.Context, c *config.Config, offline string) (*sourceEnv, error) {
	if offline != "" {
		dump, err := enrich.LoadDump(offline)
		if err != nil {
			return nil, err
		}
		zap.L().Info("using offline metadata dump",
			zap.String("path", offline),
			zap.Int("records", len(dump.Records)),
			zap.Time("fetched_at", dump.FetchedAt),
		)
		return &sourceEnv{Source: enrich.NewStaticSource(dump.Records)}, nil
	}

	client := newScopusClient(c.Scopus)
	opts := []enrich.Option{enrich.WithConcurrency(c.Scopus.Concurrency)}

	env := &sourceEnv{}
	if c.Cache.Driver != "" {
		cache, err := store.Open(ctx, c.Cache.Driver, c.Cache.DatabaseURL)
		if err != nil {
			return nil, eris.Wrap(err, "open metadata cache")
		}
		env.Cache = cache
		opts = append(opts, enrich.WithCache(cache, c.Cache.TTL()))
		zap.L().Info("metadata cache enabled",
			zap.String("driver", c.Cache.Driver),
			zap.Duration("ttl", c.Cache.TTL()),
		)
	}
	env.Source = enrich.NewScopusSource(client, opts...)
	return env, nil
}

// newScopusClient wires rate limiting, retries and the circuit breaker into
// the Scopus client.
func newScopusClient(sc config.ScopusConfig) scopus.Client {
	breaker := resilience.NewBreaker(resilience.BreakerConfig{
		FailureThreshold: sc.Circuit.FailureThreshold,
		ResetTimeout:     time.Duration(sc.Circuit.ResetTimeoutSecs) * time.Second,
		ShouldTrip:       resilience.IsTransient,
		OnStateChange: func(from, to resilience.CircuitState) {
			zap.L().Warn("scopus circuit breaker state change",
				zap.Stringer("from", from),
				zap.Stringer("to", to),
			)
		},
	})

	return scopus.NewClient(sc.Key,
		scopus.WithBaseURL(sc.BaseURL),
		scopus.WithHTTPClient(&http.Client{Timeout: time.Duration(sc.TimeoutSecs) * time.Second}),
		scopus.WithRateLimit(sc.RatePerSec, sc.Burst),
		scopus.WithRetry(resilience.NewRetryPolicy(sc.Retry.MaxAttempts, sc.Retry.InitialBackoffMs, sc.Retry.MaxBackoffMs)),
		scopus.WithBreaker(breaker),
	)
}

// loadPolicy reads the policy file when one is configured.
func loadPolicy(path string) (*metrics.Policy, error) {
	if path == "" {
		return metrics.DefaultPolicy(), nil
	}
	p, err := metrics.LoadPolicy(path)
	if err != nil {
		return nil, err
	}
	zap.L().Info("policy loaded", zap.String("path", path))
	return p, nil
}

// resolveWindow picks the reporting window: an academic year wins, then
// explicit bounds, then the configured defaults per bound.
func resolveWindow(c config.WindowConfig, start, end string, academicYear int) (model.DateWindow, error) {
	if academicYear > 0 {
		if start != "" || end != "" {
			return model.DateWindow{}, eris.New("--academic-year cannot be combined with --start or --end")
		}
		return model.AcademicYear(academicYear), nil
	}
	if start == "" {
		start = c.Start
	}
	if end == "" {
		end = c.End
	}
	return metrics.ParseWindow(start, end)
}

// logProgress returns a progress callback that logs every step items and at completion.
func logProgress(step int) metrics.ProgressFunc {
	if step <= 0 {
		step = 25
	}
	return func(done, total int) {
		if done%step == 0 || done == total {
			zap.L().Info("fetch progress", zap.Int("done", done), zap.Int("total", total))
		}
	}
}
