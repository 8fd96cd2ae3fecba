package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/pubmetrics/internal/model"
)

// ErrNoIdentifiers is returned when neither input table names a publication to fetch.
var ErrNoIdentifiers = errors.New("no identifiers found")

// ErrInvalidWindow is returned when the window ends before it starts.
var ErrInvalidWindow = errors.New("end date is before start date")

// ProgressFunc receives the number of processed identifiers out of total.
type ProgressFunc func(done, total int)

// MetadataSource fetches publication metadata for a batch of Scopus ids.
// Failures for individual ids are reported through FetchResult.Failed, not
// as an error.
type MetadataSource interface {
	Fetch(ctx context.Context, ids []string, progress ProgressFunc) (*model.FetchResult, error)
}

// Input bundles one invocation's tables and settings.
type Input struct {
	Roster   []model.FacultyRecord
	Claims   []model.ClaimRecord
	Window   model.DateWindow
	Policy   *Policy
	Source   MetadataSource
	Progress ProgressFunc
}

// Result holds both output tables plus the intermediate rows for inspection.
type Result struct {
	RunID       string                 `json:"run_id"`
	Window      model.DateWindow       `json:"window"`
	Fetch       model.FetchResult      `json:"fetch"`
	Rows        []model.JoinedRow      `json:"-"`
	Eligible    []model.JoinedRow      `json:"-"`
	Summaries   []model.FacultySummary `json:"faculty_summary"`
	Assignments []model.Assignment     `json:"publication_assignment"`
}

// Run executes consolidate, fetch, join, classify, filter, then summarize and resolve.
func Run(ctx context.Context, in Input) (*Result, error) {
	if !in.Window.Valid() {
		return nil, eris.Wrapf(ErrInvalidWindow, "metrics: window %s..%s",
			in.Window.Start.Format(time.DateOnly), in.Window.End.Format(time.DateOnly))
	}
	if in.Source == nil {
		return nil, eris.New("metrics: no metadata source configured")
	}
	policy := in.Policy
	if policy == nil {
		policy = DefaultPolicy()
	}

	runID := uuid.New().String()
	log := zap.L().With(zap.String("run_id", runID))
	start := time.Now()

	ConsolidateFaculty(in.Roster)

	ids := CollectScopusIDs(in.Roster, in.Claims)
	if len(ids) == 0 {
		return nil, eris.Wrap(ErrNoIdentifiers, "metrics: collect scopus ids")
	}
	log.Info("metrics: fetching metadata",
		zap.Int("roster", len(in.Roster)),
		zap.Int("claims", len(in.Claims)),
		zap.Int("identifiers", len(ids)),
	)

	fetched, err := in.Source.Fetch(ctx, ids, in.Progress)
	if err != nil {
		return nil, eris.Wrap(err, "metrics: fetch metadata")
	}
	if fetched == nil {
		fetched = &model.FetchResult{Requested: len(ids)}
	}

	rows := Join(in.Claims, in.Roster, fetched.Records)
	ClassifyRows(rows)
	eligible := FilterEligible(rows, in.Window, policy)

	res := &Result{
		RunID:       runID,
		Window:      in.Window,
		Fetch:       *fetched,
		Rows:        rows,
		Eligible:    eligible,
		Summaries:   Summarize(eligible, in.Roster),
		Assignments: Resolve(eligible, in.Roster, policy),
	}

	log.Info("metrics: run complete",
		zap.Int("joined_rows", len(rows)),
		zap.Int("eligible_rows", len(eligible)),
		zap.Int("metadata_records", len(fetched.Records)),
		zap.Int("fetch_failed", fetched.Failed),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

// CollectScopusIDs returns the distinct Scopus ids named by the roster and
// the claims, in first-seen order.
func CollectScopusIDs(roster []model.FacultyRecord, claims []model.ClaimRecord) []string {
	seen := make(map[string]struct{})
	var ids []string
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, f := range roster {
		for _, id := range f.ScopusIDs {
			add(id)
		}
	}
	for _, c := range claims {
		add(c.ScopusID)
	}
	return ids
}
