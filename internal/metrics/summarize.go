package metrics

import (
	"github.com/sells-group/pubmetrics/internal/model"
)

// Summarize produces one FacultySummary per distinct roster member, in roster
// order. Rows that did not join to a roster record are ignored.
func Summarize(rows []model.JoinedRow, roster []model.FacultyRecord) []model.FacultySummary {
	claimants := claimantsByPublication(rows)

	byKey := make(map[string]*model.FacultySummary, len(roster))
	summaries := make([]model.FacultySummary, 0, len(roster))
	order := make([]string, 0, len(roster))
	for i := range roster {
		f := &roster[i]
		if _, dup := byKey[f.Key()]; dup {
			continue
		}
		summaries = append(summaries, model.FacultySummary{
			Username:    f.Username,
			DisplayName: f.DisplayName,
			Rank:        f.Rank,
		})
		order = append(order, f.Key())
		byKey[f.Key()] = nil
	}
	for i, key := range order {
		byKey[key] = &summaries[i]
	}

	for _, r := range rows {
		if r.Faculty == nil {
			continue
		}
		s := byKey[r.Faculty.Key()]
		if s == nil {
			continue
		}
		if r.Position.First {
			s.First.Add(r.PMID)
		}
		if r.Position.Last {
			s.Last.Add(r.PMID)
		}
		if r.Position.Middle {
			s.Middle.Add(r.PMID)
		}
		s.AnyPosition.Add(r.PMID)

		if len(claimants[r.Claim.ScopusID]) > 1 {
			s.Coauthored = true
		}
	}

	return summaries
}

// claimantsByPublication maps each Scopus id to the set of roster keys that
// claim it within rows.
func claimantsByPublication(rows []model.JoinedRow) map[string]map[string]struct{} {
	out := make(map[string]map[string]struct{})
	for _, r := range rows {
		if r.Faculty == nil || r.Claim.ScopusID == "" {
			continue
		}
		set, ok := out[r.Claim.ScopusID]
		if !ok {
			set = make(map[string]struct{})
			out[r.Claim.ScopusID] = set
		}
		set[r.Faculty.Key()] = struct{}{}
	}
	return out
}
