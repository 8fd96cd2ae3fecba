package metrics

import (
	"github.com/sells-group/pubmetrics/internal/model"
)

// Owner is the faculty member a DOI was attributed to.
type Owner struct {
	DOI       string
	FacultyID string
	RankIndex int
}

// AssignOwners picks one owner per DOI among rows whose faculty has a ranked
// title: the most senior claimant, or the first in row order on a tie. Rows
// without a DOI, without a roster match, or with an unranked title are skipped.
// Owners are returned in order of first appearance of their DOI.
func AssignOwners(rows []model.JoinedRow, policy *Policy) []Owner {
	if policy == nil {
		policy = defaultPolicy
	}

	idx := make(map[string]int)
	var owners []Owner
	for _, r := range rows {
		doi := r.DOI()
		if doi == "" || r.Faculty == nil {
			continue
		}
		rank, ok := policy.RankIndex(r.Faculty.Rank)
		if !ok {
			continue
		}

		i, seen := idx[doi]
		if !seen {
			idx[doi] = len(owners)
			owners = append(owners, Owner{DOI: doi, FacultyID: r.Faculty.Key(), RankIndex: rank})
			continue
		}
		// Strictly lower index only, so the first claimant keeps a tie.
		if rank < owners[i].RankIndex {
			owners[i].FacultyID = r.Faculty.Key()
			owners[i].RankIndex = rank
		}
	}
	return owners
}

// Resolve counts attributed DOIs per roster member. Every distinct roster
// member appears, in roster order, with a count of zero or more.
func Resolve(rows []model.JoinedRow, roster []model.FacultyRecord, policy *Policy) []model.Assignment {
	counts := make(map[string]int)
	for _, o := range AssignOwners(rows, policy) {
		counts[o.FacultyID]++
	}

	seen := make(map[string]struct{}, len(roster))
	out := make([]model.Assignment, 0, len(roster))
	for _, f := range roster {
		if _, dup := seen[f.Key()]; dup {
			continue
		}
		seen[f.Key()] = struct{}{}
		out = append(out, model.Assignment{
			Username:          f.Username,
			DisplayName:       f.DisplayName,
			Rank:              f.Rank,
			TotalPublications: counts[f.Key()],
		})
	}
	return out
}
