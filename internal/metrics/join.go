package metrics

import (
	"github.com/sells-group/pubmetrics/internal/model"
)

// Join left-joins claims to the roster (claim Username against faculty Key)
// and then to the fetched metadata (on Scopus id). Claim order is preserved.
//
// Every claim yields at least one row. Duplicate metadata ids fan a claim out
// into one row per match.
func Join(claims []model.ClaimRecord, roster []model.FacultyRecord, metadata []model.PublicationMetadata) []model.JoinedRow {
	byKey := make(map[string]*model.FacultyRecord, len(roster))
	for i := range roster {
		f := &roster[i]
		if _, dup := byKey[f.Key()]; dup {
			continue
		}
		byKey[f.Key()] = f
	}

	byID := make(map[string][]*model.PublicationMetadata, len(metadata))
	for i := range metadata {
		m := &metadata[i]
		byID[m.ScopusID] = append(byID[m.ScopusID], m)
	}

	rows := make([]model.JoinedRow, 0, len(claims))
	for _, claim := range claims {
		faculty := byKey[claim.Username]
		pmid := rowPMID(&claim, faculty)

		matches := byID[claim.ScopusID]
		if claim.ScopusID == "" || len(matches) == 0 {
			rows = append(rows, model.JoinedRow{Claim: claim, Faculty: faculty, PMID: pmid})
			continue
		}
		for _, m := range matches {
			rows = append(rows, model.JoinedRow{Claim: claim, Faculty: faculty, Metadata: m, PMID: pmid})
		}
	}
	return rows
}
