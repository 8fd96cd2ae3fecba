package metrics

import (
	"github.com/sells-group/pubmetrics/internal/model"
)

// Classify reports whether any claimed author id sits in the first, last or a
// middle position of authors. A single-author list only ever sets First.
func Classify(claimed map[string]struct{}, authors []string) model.Position {
	if len(claimed) == 0 || len(authors) == 0 {
		return model.Position{}
	}

	has := func(id string) bool {
		_, ok := claimed[id]
		return ok
	}

	if len(authors) == 1 {
		return model.Position{First: has(authors[0])}
	}

	pos := model.Position{
		First: has(authors[0]),
		Last:  has(authors[len(authors)-1]),
	}
	for _, id := range authors[1 : len(authors)-1] {
		if has(id) {
			pos.Middle = true
			break
		}
	}
	return pos
}

// ClassifyRows sets Position on every row. Rows without a roster match,
// without metadata, or whose metadata and PMID identify nothing stay unflagged.
func ClassifyRows(rows []model.JoinedRow) {
	for i := range rows {
		r := &rows[i]
		r.Position = model.Position{}
		if r.Faculty == nil || r.Metadata == nil {
			continue
		}
		if !r.Metadata.HasReference() && r.PMID == "" {
			continue
		}
		r.Position = Classify(r.Faculty.ClaimedSet(), r.Metadata.AuthorIDs())
	}
}
