package metrics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/pubmetrics/internal/model"
)

func set(ids ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func TestClassify_SingleAuthor(t *testing.T) {
	authors := []string{"A1"}
	assert.Equal(t, model.Position{First: true}, Classify(set("A1"), authors))
	assert.Equal(t, model.Position{}, Classify(set("B2"), authors))
}

func TestClassify_MultiAuthor(t *testing.T) {
	authors := []string{"A1", "A2", "A3", "A4"}

	tests := []struct {
		claimed map[string]struct{}
		want    model.Position
	}{
		{set("A3"), model.Position{Middle: true}},
		{set("A1"), model.Position{First: true}},
		{set("A4"), model.Position{Last: true}},
		{set("A1", "A4"), model.Position{First: true, Last: true}},
		{set("A2", "A3"), model.Position{Middle: true}},
		{set("Z9"), model.Position{}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.claimed), func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.claimed, authors))
		})
	}
}

func TestClassify_EmptyInputs(t *testing.T) {
	assert.Equal(t, model.Position{}, Classify(nil, []string{"A1"}))
	assert.Equal(t, model.Position{}, Classify(set(), []string{"A1", "A2"}))
	assert.Equal(t, model.Position{}, Classify(set("A1"), nil))
}

func TestClassify_TwoAuthors(t *testing.T) {
	authors := []string{"A1", "A2"}
	assert.Equal(t, model.Position{First: true}, Classify(set("A1"), authors))
	assert.Equal(t, model.Position{Last: true}, Classify(set("A2"), authors))
}

// A single author never occupies both endpoints; First and Last together
// require two distinct claimed endpoint authors.
func TestClassify_EndpointsNeedDistinctAuthors(t *testing.T) {
	pool := []string{"A", "B", "C", "D"}
	for n := 1; n <= 4; n++ {
		authors := pool[:n]
		for mask := 0; mask < 1<<len(pool); mask++ {
			claimed := set()
			for i, id := range pool {
				if mask&(1<<i) != 0 {
					claimed[id] = struct{}{}
				}
			}
			pos := Classify(claimed, authors)

			if n == 1 {
				assert.False(t, pos.Last, "single author flagged last")
				assert.False(t, pos.Middle, "single author flagged middle")
			}
			if n <= 2 {
				assert.False(t, pos.Middle, "no interior authors for n=%d", n)
			}
			if pos.First && pos.Last {
				_, first := claimed[authors[0]]
				_, last := claimed[authors[n-1]]
				assert.True(t, n >= 2 && first && last)
			}
		}
	}
}

func TestClassifyRows(t *testing.T) {
	f := &model.FacultyRecord{Username: "u1", ClaimedIDs: []string{"P1"}}
	meta := &model.PublicationMetadata{
		ScopusID: "S1",
		DOI:      "10.1/x",
		Authors:  []model.Author{{ID: "P2"}, {ID: "P1"}},
	}
	untitled := &model.PublicationMetadata{ScopusID: "S2", Authors: []model.Author{{ID: "P1"}}}

	rows := []model.JoinedRow{
		{Faculty: f, Metadata: meta},
		{Faculty: nil, Metadata: meta},
		{Faculty: f, Metadata: nil},
		{Faculty: f, Metadata: untitled},
		{Faculty: f, Metadata: untitled, PMID: "42"},
	}
	ClassifyRows(rows)

	assert.Equal(t, model.Position{Last: true}, rows[0].Position)
	assert.Equal(t, model.Position{}, rows[1].Position)
	assert.Equal(t, model.Position{}, rows[2].Position)
	assert.Equal(t, model.Position{}, rows[3].Position)
	assert.Equal(t, model.Position{First: true}, rows[4].Position)
}
