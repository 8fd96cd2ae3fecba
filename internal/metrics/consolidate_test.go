package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/pubmetrics/internal/model"
)

func TestExtractDigits(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"12345", "12345"},
		{"12345.0", "12345"},
		{"PMID: 987654", "987654"},
		{"PMC12 and 34", "12"},
		{"", ""},
		{"nan", ""},
		{"<NA>", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractDigits(tt.in))
		})
	}
}

func TestConsolidatePMID_Priority(t *testing.T) {
	assert.Equal(t, "111", ConsolidatePMID("111", "222", "333"))
	assert.Equal(t, "222", ConsolidatePMID("", "pmid 222", "333"))
	assert.Equal(t, "333", ConsolidatePMID("n/a", "", "MED/333"))
	assert.Equal(t, "", ConsolidatePMID("", "none", "unknown"))
	assert.Equal(t, "", ConsolidatePMID())
}

func TestConsolidateFaculty_FallsBackToSecondColumn(t *testing.T) {
	roster := []model.FacultyRecord{
		{Username: "a", MaxPRPubMed: "PMID 4455", EuropePMC: "9999"},
		{Username: "b", PubMed: "1.0"},
		{Username: "c"},
	}
	ConsolidateFaculty(roster)

	assert.Equal(t, "4455", roster[0].PMID)
	assert.Equal(t, "1", roster[1].PMID)
	assert.Empty(t, roster[2].PMID)
}

func TestRowPMID_ClaimColumnsWin(t *testing.T) {
	f := &model.FacultyRecord{PMID: "100"}

	assert.Equal(t, "100", rowPMID(&model.ClaimRecord{}, f))
	assert.Equal(t, "200", rowPMID(&model.ClaimRecord{EuropePMC: "200"}, f))
	assert.Equal(t, "", rowPMID(&model.ClaimRecord{PubMed: "n/a"}, f))
	assert.Equal(t, "", rowPMID(&model.ClaimRecord{}, nil))
}

func TestSplitIDs(t *testing.T) {
	assert.Equal(t, []string{"A1", "A2"}, SplitIDs(" A1 ; ;A2;"))
	assert.Empty(t, SplitIDs(""))
}
