package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/pubmetrics/internal/metrics"
	"github.com/sells-group/pubmetrics/internal/model"
)

const rosterCSV = "\ufeffUsername,NetID,Position,ClaimedScopus,Computed Name Abbreviated,Arrival Date,PubMed,MaxPR_PubMed,EuropePMC,Scopus\n" +
	"jdoe,jd1,Professor, 111 ; 222 ;,Doe J.,2019-08-15,,PMID: 998877,,2-s2.0-1;2-s2.0-2\n" +
	",,,,,,,,,\n" +
	"asmith,,Assistant Professor,333,Smith A.,8/1/2020,12345.0,,,\n"

func TestParseRoster_CSV(t *testing.T) {
	tbl, err := Read("roster.csv", strings.NewReader(rosterCSV))
	require.NoError(t, err)
	assert.Equal(t, "roster.csv", tbl.Name)
	assert.Equal(t, "Username", tbl.Header[0])

	roster, err := ParseRoster(tbl)
	require.NoError(t, err)
	require.Len(t, roster, 2)

	jd := roster[0]
	assert.Equal(t, "jdoe", jd.Username)
	assert.Equal(t, "jd1", jd.Key())
	assert.Equal(t, "Professor", jd.Rank)
	assert.Equal(t, []string{"111", "222"}, jd.ClaimedIDs)
	assert.Equal(t, "Doe J.", jd.DisplayName)
	require.NotNil(t, jd.ArrivalDate)
	assert.Equal(t, time.Date(2019, 8, 15, 0, 0, 0, 0, time.UTC), *jd.ArrivalDate)
	assert.Nil(t, jd.DepartureDate)
	assert.Equal(t, "PMID: 998877", jd.MaxPRPubMed)
	assert.Equal(t, []string{"2-s2.0-1", "2-s2.0-2"}, jd.ScopusIDs)

	as := roster[1]
	assert.Equal(t, "asmith", as.Key())
	require.NotNil(t, as.ArrivalDate)
	assert.Equal(t, time.Date(2020, 8, 1, 0, 0, 0, 0, time.UTC), *as.ArrivalDate)
	assert.Empty(t, as.ScopusIDs)

	metrics.ConsolidateFaculty(roster)
	assert.Equal(t, "998877", roster[0].PMID)
	assert.Equal(t, "12345", roster[1].PMID)
}

func TestParseRoster_MissingColumns(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader("Username,Position\nu1,Professor\n"))
	require.NoError(t, err)

	_, err = ParseRoster(tbl)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumn))
	assert.Contains(t, err.Error(), "ClaimedScopus")
}

func TestParseRoster_NoRows(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader("Username,Position,ClaimedScopus\n"))
	require.NoError(t, err)

	_, err = ParseRoster(tbl)
	assert.True(t, errors.Is(err, ErrNoRows))
}

func TestParseClaims(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader("username,SCOPUS,PubMed\nU1, SID-1 ,\nU2,SID-1,PMC 42\n"))
	require.NoError(t, err)

	claims, err := ParseClaims(tbl)
	require.NoError(t, err)
	require.Len(t, claims, 2)
	assert.Equal(t, model.ClaimRecord{Username: "U1", ScopusID: "SID-1"}, claims[0])
	assert.Equal(t, "PMC 42", claims[1].PubMed)
	assert.True(t, claims[1].HasIdentifierColumns())

	_, err = ParseClaims(&Table{Header: []string{"Username"}})
	assert.True(t, errors.Is(err, ErrMissingColumn))
}

func TestReadXLSX(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Roster")
	require.NoError(t, err)
	addRow(sheet, []string{"Username", "Position", "ClaimedScopus"})
	addRow(sheet, []string{"u1", "Lecturer", "A1;A2"})

	path := filepath.Join(t.TempDir(), "roster.xlsx")
	require.NoError(t, f.Save(path))

	tbl, err := ReadFile(path)
	require.NoError(t, err)
	roster, err := ParseRoster(tbl)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, []string{"A1", "A2"}, roster[0].ClaimedIDs)
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want *time.Time
	}{
		{"", nil},
		{"garbage", nil},
		{"2024-07-01", ptrDate(2024, 7, 1)},
		{"07/01/2024", ptrDate(2024, 7, 1)},
		{"2024-07-01T10:00:00Z", ptrDate(2024, 7, 1)},
		{"45474", ptrDate(2024, 7, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseDate(tt.in))
		})
	}
}

func ptrDate(y, m, d int) *time.Time {
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	return &t
}

func sampleResult() *metrics.Result {
	return &metrics.Result{
		RunID: "run-1",
		Summaries: []model.FacultySummary{
			{
				Username: "U1", DisplayName: "One U.", Rank: "Professor",
				Last:        model.BucketCounts{PMIDCount: 2, PMIDs: []string{"11", "22"}},
				AnyPosition: model.BucketCounts{PMIDCount: 2, NonPMIDCount: 1, PMIDs: []string{"11", "22"}},
				Coauthored:  true,
			},
			{Username: "U2", Rank: "Lecturer"},
		},
		Assignments: []model.Assignment{
			{Username: "U1", DisplayName: "One U.", Rank: "Professor", TotalPublications: 3},
			{Username: "U2", Rank: "Lecturer"},
		},
	}
}

func TestFacultySummaryTable(t *testing.T) {
	tbl := FacultySummaryTable(sampleResult().Summaries)
	require.Len(t, tbl.Header, 16)
	require.Len(t, tbl.Rows, 2)

	row := tbl.Rows[0]
	require.Len(t, row, len(tbl.Header))
	assert.Equal(t, []string{"U1", "One U.", "Professor"}, row[:3])
	assert.Equal(t, []string{"0", "0", ""}, row[3:6])
	assert.Equal(t, []string{"2", "0", "11, 22"}, row[6:9])
	assert.Equal(t, []string{"2", "1", "11, 22"}, row[12:15])
	assert.Equal(t, "Yes", row[15])
	assert.Equal(t, "No", tbl.Rows[1][15])
}

func TestPublicationAssignmentTable(t *testing.T) {
	tbl := PublicationAssignmentTable(sampleResult().Assignments)
	assert.Equal(t, []string{"Username", "Name", "Position", "Total Publications"}, tbl.Header)
	assert.Equal(t, [][]string{
		{"U1", "One U.", "Professor", "3"},
		{"U2", "", "Lecturer", "0"},
	}, tbl.Rows)
}

func TestWriteFiles_CSV(t *testing.T) {
	dir := t.TempDir()
	paths, err := WriteFiles(dir, FormatCSV, sampleResult())
	require.NoError(t, err)
	require.Len(t, paths, 2)

	data, err := os.ReadFile(filepath.Join(dir, "publication_assignment.csv"))
	require.NoError(t, err)
	assert.Equal(t, "Username,Name,Position,Total Publications\nU1,One U.,Professor,3\nU2,,Lecturer,0\n", string(data))

	f, err := os.Open(paths[0])
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck
	back, err := ReadCSV(f)
	require.NoError(t, err)
	assert.Equal(t, FacultySummaryHeader, back.Header)
	assert.Equal(t, "11, 22", back.Rows[0][8])
}

func TestWriteFiles_XLSX(t *testing.T) {
	dir := t.TempDir()
	paths, err := WriteFiles(dir, FormatXLSX, sampleResult())
	require.NoError(t, err)
	require.Len(t, paths, 1)

	f, err := xlsx.OpenFile(paths[0])
	require.NoError(t, err)
	require.Len(t, f.Sheets, 2)
	assert.Equal(t, FacultySummaryName, f.Sheets[0].Name)
	assert.Equal(t, PublicationAssignmentName, f.Sheets[1].Name)
	assert.Equal(t, "Total Publications", f.Sheets[1].Rows[0].Cells[3].String())
}

func TestWriteFiles_JSON(t *testing.T) {
	dir := t.TempDir()
	paths, err := WriteFiles(dir, FormatJSON, sampleResult())
	require.NoError(t, err)

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "faculty_summary")
	assert.Contains(t, decoded, "publication_assignment")
}

func TestWriteFiles_UnknownFormat(t *testing.T) {
	_, err := WriteFiles(t.TempDir(), "pdf", sampleResult())
	require.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, &Table{Header: []string{"a", "b"}, Rows: [][]string{{"1", "x, y"}}}))
	assert.Equal(t, "a,b\n1,\"x, y\"\n", buf.String())
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "Sheet2", sheetName("", 1))
	assert.Equal(t, "roster", sheetName("roster.csv", 0))
	assert.Len(t, sheetName(strings.Repeat("x", 40), 0), 31)
}
