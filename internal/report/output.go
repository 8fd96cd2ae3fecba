package report

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/pubmetrics/internal/metrics"
	"github.com/sells-group/pubmetrics/internal/model"
)

// Output table names, also used as file stems and sheet names.
const (
	FacultySummaryName        = "faculty_summary"
	PublicationAssignmentName = "publication_assignment"
)

// Supported output formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatJSON = "json"
)

// FacultySummaryHeader is the column order of the faculty summary table.
var FacultySummaryHeader = []string{
	"Username", "Name", "Position",
	"First Author PMID Count", "First Author NonPMID Count", "First Author PMIDs",
	"Last Author PMID Count", "Last Author NonPMID Count", "Last Author PMIDs",
	"Middle Author PMID Count", "Middle Author NonPMID Count", "Middle Author PMIDs",
	"Any Position PMID Count", "Any Position NonPMID Count", "Any Position PMIDs",
	"Coauthored With Faculty",
}

// PublicationAssignmentHeader is the column order of the assignment table.
var PublicationAssignmentHeader = []string{"Username", "Name", "Position", "Total Publications"}

// FacultySummaryTable renders summaries as a table.
func FacultySummaryTable(summaries []model.FacultySummary) *Table {
	t := &Table{Name: FacultySummaryName, Header: FacultySummaryHeader}
	for _, s := range summaries {
		row := []string{s.Username, s.DisplayName, s.Rank}
		for _, b := range []model.BucketCounts{s.First, s.Last, s.Middle, s.AnyPosition} {
			row = append(row,
				strconv.Itoa(b.PMIDCount),
				strconv.Itoa(b.NonPMIDCount),
				strings.Join(b.PMIDs, ", "),
			)
		}
		row = append(row, yesNo(s.Coauthored))
		t.Rows = append(t.Rows, row)
	}
	return t
}

// PublicationAssignmentTable renders assignments as a table.
func PublicationAssignmentTable(assignments []model.Assignment) *Table {
	t := &Table{Name: PublicationAssignmentName, Header: PublicationAssignmentHeader}
	for _, a := range assignments {
		t.Rows = append(t.Rows, []string{a.Username, a.DisplayName, a.Rank, strconv.Itoa(a.TotalPublications)})
	}
	return t
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// ValidFormat reports whether format is one Write understands.
func ValidFormat(format string) bool {
	switch format {
	case FormatCSV, FormatXLSX, FormatJSON:
		return true
	}
	return false
}

// WriteJSON writes the run result with both tables.
func WriteJSON(w io.Writer, res *metrics.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(res), "json: encode result")
}

// WriteFiles writes both tables into dir in the given format and returns the
// paths written. CSV produces one file per table; XLSX and JSON produce one
// file holding both.
func WriteFiles(dir, format string, res *metrics.Result) ([]string, error) {
	if !ValidFormat(format) {
		return nil, eris.Errorf("report: unknown format %q", format)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "report: create %s", dir)
	}

	summary := FacultySummaryTable(res.Summaries)
	assignment := PublicationAssignmentTable(res.Assignments)

	switch format {
	case FormatCSV:
		var paths []string
		for _, t := range []*Table{summary, assignment} {
			path := filepath.Join(dir, t.Name+".csv")
			if err := writeFile(path, func(w io.Writer) error { return WriteCSV(w, t) }); err != nil {
				return nil, err
			}
			paths = append(paths, path)
		}
		return paths, nil
	case FormatXLSX:
		path := filepath.Join(dir, "metrics.xlsx")
		return []string{path}, writeFile(path, func(w io.Writer) error {
			return WriteXLSX(w, summary, assignment)
		})
	default:
		path := filepath.Join(dir, "metrics.json")
		return []string{path}, writeFile(path, func(w io.Writer) error { return WriteJSON(w, res) })
	}
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "report: create %s", path)
	}
	if err := write(f); err != nil {
		f.Close() //nolint:errcheck
		return eris.Wrapf(err, "report: write %s", path)
	}
	return eris.Wrapf(f.Close(), "report: close %s", path)
}
