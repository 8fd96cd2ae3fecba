package report

import (
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/pubmetrics/internal/metrics"
	"github.com/sells-group/pubmetrics/internal/model"
)

// Roster column names.
const (
	ColUsername      = "Username"
	ColNetID         = "NetID"
	ColPosition      = "Position"
	ColClaimedScopus = "ClaimedScopus"
	ColName          = "Computed Name Abbreviated"
	ColArrival       = "Arrival Date"
	ColDeparture     = "Departure Date"
	ColPubMed        = "PubMed"
	ColMaxPRPubMed   = "MaxPR_PubMed"
	ColEuropePMC     = "EuropePMC"
	ColScopus        = "Scopus"
)

// ParseRoster converts a roster table into faculty records in row order.
func ParseRoster(t *Table) ([]model.FacultyRecord, error) {
	cols := t.columns()
	if err := cols.require("roster", ColUsername, ColPosition, ColClaimedScopus); err != nil {
		return nil, err
	}
	if len(t.Rows) == 0 {
		return nil, eris.Wrap(ErrNoRows, "roster")
	}

	out := make([]model.FacultyRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, model.FacultyRecord{
			Username:      cols.get(row, ColUsername),
			NetID:         cols.get(row, ColNetID),
			DisplayName:   cols.get(row, ColName),
			Rank:          cols.get(row, ColPosition),
			ClaimedIDs:    metrics.SplitIDs(cols.get(row, ColClaimedScopus)),
			ArrivalDate:   parseDate(cols.get(row, ColArrival)),
			DepartureDate: parseDate(cols.get(row, ColDeparture)),
			PubMed:        cols.get(row, ColPubMed),
			MaxPRPubMed:   cols.get(row, ColMaxPRPubMed),
			EuropePMC:     cols.get(row, ColEuropePMC),
			ScopusIDs:     metrics.SplitIDs(cols.get(row, ColScopus)),
		})
	}
	return out, nil
}

// ParseClaims converts a claims table into claim records in row order.
func ParseClaims(t *Table) ([]model.ClaimRecord, error) {
	cols := t.columns()
	if err := cols.require("claims", ColUsername, ColScopus); err != nil {
		return nil, err
	}
	if len(t.Rows) == 0 {
		return nil, eris.Wrap(ErrNoRows, "claims")
	}

	out := make([]model.ClaimRecord, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, model.ClaimRecord{
			Username:    cols.get(row, ColUsername),
			ScopusID:    cols.get(row, ColScopus),
			PubMed:      cols.get(row, ColPubMed),
			MaxPRPubMed: cols.get(row, ColMaxPRPubMed),
			EuropePMC:   cols.get(row, ColEuropePMC),
		})
	}
	return out, nil
}

var dateLayouts = []string{
	time.DateOnly,
	"2006-01-02 15:04:05",
	time.RFC3339,
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
	"01-02-06",
}

// excelEpoch is day zero of spreadsheet serial dates.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// parseDate accepts common spreadsheet date renderings; unparsable values are nil.
func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			d = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 && serial < 2958466 {
		d := excelEpoch.AddDate(0, 0, int(serial))
		return &d
	}
	return nil
}
