// Package metrics links faculty claims to publication metadata and computes
// authorship-position and rank-attributed publication counts.
package metrics

import (
	"regexp"
	"strings"

	"github.com/sells-group/pubmetrics/internal/model"
)

var digitRun = regexp.MustCompile(`\d+`)

// ExtractDigits returns the first run of ASCII digits in s, or "".
func ExtractDigits(s string) string {
	return digitRun.FindString(s)
}

// ConsolidatePMID returns the digits of the first candidate that contains any.
// Candidates are evaluated in the order given.
func ConsolidatePMID(candidates ...string) string {
	for _, c := range candidates {
		if d := ExtractDigits(c); d != "" {
			return d
		}
	}
	return ""
}

// ConsolidateFaculty fills PMID on every roster record from its identifier
// columns (PubMed, then MaxPR_PubMed, then EuropePMC).
func ConsolidateFaculty(roster []model.FacultyRecord) {
	for i := range roster {
		f := &roster[i]
		f.PMID = ConsolidatePMID(f.PubMed, f.MaxPRPubMed, f.EuropePMC)
	}
}

// rowPMID picks the consolidated PMID for a joined row. A claim carrying its
// own identifier columns wins over the roster record.
func rowPMID(claim *model.ClaimRecord, faculty *model.FacultyRecord) string {
	if claim.HasIdentifierColumns() {
		return ConsolidatePMID(claim.PubMed, claim.MaxPRPubMed, claim.EuropePMC)
	}
	if faculty == nil {
		return ""
	}
	if faculty.PMID != "" {
		return faculty.PMID
	}
	return ConsolidatePMID(faculty.PubMed, faculty.MaxPRPubMed, faculty.EuropePMC)
}

// SplitIDs splits a semicolon-delimited id list, trimming entries and
// dropping blanks.
func SplitIDs(raw string) []string {
	parts := strings.Split(raw, ";")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		ids = append(ids, p)
	}
	return ids
}
