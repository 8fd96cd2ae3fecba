package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/sells-group/pubmetrics/internal/model"
)

var defaultPolicy = DefaultPolicy()

// IsPeerReviewed reports whether subtype is one of the default peer-reviewed
// Scopus subtypes.
func IsPeerReviewed(subtype string) bool {
	return defaultPolicy.IsPeerReviewed(subtype)
}

// ParsePublicationDate builds a date from provider date parts. Month and day
// default to 1 when blank or non-numeric. Returns nil when the year is missing
// or any part is out of range.
func ParsePublicationDate(year, month, day string) *time.Time {
	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil || y <= 0 || y > 9999 {
		return nil
	}

	m := datePart(month)
	d := datePart(day)
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return nil
	}

	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	// time.Date normalises Feb 30 into March; treat that as invalid.
	if t.Month() != time.Month(m) || t.Day() != d {
		return nil
	}
	return &t
}

func datePart(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 1
	}
	return n
}

// MarkEligibility sets PeerReviewed, PublicationDate and Eligible on every row.
func MarkEligibility(rows []model.JoinedRow, window model.DateWindow, policy *Policy) {
	if policy == nil {
		policy = defaultPolicy
	}
	for i := range rows {
		r := &rows[i]
		r.PeerReviewed = false
		r.PublicationDate = nil
		r.Eligible = false
		if r.Metadata == nil {
			continue
		}
		r.PeerReviewed = policy.IsPeerReviewed(r.Metadata.SubtypeDescription)
		r.PublicationDate = ParsePublicationDate(r.Metadata.Year, r.Metadata.Month, r.Metadata.Day)
		r.Eligible = r.PeerReviewed && r.PublicationDate != nil && window.Contains(*r.PublicationDate)
	}
}

// FilterEligible marks eligibility and returns the eligible rows in input order.
func FilterEligible(rows []model.JoinedRow, window model.DateWindow, policy *Policy) []model.JoinedRow {
	MarkEligibility(rows, window, policy)
	out := make([]model.JoinedRow, 0, len(rows))
	for _, r := range rows {
		if r.Eligible {
			out = append(out, r)
		}
	}
	return out
}
