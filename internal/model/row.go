package model

import "time"

// Position flags where a faculty member sits in a publication's author list.
type Position struct {
	First  bool `json:"first"`
	Last   bool `json:"last"`
	Middle bool `json:"middle"`
}

// Any reports whether at least one position flag is set.
func (p Position) Any() bool {
	return p.First || p.Last || p.Middle
}

// JoinedRow is one claim joined to its roster entry and fetched metadata.
// Faculty and Metadata are nil when the respective join found no match.
type JoinedRow struct {
	Claim    ClaimRecord          `json:"claim"`
	Faculty  *FacultyRecord       `json:"faculty,omitempty"`
	Metadata *PublicationMetadata `json:"metadata,omitempty"`

	PMID            string     `json:"pmid,omitempty"`
	Position        Position   `json:"position"`
	PeerReviewed    bool       `json:"peer_reviewed"`
	PublicationDate *time.Time `json:"publication_date,omitempty"`
	Eligible        bool       `json:"eligible"`
}

// DOI returns the metadata DOI, or "" when there is no metadata.
func (r *JoinedRow) DOI() string {
	if r.Metadata == nil {
		return ""
	}
	return r.Metadata.DOI
}

// DateWindow is an inclusive calendar-date range.
type DateWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewDateWindow truncates both bounds to calendar dates in UTC.
func NewDateWindow(start, end time.Time) DateWindow {
	return DateWindow{Start: dateOnly(start), End: dateOnly(end)}
}

// AcademicYear returns the window July 1 of startYear through June 30 of the next year.
func AcademicYear(startYear int) DateWindow {
	return DateWindow{
		Start: time.Date(startYear, time.July, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(startYear+1, time.June, 30, 0, 0, 0, 0, time.UTC),
	}
}

// Contains reports whether t falls on or between Start and End.
func (w DateWindow) Contains(t time.Time) bool {
	d := dateOnly(t)
	return !d.Before(w.Start) && !d.After(w.End)
}

// Valid reports whether End is not before Start.
func (w DateWindow) Valid() bool {
	return !w.End.Before(w.Start)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
