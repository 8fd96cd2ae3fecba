package model

import "time"

// FacultyRecord is one row of the faculty roster.
type FacultyRecord struct {
	Username    string `json:"username"`
	NetID       string `json:"net_id"`
	DisplayName string `json:"display_name"`
	Rank        string `json:"rank"`

	// ClaimedIDs are the Scopus author ids the faculty member claims as their own.
	ClaimedIDs []string `json:"claimed_ids"`

	ArrivalDate   *time.Time `json:"arrival_date,omitempty"`
	DepartureDate *time.Time `json:"departure_date,omitempty"`

	// Raw identifier columns, in consolidation priority order.
	PubMed      string `json:"pubmed,omitempty"`
	MaxPRPubMed string `json:"maxpr_pubmed,omitempty"`
	EuropePMC   string `json:"europepmc,omitempty"`

	// PMID is the consolidated PubMed id; empty when none of the raw columns yield digits.
	PMID string `json:"pmid,omitempty"`

	// ScopusIDs are publication EIDs listed on the roster row itself.
	ScopusIDs []string `json:"scopus_ids,omitempty"`
}

// Key returns the value claims are joined on: NetID, or Username when NetID is blank.
func (f *FacultyRecord) Key() string {
	if f.NetID != "" {
		return f.NetID
	}
	return f.Username
}

// ClaimedSet returns ClaimedIDs as a lookup set.
func (f *FacultyRecord) ClaimedSet() map[string]struct{} {
	set := make(map[string]struct{}, len(f.ClaimedIDs))
	for _, id := range f.ClaimedIDs {
		set[id] = struct{}{}
	}
	return set
}

// ClaimRecord asserts that a faculty member authored a publication.
type ClaimRecord struct {
	Username string `json:"username"`
	ScopusID string `json:"scopus_id"`

	// Optional per-publication identifier columns. When any is set they take
	// precedence over the roster's columns for this claim.
	PubMed      string `json:"pubmed,omitempty"`
	MaxPRPubMed string `json:"maxpr_pubmed,omitempty"`
	EuropePMC   string `json:"europepmc,omitempty"`
}

// HasIdentifierColumns reports whether the claim carries its own PMID columns.
func (c *ClaimRecord) HasIdentifierColumns() bool {
	return c.PubMed != "" || c.MaxPRPubMed != "" || c.EuropePMC != ""
}
