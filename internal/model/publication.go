package model

// Author is one entry of a publication's ordered author list.
type Author struct {
	ID          string `json:"id"`
	Seq         int    `json:"seq,omitempty"`
	GivenName   string `json:"given_name,omitempty"`
	Surname     string `json:"surname,omitempty"`
	IndexedName string `json:"indexed_name,omitempty"`
}

// PublicationMetadata is the bibliographic record fetched for one Scopus EID.
// Date parts are kept as the provider returned them; parsing happens during
// eligibility checks.
type PublicationMetadata struct {
	ScopusID string   `json:"scopus_id"`
	Title    string   `json:"title,omitempty"`
	Authors  []Author `json:"authors,omitempty"`

	DocumentType       string `json:"document_type,omitempty"`
	SubtypeDescription string `json:"subtype_description,omitempty"`

	Year  string `json:"year,omitempty"`
	Month string `json:"month,omitempty"`
	Day   string `json:"day,omitempty"`

	DOI  string `json:"doi,omitempty"`
	PMID string `json:"pmid,omitempty"`

	SourceTitle string `json:"source_title,omitempty"`
	Volume      string `json:"volume,omitempty"`
	Issue       string `json:"issue,omitempty"`
	Publisher   string `json:"publisher,omitempty"`
	ISSN        string `json:"issn,omitempty"`
	Abstract    string `json:"abstract,omitempty"`
}

// AuthorIDs returns the author ids in authorship order, skipping blanks.
func (p *PublicationMetadata) AuthorIDs() []string {
	ids := make([]string, 0, len(p.Authors))
	for _, a := range p.Authors {
		if a.ID == "" {
			continue
		}
		ids = append(ids, a.ID)
	}
	return ids
}

// HasReference reports whether the record carries anything that identifies a
// real publication (DOI, PubMed id or title).
func (p *PublicationMetadata) HasReference() bool {
	return p.DOI != "" || p.PMID != "" || p.Title != ""
}

// FetchResult is what a metadata source returned for a batch of ids. Records
// may be fewer than requested and arrive in any order.
type FetchResult struct {
	Records   []PublicationMetadata `json:"records"`
	Requested int                   `json:"requested"`
	Failed    int                   `json:"failed"`
	Cached    int                   `json:"cached"`
}
