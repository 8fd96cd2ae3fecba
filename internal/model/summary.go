package model

// BucketCounts holds the identifier-presence counts for one authorship bucket.
type BucketCounts struct {
	PMIDCount    int      `json:"pmid_count"`
	NonPMIDCount int      `json:"non_pmid_count"`
	PMIDs        []string `json:"pmids"`
}

// Add records one row in the bucket.
func (b *BucketCounts) Add(pmid string) {
	if pmid == "" {
		b.NonPMIDCount++
		return
	}
	b.PMIDCount++
	b.PMIDs = append(b.PMIDs, pmid)
}

// FacultySummary is one row of the faculty summary table.
type FacultySummary struct {
	Username    string       `json:"username"`
	DisplayName string       `json:"display_name"`
	Rank        string       `json:"rank"`
	First       BucketCounts `json:"first"`
	Last        BucketCounts `json:"last"`
	Middle      BucketCounts `json:"middle"`
	AnyPosition BucketCounts `json:"any_position"`
	Coauthored  bool         `json:"coauthored"`
}

// Assignment is one row of the publication assignment table.
type Assignment struct {
	Username          string `json:"username"`
	DisplayName       string `json:"display_name"`
	Rank              string `json:"rank"`
	TotalPublications int    `json:"total_publications"`
}
