package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/pubmetrics/internal/model"
)

func TestJoin_LeftJoinKeepsEveryClaim(t *testing.T) {
	roster := []model.FacultyRecord{
		{Username: "alice", NetID: "al1", PMID: "111"},
		{Username: "bob"},
	}
	claims := []model.ClaimRecord{
		{Username: "al1", ScopusID: "S1"},
		{Username: "bob", ScopusID: "S2"},
		{Username: "ghost", ScopusID: "S1"},
		{Username: "al1", ScopusID: "S404"},
	}
	metadata := []model.PublicationMetadata{
		{ScopusID: "S1", DOI: "10.1/one"},
		{ScopusID: "S2", DOI: "10.1/two"},
	}

	rows := Join(claims, roster, metadata)

	require.Len(t, rows, len(claims))
	assert.Equal(t, "alice", rows[0].Faculty.Username)
	assert.Equal(t, "10.1/one", rows[0].DOI())
	assert.Equal(t, "111", rows[0].PMID)

	assert.Equal(t, "bob", rows[1].Faculty.Username)
	assert.Empty(t, rows[1].PMID)

	assert.Nil(t, rows[2].Faculty)
	assert.NotNil(t, rows[2].Metadata)

	assert.NotNil(t, rows[3].Faculty)
	assert.Nil(t, rows[3].Metadata)
	assert.Empty(t, rows[3].DOI())
}

func TestJoin_DuplicateMetadataFansOut(t *testing.T) {
	roster := []model.FacultyRecord{{Username: "u1"}}
	claims := []model.ClaimRecord{
		{Username: "u1", ScopusID: "S1"},
		{Username: "u1", ScopusID: "S2"},
	}
	metadata := []model.PublicationMetadata{
		{ScopusID: "S1", Title: "first copy"},
		{ScopusID: "S2", Title: "other"},
		{ScopusID: "S1", Title: "second copy"},
	}

	rows := Join(claims, roster, metadata)

	require.Len(t, rows, 3)
	assert.Equal(t, "first copy", rows[0].Metadata.Title)
	assert.Equal(t, "second copy", rows[1].Metadata.Title)
	assert.Equal(t, "other", rows[2].Metadata.Title)
}

func TestJoin_DuplicateRosterKeyUsesFirst(t *testing.T) {
	roster := []model.FacultyRecord{
		{Username: "u1", Rank: "Professor"},
		{Username: "u1", Rank: "Lecturer"},
	}
	rows := Join([]model.ClaimRecord{{Username: "u1", ScopusID: "S1"}}, roster, nil)

	require.Len(t, rows, 1)
	assert.Equal(t, "Professor", rows[0].Faculty.Rank)
}

func TestJoin_EmptyScopusIDNeverMatches(t *testing.T) {
	metadata := []model.PublicationMetadata{{ScopusID: ""}}
	rows := Join([]model.ClaimRecord{{Username: "u1"}}, nil, metadata)

	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Metadata)
}
