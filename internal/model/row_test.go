package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDateWindow_ContainsBoundaries(t *testing.T) {
	w := NewDateWindow(day(2024, time.July, 1), day(2025, time.June, 30))

	assert.True(t, w.Contains(day(2024, time.July, 1)))
	assert.True(t, w.Contains(day(2025, time.June, 30)))
	assert.True(t, w.Contains(time.Date(2025, time.June, 30, 23, 59, 0, 0, time.UTC)))
	assert.False(t, w.Contains(day(2024, time.June, 30)))
	assert.False(t, w.Contains(day(2025, time.July, 1)))
}

func TestAcademicYear(t *testing.T) {
	w := AcademicYear(2024)
	assert.Equal(t, day(2024, time.July, 1), w.Start)
	assert.Equal(t, day(2025, time.June, 30), w.End)
	assert.True(t, w.Valid())
}

func TestDateWindow_Invalid(t *testing.T) {
	w := NewDateWindow(day(2025, time.January, 2), day(2025, time.January, 1))
	assert.False(t, w.Valid())
}

func TestFacultyRecord_Key(t *testing.T) {
	f := &FacultyRecord{Username: "jdoe"}
	assert.Equal(t, "jdoe", f.Key())

	f.NetID = "jd123"
	assert.Equal(t, "jd123", f.Key())
}

func TestPublicationMetadata_AuthorIDsSkipsBlanks(t *testing.T) {
	p := &PublicationMetadata{Authors: []Author{{ID: "1"}, {ID: ""}, {ID: "3"}}}
	assert.Equal(t, []string{"1", "3"}, p.AuthorIDs())
}

func TestBucketCounts_Add(t *testing.T) {
	var b BucketCounts
	b.Add("123")
	b.Add("")
	b.Add("456")

	assert.Equal(t, 2, b.PMIDCount)
	assert.Equal(t, 1, b.NonPMIDCount)
	assert.Equal(t, []string{"123", "456"}, b.PMIDs)
}
