package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperbase/paperbase/pkg/document"
)

func TestMetadataInsertAndGet(t *testing.T) {
	s := newTestMetadata(t)

	doc := testDocument("10.1.1.1.1")
	require.NoError(t, s.Insert(doc))
	require.NoError(t, s.InsertSource(doc))

	t.Run("corrected fields round-trip", func(t *testing.T) {
		got, err := s.Get("10.1.1.1.1", false)
		require.NoError(t, err)
		assert.Equal(t, "10.1.1.1.1", got.DOI)
		assert.Equal(t, document.StatePublished, got.State)
		assert.Equal(t, "A Study of Caching", got.Corrected.Title)
		assert.Equal(t, "2004", got.Corrected.Year)
		assert.Equal(t, "12", got.Corrected.Volume)
		assert.Equal(t, "3", got.Corrected.Number)
		assert.Equal(t, "rep1", got.FileInfo.RepositoryID)
		assert.Nil(t, got.Source)
	})

	t.Run("source shadow merged on request", func(t *testing.T) {
		got, err := s.Get("10.1.1.1.1", true)
		require.NoError(t, err)
		require.NotNil(t, got.Source)
		assert.Equal(t, "A Studdy of Caching", got.Source.Title)
		assert.Equal(t, "[1] Prior work.", got.Source.Citations)
	})

	t.Run("missing document", func(t *testing.T) {
		_, err := s.Get("10.1.1.9.9", false)
		assert.ErrorIs(t, err, document.ErrNotFound)
	})
}

func TestMetadataInsertDuplicate(t *testing.T) {
	s := newTestMetadata(t)

	doc := testDocument("10.1.1.1.1")
	require.NoError(t, s.Insert(doc))

	err := s.Insert(testDocument("10.1.1.1.1"))
	assert.ErrorIs(t, err, document.ErrDuplicateKey)
}

func TestMetadataInsertSourceWithoutSourceData(t *testing.T) {
	s := newTestMetadata(t)

	doc := testDocument("10.1.1.1.1")
	doc.Source = nil
	require.NoError(t, s.Insert(doc))
	require.NoError(t, s.InsertSource(doc))

	// The shadow was skipped; reading it back is tolerated as empty.
	got, err := s.Get("10.1.1.1.1", true)
	require.NoError(t, err)
	require.NotNil(t, got.Source)
	assert.Empty(t, got.Source.Title)
}

func TestMetadataUpdateOverwritesEveryField(t *testing.T) {
	s := newTestMetadata(t)

	doc := testDocument("10.1.1.1.1")
	require.NoError(t, s.Insert(doc))
	require.NoError(t, s.InsertSource(doc))

	doc.Corrected.Title = "A Study of Caching, Revised"
	doc.Corrected.Volume = "" // cleared fields must null out
	doc.State = document.StateWithheld
	doc.Version = 1
	require.NoError(t, s.Update(doc))

	got, err := s.Get("10.1.1.1.1", false)
	require.NoError(t, err)
	assert.Equal(t, "A Study of Caching, Revised", got.Corrected.Title)
	assert.Empty(t, got.Corrected.Volume)
	assert.Equal(t, document.StateWithheld, got.State)
	assert.Equal(t, 1, got.Version)
}

func TestMetadataUpdateMissing(t *testing.T) {
	s := newTestMetadata(t)
	err := s.Update(testDocument("10.1.1.9.9"))
	assert.ErrorIs(t, err, document.ErrNotFound)
}

func TestMetadataNumericCoercion(t *testing.T) {
	s := newTestMetadata(t)

	doc := testDocument("10.1.1.1.1")
	doc.Corrected.Year = "circa 2004"
	doc.Corrected.Volume = ""
	require.NoError(t, s.Insert(doc))

	// Unparseable and empty numerics both land as null, never an error.
	got, err := s.Get("10.1.1.1.1", false)
	require.NoError(t, err)
	assert.Empty(t, got.Corrected.Year)
	assert.Empty(t, got.Corrected.Volume)
	assert.Equal(t, "3", got.Corrected.Number)
}

func TestMetadataSetters(t *testing.T) {
	s := newTestMetadata(t)

	require.NoError(t, s.Insert(testDocument("10.1.1.1.1")))

	cluster := int64(42)
	require.NoError(t, s.SetState("10.1.1.1.1", document.StateRedirect))
	require.NoError(t, s.SetCluster("10.1.1.1.1", &cluster))
	require.NoError(t, s.SetCitationCount("10.1.1.1.1", 7))
	require.NoError(t, s.SetSelfCitationCount("10.1.1.1.1", 2))

	got, err := s.Get("10.1.1.1.1", false)
	require.NoError(t, err)
	assert.Equal(t, document.StateRedirect, got.State)
	require.NotNil(t, got.ClusterID)
	assert.Equal(t, int64(42), *got.ClusterID)
	assert.Equal(t, 7, got.NCites)
	assert.Equal(t, 2, got.SelfCites)

	assert.ErrorIs(t, s.SetState("10.1.1.9.9", document.StateDeleted), document.ErrNotFound)
}

func TestMetadataListIDs(t *testing.T) {
	s := newTestMetadata(t)

	for _, doi := range []string{"10.1.1.1.3", "10.1.1.1.1", "10.1.1.1.2"} {
		require.NoError(t, s.Insert(testDocument(doi)))
	}

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	t.Run("keyset pages in order", func(t *testing.T) {
		ids, err := s.ListIDs("", 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"10.1.1.1.1", "10.1.1.1.2"}, ids)

		ids, err = s.ListIDs("10.1.1.1.2", 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"10.1.1.1.3"}, ids)
	})

	t.Run("crawl window filters", func(t *testing.T) {
		start := time.Date(2004, 1, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2004, 12, 31, 0, 0, 0, 0, time.UTC)
		ids, err := s.ListIDsCrawledBetween(start, end, "", 10)
		require.NoError(t, err)
		assert.Len(t, ids, 3)

		ids, err = s.ListIDsCrawledBetween(end, end.AddDate(1, 0, 0), "", 10)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})
}

func TestMetadataSetSpecEnumeration(t *testing.T) {
	s := newTestMetadata(t)

	published := testDocument("10.1.1.1.1")
	require.NoError(t, s.Insert(published))

	withheld := testDocument("10.1.1.1.2")
	withheld.State = document.StateWithheld
	require.NoError(t, s.Insert(withheld))

	start := time.Now().Add(-time.Hour)
	end := time.Now().Add(time.Hour)

	members, err := s.ListIDsBySetSpec(start, end, "", 10)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "10.1.1.1.1", members[0].DOI)
	assert.WithinDuration(t, time.Now(), members[0].ModifiedAt, time.Hour)

	n, err := s.CountBySetSpec(start, end, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMetadataListRecentByCrawlDate(t *testing.T) {
	s := newTestMetadata(t)

	older := testDocument("10.1.1.1.1")
	older.FileInfo.CrawlDate = time.Date(2003, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Insert(older))

	newer := testDocument("10.1.1.1.2")
	newer.FileInfo.CrawlDate = time.Date(2005, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Insert(newer))

	ids, err := s.ListRecentByCrawlDate("", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"10.1.1.1.2", "10.1.1.1.1"}, ids)

	ids, err = s.ListRecentByCrawlDate("10.1.1.1.2", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"10.1.1.1.1"}, ids)
}

func TestMetadataRepositoryID(t *testing.T) {
	s := newTestMetadata(t)

	require.NoError(t, s.Insert(testDocument("10.1.1.1.1")))

	id, err := s.RepositoryID("10.1.1.1.1")
	require.NoError(t, err)
	assert.Equal(t, "rep1", id)

	_, err = s.RepositoryID("10.1.1.9.9")
	assert.ErrorIs(t, err, document.ErrNotFound)
}
