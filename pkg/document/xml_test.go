package document

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument() *Document {
	cluster := int64(912)
	return &Document{
		DOI:         "10.1.1.42.7",
		State:       StatePublished,
		ClusterID:   &cluster,
		NCites:      17,
		SelfCites:   2,
		Version:     3,
		VersionName: "curated",
		VersionTime: time.Date(2013, 4, 2, 11, 30, 0, 0, time.UTC),
		Corrected: Fields{
			Title:     "On the Stability of Sharded Archives",
			Abstract:  "We study directory fan-out bounds.",
			Year:      "2013",
			Venue:     "J. Dig. Lib.",
			VenueType: "journal",
			Pages:     "101--119",
			Volume:    "8",
			Number:    "2",
			Publisher: "Example Press",
			Tech:      "TR-13-02",
		},
		Source: &SourceFields{
			Fields: Fields{
				Title: "on the stability of sharded archives",
				Year:  "2013.",
			},
			Citations: "<raw>blob</raw>",
		},
		FileInfo: FileInfo{
			RepositoryID:    "rep1",
			CrawlDate:       time.Date(2013, 3, 28, 0, 0, 0, 0, time.UTC),
			ConversionTrace: "pdf->txt->xml",
			URLs:            []string{"http://example.org/p/42.pdf"},
			Hubs:            []Hub{{Name: "example-hub", URL: "http://hub.example.org"}},
			Checksums:       []Checksum{{SHA1: "da39a3ee5e6b4b0d3255bfef95601890afd80709", FileType: "pdf"}},
		},
		Authors: []Author{
			{Name: "A. Example", Affiliation: "Example University", Ord: 1},
			{Name: "B. Example", Ord: 2},
		},
		Citations: []Citation{
			{
				Raw:      "[1] C. Cited. Prior work. 1999.",
				Title:    "Prior work",
				Year:     "1999",
				Authors:  []string{"C. Cited"},
				Contexts: []string{"as shown in [1]"},
			},
		},
		Acknowledgments: []Acknowledgment{{Name: "D. Helper", AckType: "individual"}},
		Keywords:        []Keyword{{Keyword: "archives"}, {Keyword: "sharding"}},
		Tags:            []Tag{{Name: "classic", Count: 4}},
		Links:           []ExternalLink{{Label: "DBLP", URL: "http://dblp.example.org/x"}},
	}
}

func TestXMLRoundTrip(t *testing.T) {
	doc := sampleDocument()

	var buf bytes.Buffer
	require.NoError(t, doc.ToXML(&buf))

	got, err := FromXML(&buf)
	require.NoError(t, err)

	assert.Equal(t, doc.DOI, got.DOI)
	assert.Equal(t, doc.State, got.State)
	assert.Equal(t, doc.ClusterID, got.ClusterID)
	assert.Equal(t, doc.NCites, got.NCites)
	assert.Equal(t, doc.SelfCites, got.SelfCites)
	assert.Equal(t, doc.Version, got.Version)
	assert.Equal(t, doc.VersionName, got.VersionName)
	assert.Equal(t, doc.VersionTime, got.VersionTime.UTC())
	assert.Equal(t, doc.Corrected, got.Corrected)
	require.NotNil(t, got.Source)
	assert.Equal(t, *doc.Source, *got.Source)
	assert.Equal(t, doc.FileInfo.RepositoryID, got.FileInfo.RepositoryID)
	assert.Equal(t, doc.FileInfo.CrawlDate, got.FileInfo.CrawlDate.UTC())
	assert.Equal(t, doc.FileInfo.ConversionTrace, got.FileInfo.ConversionTrace)
	assert.Equal(t, doc.FileInfo.URLs, got.FileInfo.URLs)
	assert.Equal(t, doc.FileInfo.Hubs, got.FileInfo.Hubs)
	assert.Equal(t, doc.FileInfo.Checksums, got.FileInfo.Checksums)
	assert.Equal(t, doc.Authors, got.Authors)
	assert.Equal(t, doc.Citations, got.Citations)
	assert.Equal(t, doc.Acknowledgments, got.Acknowledgments)
	assert.Equal(t, doc.Keywords, got.Keywords)
	assert.Equal(t, doc.Tags, got.Tags)
	assert.Equal(t, doc.Links, got.Links)
}

func TestXMLRoundTrip_NoSource(t *testing.T) {
	doc := &Document{
		DOI:       "10.1.1.1.1",
		State:     StatePublished,
		Corrected: Fields{Title: "Minimal"},
		FileInfo:  FileInfo{RepositoryID: "rep1"},
	}

	var buf bytes.Buffer
	require.NoError(t, doc.ToXML(&buf))

	got, err := FromXML(&buf)
	require.NoError(t, err)
	assert.Nil(t, got.Source)
	assert.Equal(t, "Minimal", got.Corrected.Title)
}

func TestFromXML_Malformed(t *testing.T) {
	t.Run("not xml", func(t *testing.T) {
		_, err := FromXML(strings.NewReader("%PDF-1.4 garbage"))
		assert.ErrorIs(t, err, ErrMalformedBody)
	})

	t.Run("missing doi", func(t *testing.T) {
		_, err := FromXML(strings.NewReader(`<document formatVersion="1"></document>`))
		assert.ErrorIs(t, err, ErrMalformedBody)
	})
}

func TestHasSourceData(t *testing.T) {
	doc := &Document{DOI: "10.1.1.1.1"}
	assert.False(t, doc.HasSourceData())

	doc.Source = &SourceFields{}
	assert.False(t, doc.HasSourceData())

	doc.Source.Citations = "<cites/>"
	assert.True(t, doc.HasSourceData())
}
