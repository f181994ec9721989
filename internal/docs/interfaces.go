package docs

import (
	"io"
	"time"

	"github.com/paperbase/paperbase/internal/blob"
	"github.com/paperbase/paperbase/internal/storage"
	"github.com/paperbase/paperbase/pkg/document"
)

// The orchestrator depends on narrow store interfaces rather than the
// concrete gorm and afero implementations, so tests can swap any layer
// out and callers only wire what they use.

// MetadataStore is the relational store for corrected and source
// document records.
type MetadataStore interface {
	Get(doi string, includeSource bool) (*document.Document, error)
	RepositoryID(doi string) (string, error)
	Insert(doc *document.Document) error
	InsertSource(doc *document.Document) error
	Update(doc *document.Document) error
	SetState(doi string, state document.State) error
	SetCluster(doi string, clusterID *int64) error
	SetCitationCount(doi string, n int) error
	SetSelfCitationCount(doi string, n int) error
	Count() (int64, error)
	ListIDs(after string, limit int) ([]string, error)
	ListIDsCrawledBetween(start, end time.Time, after string, limit int) ([]string, error)
	ListIDsBySetSpec(start, end time.Time, after string, limit int) ([]storage.SetMember, error)
	CountBySetSpec(start, end time.Time, after string) (int64, error)
	ListRecentByCrawlDate(before string, limit int) ([]string, error)
}

// BlobStore reads and writes document bodies and artifacts on the
// filesystem repositories.
type BlobStore interface {
	ReadXML(repoID, doi string) (*document.Document, error)
	ReadVersionXML(repoID, doi string, version int) (*document.Document, error)
	WriteXML(repoID string, doc *document.Document) error
	WriteVersionXML(repoID string, doc *document.Document, version int) error
	ListArtifactTypes(repoID, doi string) ([]string, error)
	OpenArtifact(repoID, doi, artifactType string) (io.ReadCloser, error)
}

// VersionLedger tracks version snapshots and correction attribution.
type VersionLedger interface {
	InsertVersion(doc *document.Document) (document.Version, error)
	GetVersion(doi string, version int) (document.Version, error)
	GetVersionByName(doi, name string) (document.Version, error)
	ListVersions(doi string) ([]document.Version, error)
	SetVersionName(doi string, version int, name string) error
	SetVersionSpam(doi string, version int, spam bool) error
	DeprecateVersion(doi string, version int) error
	DeprecateVersionsAfter(doi string, version int) error
	InsertCorrection(userID, doi string, version int) error
	GetCorrector(doi string, version int) (string, error)
}

// AuthorStore holds the byline set of each document.
type AuthorStore interface {
	ForDocument(doi string) ([]document.Author, error)
	InsertAll(doi string, authors []document.Author) error
	DeleteAll(doi string) error
}

// CitationStore holds each document's reference set.
type CitationStore interface {
	ForDocument(doi string, withContexts bool) ([]document.Citation, error)
	InsertAll(doi string, citations []document.Citation) error
	DeleteAll(doi string) error
}

// AckStore holds each document's acknowledged entities.
type AckStore interface {
	ForDocument(doi string, withContexts bool) ([]document.Acknowledgment, error)
	InsertAll(doi string, acks []document.Acknowledgment) error
	DeleteAll(doi string) error
}

// KeywordStore holds each document's keyword set.
type KeywordStore interface {
	ForDocument(doi string) ([]document.Keyword, error)
	InsertAll(doi string, keywords []document.Keyword) error
	DeleteAll(doi string) error
}

// TagStore holds user-applied tags with counts.
type TagStore interface {
	ForDocument(doi string) ([]document.Tag, error)
	Add(doi, tag string) error
	Delete(doi, tag string) error
}

// LinkStore holds external resource links.
type LinkStore interface {
	ForDocument(doi string) ([]document.ExternalLink, error)
	Add(doi string, link document.ExternalLink) error
	DeleteAll(doi string) error
}

// HubStore holds origin URLs and hub mappings.
type HubStore interface {
	InsertURL(doi, url string) (int64, error)
	URLs(doi string) ([]string, error)
	AddMapping(hub document.Hub, url, doi string) error
	ForDocument(doi string) ([]document.Hub, error)
}

// ChecksumStore holds crawl-time content checksums.
type ChecksumStore interface {
	ForDocument(doi string) ([]document.Checksum, error)
	DocumentsForChecksum(sha1 string) ([]string, error)
	InsertAll(doi string, sums []document.Checksum) error
	ReplaceAll(doi string, sums []document.Checksum) error
	DeleteAll(doi string) error
}

var (
	_ MetadataStore = (*storage.Metadata)(nil)
	_ BlobStore     = (*blob.Store)(nil)
	_ VersionLedger = (*storage.Ledger)(nil)
	_ AuthorStore   = (*storage.Authors)(nil)
	_ CitationStore = (*storage.Citations)(nil)
	_ AckStore      = (*storage.Acknowledgments)(nil)
	_ KeywordStore  = (*storage.Keywords)(nil)
	_ TagStore      = (*storage.Tags)(nil)
	_ LinkStore     = (*storage.Links)(nil)
	_ HubStore      = (*storage.Hubs)(nil)
	_ ChecksumStore = (*storage.Checksums)(nil)
)
