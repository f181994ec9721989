// Package document defines the logical document aggregate shared by the
// metadata, blob, and ledger layers.
//
// A document carries two parallel attribute sets: the corrected fields
// shown to users and the source fields as originally extracted. Source
// fields are written once at import time and are never touched by a
// correction, so a bad edit can always be rolled back against them.
package document

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// State is the lifecycle state of a document. Documents are never
// physically removed from the metadata store; these states model soft
// removal instead.
type State int

const (
	// StateDeleted marks a logically deleted document.
	StateDeleted State = iota
	// StatePublished marks a publicly visible document.
	StatePublished
	// StateWithheld marks a document withheld for a DMCA request.
	StateWithheld
	// StateRedirect marks a document that only serves a redirect.
	StateRedirect
)

// Fields is the set of bibliographic attributes kept both in corrected
// and in source form. All values are strings at this level; numeric
// coercion happens at the storage boundary (see ParseOptionalInt).
type Fields struct {
	Title      string
	Abstract   string
	Year       string
	Venue      string
	VenueType  string
	Pages      string
	Volume     string
	Number     string
	Publisher  string
	PubAddress string
	Tech       string
}

// SourceFields is the as-extracted shadow of Fields plus the raw
// citation block that only exists in extracted form.
type SourceFields struct {
	Fields
	Citations string
}

// Author is a document author in corrected form. Ord preserves the
// byline order from the paper.
type Author struct {
	Name        string
	Affiliation string
	Address     string
	Email       string
	Ord         int
	ClusterID   *int64
}

// Citation is one reference extracted from a document body. The parsed
// fields stay strings; Raw preserves the unparsed reference string.
type Citation struct {
	Raw       string
	Title     string
	Venue     string
	Year      string
	Authors   []string
	Self      bool
	ClusterID *int64
	Contexts  []string
}

// Acknowledgment is one acknowledged entity (person, group, or funder).
type Acknowledgment struct {
	Name      string
	AckType   string
	ClusterID *int64
	Contexts  []string
}

// Keyword is a single author-supplied keyword.
type Keyword struct {
	Keyword string
}

// Tag is a user-applied tag together with how many users applied it.
type Tag struct {
	Name  string
	Count int
}

// ExternalLink points from a document to a related external resource.
type ExternalLink struct {
	Label string
	URL   string
}

// Hub is a named aggregator page that links to one or more documents.
type Hub struct {
	Name string
	URL  string
}

// Checksum is a content checksum recorded at crawl time. The core
// stores checksums but never interprets them.
type Checksum struct {
	SHA1     string
	FileType string
}

// FileInfo describes where a document's blob artifacts live and how
// they were obtained.
type FileInfo struct {
	RepositoryID    string
	CrawlDate       time.Time
	ConversionTrace string
	URLs            []string
	Hubs            []Hub
	Checksums       []Checksum
}

// Version is an immutable snapshot descriptor from the version ledger.
// Number 0 is the original import; corrections append higher numbers.
type Version struct {
	DOI          string
	Number       int
	Name         string
	RepositoryID string
	Path         string
	Deprecated   bool
	Spam         bool
}

// Document is the logical entity assembled from the relational store
// and the filesystem repositories.
type Document struct {
	DOI         string
	State       State
	ClusterID   *int64
	NCites      int
	SelfCites   int
	Version     int
	VersionName string
	VersionTime time.Time

	Corrected Fields
	Source    *SourceFields

	FileInfo FileInfo

	Authors         []Author
	Citations       []Citation
	Acknowledgments []Acknowledgment
	Keywords        []Keyword
	Tags            []Tag
	Links           []ExternalLink
}

// HasSourceData reports whether any source field was populated at
// import. Documents without source data get no shadow record.
func (d *Document) HasSourceData() bool {
	if d.Source == nil {
		return false
	}
	s := d.Source
	return s.Title != "" || s.Abstract != "" || s.Year != "" ||
		s.Venue != "" || s.VenueType != "" || s.Pages != "" ||
		s.Volume != "" || s.Number != "" || s.Publisher != "" ||
		s.PubAddress != "" || s.Tech != "" || s.Citations != ""
}

// Validate checks the invariants every persisted document must hold.
func (d *Document) Validate() error {
	return validation.ValidateStruct(d,
		validation.Field(&d.DOI, validation.Required),
		validation.Field(&d.Version, validation.Min(0)),
		validation.Field(&d.State,
			validation.Min(int(StateDeleted)),
			validation.Max(int(StateRedirect))),
	)
}
