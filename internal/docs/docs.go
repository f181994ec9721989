// Package docs is the orchestration facade over the metadata store,
// the blob store, and the version ledger. It owns the cross-store
// ordering rules: metadata first and blob last on import, update before
// deprecation on rollback.
package docs

import (
	"errors"
	"io"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/paperbase/paperbase/internal/storage"
	"github.com/paperbase/paperbase/pkg/document"
)

// Stores bundles the orchestrator's dependencies for the constructor.
type Stores struct {
	Metadata        MetadataStore
	Blob            BlobStore
	Ledger          VersionLedger
	Authors         AuthorStore
	Citations       CitationStore
	Acknowledgments AckStore
	Keywords        KeywordStore
	Tags            TagStore
	Links           LinkStore
	Hubs            HubStore
	Checksums       ChecksumStore
}

func (s *Stores) validate() error {
	switch {
	case s.Metadata == nil:
		return errors.New("metadata store is required")
	case s.Blob == nil:
		return errors.New("blob store is required")
	case s.Ledger == nil:
		return errors.New("version ledger is required")
	case s.Authors == nil, s.Citations == nil, s.Acknowledgments == nil,
		s.Keywords == nil, s.Tags == nil, s.Links == nil,
		s.Hubs == nil, s.Checksums == nil:
		return errors.New("every entity store is required")
	}
	return nil
}

// Orchestrator coordinates document operations that span the
// relational store and the filesystem repositories.
type Orchestrator struct {
	stores Stores
	log    hclog.Logger
}

// New returns an orchestrator over the given stores.
func New(stores Stores, log hclog.Logger) (*Orchestrator, error) {
	if err := stores.validate(); err != nil {
		return nil, err
	}
	return &Orchestrator{
		stores: stores,
		log:    log.Named("docs"),
	}, nil
}

// GetOptions selects which dependent sets GetDocumentFromDB loads.
// URLs and authors always load; everything else is opt-in because the
// citation and context sets dominate query cost on large documents.
type GetOptions struct {
	Source           bool
	Citations        bool
	CitationContexts bool
	Acknowledgments  bool
	AckContexts      bool
	Keywords         bool
	Tags             bool
	Links            bool
	Hubs             bool
	Checksums        bool
}

// AllGetOptions loads everything.
func AllGetOptions() GetOptions {
	return GetOptions{
		Source:           true,
		Citations:        true,
		CitationContexts: true,
		Acknowledgments:  true,
		AckContexts:      true,
		Keywords:         true,
		Tags:             true,
		Links:            true,
		Hubs:             true,
		Checksums:        true,
	}
}

// UpdateFlags selects which dependent sets UpdateDocumentData replaces.
// A flagged set is deleted wholesale and reinserted from the document;
// an unflagged set is left untouched.
type UpdateFlags struct {
	Authors         bool
	Citations       bool
	Acknowledgments bool
	Keywords        bool
	Checksums       bool
}

// AllUpdateFlags replaces every dependent set.
func AllUpdateFlags() UpdateFlags {
	return UpdateFlags{
		Authors:         true,
		Citations:       true,
		Acknowledgments: true,
		Keywords:        true,
		Checksums:       true,
	}
}

// ImportDocument registers a new document. The relational rows are
// written first and the body file last: a duplicate or invalid document
// fails before anything touches the filesystem, and a failed body write
// leaves the relational rows in place for the sweeper to reconcile
// rather than rolling back a half-imported aggregate.
func (o *Orchestrator) ImportDocument(doc *document.Document) error {
	repoID := doc.FileInfo.RepositoryID
	if repoID == "" {
		return document.NewError("ImportDocument", document.ErrUnknownRepository,
			doc.DOI+": no repository id")
	}

	if err := o.stores.Metadata.Insert(doc); err != nil {
		return err
	}
	if err := o.stores.Metadata.InsertSource(doc); err != nil {
		return err
	}

	for _, url := range doc.FileInfo.URLs {
		if _, err := o.stores.Hubs.InsertURL(doc.DOI, url); err != nil {
			return err
		}
		for _, hub := range doc.FileInfo.Hubs {
			if err := o.stores.Hubs.AddMapping(hub, url, doc.DOI); err != nil {
				return err
			}
		}
	}
	if err := o.stores.Checksums.InsertAll(doc.DOI, doc.FileInfo.Checksums); err != nil {
		return err
	}
	if err := o.stores.Authors.InsertAll(doc.DOI, doc.Authors); err != nil {
		return err
	}
	if err := o.stores.Citations.InsertAll(doc.DOI, doc.Citations); err != nil {
		return err
	}
	if err := o.stores.Acknowledgments.InsertAll(doc.DOI, doc.Acknowledgments); err != nil {
		return err
	}
	if err := o.stores.Keywords.InsertAll(doc.DOI, doc.Keywords); err != nil {
		return err
	}
	for _, tag := range doc.Tags {
		if err := o.stores.Tags.Add(doc.DOI, tag.Name); err != nil {
			return err
		}
	}
	for _, link := range doc.Links {
		if err := o.stores.Links.Add(doc.DOI, link); err != nil {
			return err
		}
	}

	if _, err := o.stores.Ledger.InsertVersion(doc); err != nil {
		return err
	}

	if err := o.stores.Blob.WriteXML(repoID, doc); err != nil {
		o.log.Error("body write failed after metadata import",
			"doi", doc.DOI, "repository", repoID, "error", err)
		return err
	}

	o.log.Info("imported document", "doi", doc.DOI, "repository", repoID)
	return nil
}

// UpdateDocumentData overwrites the corrected metadata and replaces the
// flagged dependent sets. Replacement is delete-all-then-reinsert, so
// two concurrent updates settle on one writer's complete set, never a
// merge of both.
func (o *Orchestrator) UpdateDocumentData(doc *document.Document, flags UpdateFlags) error {
	if err := o.stores.Metadata.Update(doc); err != nil {
		return err
	}

	if flags.Authors {
		if err := o.stores.Authors.DeleteAll(doc.DOI); err != nil {
			return err
		}
		if err := o.stores.Authors.InsertAll(doc.DOI, doc.Authors); err != nil {
			return err
		}
	}
	if flags.Citations {
		if err := o.stores.Citations.DeleteAll(doc.DOI); err != nil {
			return err
		}
		if err := o.stores.Citations.InsertAll(doc.DOI, doc.Citations); err != nil {
			return err
		}
	}
	if flags.Acknowledgments {
		if err := o.stores.Acknowledgments.DeleteAll(doc.DOI); err != nil {
			return err
		}
		if err := o.stores.Acknowledgments.InsertAll(doc.DOI, doc.Acknowledgments); err != nil {
			return err
		}
	}
	if flags.Keywords {
		if err := o.stores.Keywords.DeleteAll(doc.DOI); err != nil {
			return err
		}
		if err := o.stores.Keywords.InsertAll(doc.DOI, doc.Keywords); err != nil {
			return err
		}
	}
	if flags.Checksums {
		if err := o.stores.Checksums.ReplaceAll(doc.DOI, doc.FileInfo.Checksums); err != nil {
			return err
		}
	}
	return nil
}

// InsertVersion appends a version snapshot to the ledger and archives
// the body under the version path. The caller persists the corrected
// metadata separately (usually via UpdateDocumentData before this).
func (o *Orchestrator) InsertVersion(doc *document.Document) (document.Version, error) {
	v, err := o.stores.Ledger.InsertVersion(doc)
	if err != nil {
		return document.Version{}, err
	}
	if err := o.stores.Blob.WriteVersionXML(v.RepositoryID, doc, v.Number); err != nil {
		return document.Version{}, err
	}
	o.log.Info("recorded version", "doi", doc.DOI, "version", v.Number)
	return v, nil
}

// CreateNewVersion persists a correction as one operation: the ledger
// assigns the next version number, the document (now stamped with it)
// replaces the corrected metadata and flagged sets, the body is
// archived under the version path, and the corrector is recorded.
// Relational writes come before the body write, same as import.
func (o *Orchestrator) CreateNewVersion(userID string, doc *document.Document, flags UpdateFlags) (document.Version, error) {
	v, err := o.stores.Ledger.InsertVersion(doc)
	if err != nil {
		return document.Version{}, err
	}
	if err := o.UpdateDocumentData(doc, flags); err != nil {
		return document.Version{}, err
	}
	if userID != "" {
		if err := o.stores.Ledger.InsertCorrection(userID, doc.DOI, v.Number); err != nil {
			return document.Version{}, err
		}
	}
	if err := o.stores.Blob.WriteVersionXML(v.RepositoryID, doc, v.Number); err != nil {
		return document.Version{}, err
	}
	o.log.Info("recorded correction", "doi", doc.DOI, "version", v.Number, "user", userID)
	return v, nil
}

// SetVersion rolls a document back (or forward) to version n: the
// archived body becomes the corrected metadata, then every newer
// version is deprecated. Update first, deprecate second, so a crash in
// between leaves live metadata plus stale active flags, which the
// deprecation step repairs on retry.
func (o *Orchestrator) SetVersion(doi string, n int) error {
	v, err := o.stores.Ledger.GetVersion(doi, n)
	if err != nil {
		return err
	}
	return o.applyVersion(doi, v)
}

// SetVersionByName rolls a document to the named checkpoint.
func (o *Orchestrator) SetVersionByName(doi, name string) error {
	v, err := o.stores.Ledger.GetVersionByName(doi, name)
	if err != nil {
		return err
	}
	return o.applyVersion(doi, v)
}

func (o *Orchestrator) applyVersion(doi string, v document.Version) error {
	doc, err := o.stores.Blob.ReadVersionXML(v.RepositoryID, doi, v.Number)
	if err != nil {
		return err
	}
	doc.Version = v.Number
	doc.VersionName = v.Name

	if err := o.UpdateDocumentData(doc, AllUpdateFlags()); err != nil {
		return err
	}
	if err := o.stores.Ledger.DeprecateVersionsAfter(doi, v.Number); err != nil {
		return err
	}

	o.log.Info("activated version", "doi", doi, "version", v.Number)
	return nil
}

// GetDocumentFromDB assembles the document aggregate from the
// relational store. URLs and authors always load.
func (o *Orchestrator) GetDocumentFromDB(doi string, opts GetOptions) (*document.Document, error) {
	doc, err := o.stores.Metadata.Get(doi, opts.Source)
	if err != nil {
		return nil, err
	}

	if doc.FileInfo.URLs, err = o.stores.Hubs.URLs(doi); err != nil {
		return nil, err
	}
	if doc.Authors, err = o.stores.Authors.ForDocument(doi); err != nil {
		return nil, err
	}

	if opts.Citations {
		if doc.Citations, err = o.stores.Citations.ForDocument(doi, opts.CitationContexts); err != nil {
			return nil, err
		}
	}
	if opts.Acknowledgments {
		if doc.Acknowledgments, err = o.stores.Acknowledgments.ForDocument(doi, opts.AckContexts); err != nil {
			return nil, err
		}
	}
	if opts.Keywords {
		if doc.Keywords, err = o.stores.Keywords.ForDocument(doi); err != nil {
			return nil, err
		}
	}
	if opts.Tags {
		if doc.Tags, err = o.stores.Tags.ForDocument(doi); err != nil {
			return nil, err
		}
	}
	if opts.Links {
		if doc.Links, err = o.stores.Links.ForDocument(doi); err != nil {
			return nil, err
		}
	}
	if opts.Hubs {
		if doc.FileInfo.Hubs, err = o.stores.Hubs.ForDocument(doi); err != nil {
			return nil, err
		}
	}
	if opts.Checksums {
		if doc.FileInfo.Checksums, err = o.stores.Checksums.ForDocument(doi); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// GetDocumentFromXML reads the canonical body using the repository
// recorded in the metadata store.
func (o *Orchestrator) GetDocumentFromXML(doi string) (*document.Document, error) {
	repoID, err := o.stores.Metadata.RepositoryID(doi)
	if err != nil {
		return nil, err
	}
	return o.stores.Blob.ReadXML(repoID, doi)
}

// GetDocVersion reads the body of a specific version. Version numbers
// at or below zero read the canonical body.
func (o *Orchestrator) GetDocVersion(doi string, n int) (*document.Document, error) {
	if n <= 0 {
		return o.GetDocumentFromXML(doi)
	}
	v, err := o.stores.Ledger.GetVersion(doi, n)
	if err != nil {
		return nil, err
	}
	return o.stores.Blob.ReadVersionXML(v.RepositoryID, doi, v.Number)
}

// Narrow pass-throughs. These exist so callers hold one handle instead
// of reaching around the facade for single-column mutations.

// SetState updates the lifecycle state.
func (o *Orchestrator) SetState(doi string, state document.State) error {
	return o.stores.Metadata.SetState(doi, state)
}

// SetCluster updates the cluster reference.
func (o *Orchestrator) SetCluster(doi string, clusterID *int64) error {
	return o.stores.Metadata.SetCluster(doi, clusterID)
}

// SetCitationCount updates the citation count.
func (o *Orchestrator) SetCitationCount(doi string, n int) error {
	return o.stores.Metadata.SetCitationCount(doi, n)
}

// SetSelfCitationCount updates the self-citation count.
func (o *Orchestrator) SetSelfCitationCount(doi string, n int) error {
	return o.stores.Metadata.SetSelfCitationCount(doi, n)
}

// SetVersionName names a ledger snapshot.
func (o *Orchestrator) SetVersionName(doi string, version int, name string) error {
	return o.stores.Ledger.SetVersionName(doi, version, name)
}

// SetVersionSpam flags a ledger snapshot as spam.
func (o *Orchestrator) SetVersionSpam(doi string, version int, spam bool) error {
	return o.stores.Ledger.SetVersionSpam(doi, version, spam)
}

// DeprecateVersion deprecates a single ledger snapshot.
func (o *Orchestrator) DeprecateVersion(doi string, version int) error {
	return o.stores.Ledger.DeprecateVersion(doi, version)
}

// ListVersions returns every ledger snapshot of a document.
func (o *Orchestrator) ListVersions(doi string) ([]document.Version, error) {
	return o.stores.Ledger.ListVersions(doi)
}

// InsertCorrection records which user produced a version.
func (o *Orchestrator) InsertCorrection(userID, doi string, version int) error {
	return o.stores.Ledger.InsertCorrection(userID, doi, version)
}

// GetCorrector returns the user who produced a version.
func (o *Orchestrator) GetCorrector(doi string, version int) (string, error) {
	return o.stores.Ledger.GetCorrector(doi, version)
}

// AddTag applies a user tag.
func (o *Orchestrator) AddTag(doi, tag string) error {
	return o.stores.Tags.Add(doi, tag)
}

// DeleteTag removes a user tag.
func (o *Orchestrator) DeleteTag(doi, tag string) error {
	return o.stores.Tags.Delete(doi, tag)
}

// AddLink attaches an external resource link.
func (o *Orchestrator) AddLink(doi string, link document.ExternalLink) error {
	return o.stores.Links.Add(doi, link)
}

// DeleteLinks removes a document's external links.
func (o *Orchestrator) DeleteLinks(doi string) error {
	return o.stores.Links.DeleteAll(doi)
}

// ListArtifactTypes enumerates the artifact renditions of a document
// using its stored repository.
func (o *Orchestrator) ListArtifactTypes(doi string) ([]string, error) {
	repoID, err := o.stores.Metadata.RepositoryID(doi)
	if err != nil {
		return nil, err
	}
	return o.stores.Blob.ListArtifactTypes(repoID, doi)
}

// OpenArtifact opens one artifact rendition for reading.
func (o *Orchestrator) OpenArtifact(doi, artifactType string) (io.ReadCloser, error) {
	repoID, err := o.stores.Metadata.RepositoryID(doi)
	if err != nil {
		return nil, err
	}
	return o.stores.Blob.OpenArtifact(repoID, doi, artifactType)
}

// CountDocuments returns the number of document records.
func (o *Orchestrator) CountDocuments() (int64, error) {
	return o.stores.Metadata.Count()
}

// ListIDs pages over document ids, ascending with a keyset cursor.
func (o *Orchestrator) ListIDs(after string, limit int) ([]string, error) {
	return o.stores.Metadata.ListIDs(after, limit)
}

// ListIDsCrawledBetween pages over ids crawled in a time window.
func (o *Orchestrator) ListIDsCrawledBetween(start, end time.Time, after string, limit int) ([]string, error) {
	return o.stores.Metadata.ListIDsCrawledBetween(start, end, after, limit)
}

// ListIDsBySetSpec pages over published ids for harvesters.
func (o *Orchestrator) ListIDsBySetSpec(start, end time.Time, after string, limit int) ([]storage.SetMember, error) {
	return o.stores.Metadata.ListIDsBySetSpec(start, end, after, limit)
}

// CountBySetSpec counts what ListIDsBySetSpec would enumerate.
func (o *Orchestrator) CountBySetSpec(start, end time.Time, after string) (int64, error) {
	return o.stores.Metadata.CountBySetSpec(start, end, after)
}

// ListRecentByCrawlDate returns the most recently crawled ids.
func (o *Orchestrator) ListRecentByCrawlDate(before string, limit int) ([]string, error) {
	return o.stores.Metadata.ListRecentByCrawlDate(before, limit)
}

// DocumentsForChecksum returns every document recorded for a checksum.
func (o *Orchestrator) DocumentsForChecksum(sha1 string) ([]string, error) {
	return o.stores.Checksums.DocumentsForChecksum(sha1)
}
