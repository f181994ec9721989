// Package storage implements the relational stores over gorm: document
// metadata with its source shadow, the version ledger, and the
// dependent-entity sets owned by each document.
package storage

import (
	"errors"
	"strconv"
	"time"

	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/paperbase/paperbase/pkg/document"
	"github.com/paperbase/paperbase/pkg/metrics"
	"github.com/paperbase/paperbase/pkg/models"
)

// Metadata is the relational store for corrected and source document
// records.
type Metadata struct {
	db      *gorm.DB
	log     hclog.Logger
	metrics *metrics.Store
}

// NewMetadata returns a metadata store over db.
func NewMetadata(db *gorm.DB, log hclog.Logger, m *metrics.Store) *Metadata {
	return &Metadata{
		db:      db,
		log:     log.Named("metadata"),
		metrics: m,
	}
}

// SetMember is one entry of a harvesting enumeration: a document id
// plus the time its metadata last changed.
type SetMember struct {
	DOI        string
	ModifiedAt time.Time
}

// Get loads a document's corrected metadata. When includeSource is set
// the source shadow is merged in; a missing shadow is tolerated and
// treated as empty, but logged, because every imported document with
// source data should have one.
func (s *Metadata) Get(doi string, includeSource bool) (*document.Document, error) {
	var p models.Paper
	if err := s.db.First(&p, "doi = ?", doi).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, document.NewError("Get", document.ErrNotFound, doi)
		}
		return nil, document.NewError("Get", err, doi)
	}

	doc := paperToDocument(&p)

	if includeSource {
		var src models.PaperSource
		err := s.db.First(&src, "doi = ?", doi).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			s.log.Warn("no source record for document", "doi", doi)
			s.metrics.MissingSourceRecord()
			doc.Source = &document.SourceFields{}
		case err != nil:
			return nil, document.NewError("Get", err, "loading source for "+doi)
		default:
			doc.Source = sourceToFields(&src)
		}
	}

	return doc, nil
}

// RepositoryID returns the repository a document's canonical body was
// written under.
func (s *Metadata) RepositoryID(doi string) (string, error) {
	var p models.Paper
	if err := s.db.Select("doi", "repository_id").First(&p, "doi = ?", doi).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", document.NewError("RepositoryID", document.ErrNotFound, doi)
		}
		return "", document.NewError("RepositoryID", err, doi)
	}
	return p.RepositoryID, nil
}

// Insert creates the corrected record. Fails with ErrDuplicateKey when
// the id is already present.
func (s *Metadata) Insert(doc *document.Document) error {
	if err := doc.Validate(); err != nil {
		return document.NewError("Insert", err, doc.DOI)
	}
	if err := s.ensureAbsent(&models.Paper{}, doc.DOI); err != nil {
		return document.NewError("Insert", err, doc.DOI)
	}

	p := s.paperFromDocument(doc)
	if err := p.Validate(); err != nil {
		return document.NewError("Insert", err, doc.DOI)
	}
	if err := s.db.Create(p).Error; err != nil {
		return document.NewError("Insert", err, doc.DOI)
	}
	return nil
}

// InsertSource creates the source shadow record. Documents without any
// source data get no shadow; that is not an error.
func (s *Metadata) InsertSource(doc *document.Document) error {
	if !doc.HasSourceData() {
		return nil
	}
	if err := s.ensureAbsent(&models.PaperSource{}, doc.DOI); err != nil {
		return document.NewError("InsertSource", err, doc.DOI)
	}
	if err := s.db.Create(sourceFromDocument(doc)).Error; err != nil {
		return document.NewError("InsertSource", err, doc.DOI)
	}
	return nil
}

// Update overwrites every corrected field, and the source shadow when
// the document carries source data. A full overwrite keeps concurrent
// writers at last-writer-wins granularity: a row never mixes fields
// from two updates.
func (s *Metadata) Update(doc *document.Document) error {
	p := s.paperFromDocument(doc)

	res := s.db.Model(&models.Paper{}).Where("doi = ?", doc.DOI).Updates(map[string]interface{}{
		"version":          p.Version,
		"title":            p.Title,
		"abstract":         p.Abstract,
		"year":             p.Year,
		"venue":            p.Venue,
		"venue_type":       p.VenueType,
		"pages":            p.Pages,
		"volume":           p.Volume,
		"number":           p.Number,
		"publisher":        p.Publisher,
		"pub_address":      p.PubAddress,
		"tech":             p.Tech,
		"state":            p.State,
		"version_name":     p.VersionName,
		"crawl_date":       p.CrawlDate,
		"repository_id":    p.RepositoryID,
		"conversion_trace": p.ConversionTrace,
	})
	if res.Error != nil {
		return document.NewError("Update", res.Error, doc.DOI)
	}
	if res.RowsAffected == 0 {
		return document.NewError("Update", document.ErrNotFound, doc.DOI)
	}

	if doc.HasSourceData() {
		src := sourceFromDocument(doc)
		err := s.db.Model(&models.PaperSource{}).Where("doi = ?", doc.DOI).Updates(map[string]interface{}{
			"title":       src.Title,
			"abstract":    src.Abstract,
			"year":        src.Year,
			"venue":       src.Venue,
			"venue_type":  src.VenueType,
			"pages":       src.Pages,
			"volume":      src.Volume,
			"number":      src.Number,
			"publisher":   src.Publisher,
			"pub_address": src.PubAddress,
			"tech":        src.Tech,
			"citations":   src.Citations,
		}).Error
		if err != nil {
			return document.NewError("Update", err, "updating source for "+doc.DOI)
		}
	}
	return nil
}

// SetState updates only the lifecycle state. Idempotent.
func (s *Metadata) SetState(doi string, state document.State) error {
	return s.setColumn(doi, "state", int(state))
}

// SetCluster updates only the cluster reference. Idempotent.
func (s *Metadata) SetCluster(doi string, clusterID *int64) error {
	return s.setColumn(doi, "cluster_id", clusterID)
}

// SetCitationCount updates only the citation count. Idempotent.
func (s *Metadata) SetCitationCount(doi string, n int) error {
	return s.setColumn(doi, "n_cites", n)
}

// SetSelfCitationCount updates only the self-citation count.
func (s *Metadata) SetSelfCitationCount(doi string, n int) error {
	return s.setColumn(doi, "self_cites", n)
}

// Count returns the number of document records.
func (s *Metadata) Count() (int64, error) {
	var n int64
	if err := s.db.Model(&models.Paper{}).Count(&n).Error; err != nil {
		return 0, document.NewError("Count", err, "")
	}
	return n, nil
}

// ListIDs returns up to limit ids greater than after, ascending.
func (s *Metadata) ListIDs(after string, limit int) ([]string, error) {
	var ids []string
	err := s.db.Model(&models.Paper{}).
		Where("doi > ?", after).
		Order("doi asc").
		Limit(limit).
		Pluck("doi", &ids).Error
	if err != nil {
		return nil, document.NewError("ListIDs", err, "")
	}
	return ids, nil
}

// ListIDsCrawledBetween pages over ids crawled in (start, end],
// ascending by id with an exclusive lower bound.
func (s *Metadata) ListIDsCrawledBetween(start, end time.Time, after string, limit int) ([]string, error) {
	var ids []string
	err := s.db.Model(&models.Paper{}).
		Where("crawl_date > ? AND crawl_date <= ? AND doi > ?", start, end, after).
		Order("doi asc").
		Limit(limit).
		Pluck("doi", &ids).Error
	if err != nil {
		return nil, document.NewError("ListIDsCrawledBetween", err, "")
	}
	return ids, nil
}

// ListIDsBySetSpec pages over published documents whose metadata
// changed in [start, end], for harvesters. Ascending by id with an
// exclusive lower bound.
func (s *Metadata) ListIDsBySetSpec(start, end time.Time, after string, limit int) ([]SetMember, error) {
	var rows []models.Paper
	err := s.db.Model(&models.Paper{}).
		Select("doi", "version_time").
		Where("version_time >= ? AND version_time <= ? AND doi > ? AND state = ?",
			start, end, after, int(document.StatePublished)).
		Order("doi asc").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, document.NewError("ListIDsBySetSpec", err, "")
	}
	members := make([]SetMember, 0, len(rows))
	for _, r := range rows {
		members = append(members, SetMember{DOI: r.DOI, ModifiedAt: r.VersionTime})
	}
	return members, nil
}

// CountBySetSpec counts what ListIDsBySetSpec would enumerate.
func (s *Metadata) CountBySetSpec(start, end time.Time, after string) (int64, error) {
	var n int64
	err := s.db.Model(&models.Paper{}).
		Where("version_time >= ? AND version_time <= ? AND doi > ? AND state = ?",
			start, end, after, int(document.StatePublished)).
		Count(&n).Error
	if err != nil {
		return 0, document.NewError("CountBySetSpec", err, "")
	}
	return n, nil
}

// ListRecentByCrawlDate returns the most recently crawled ids,
// descending by crawl date then id. An empty before means no upper
// bound on the id.
func (s *Metadata) ListRecentByCrawlDate(before string, limit int) ([]string, error) {
	q := s.db.Model(&models.Paper{})
	if before != "" {
		q = q.Where("doi < ?", before)
	}
	var ids []string
	err := q.Order("crawl_date desc").
		Order("doi desc").
		Limit(limit).
		Pluck("doi", &ids).Error
	if err != nil {
		return nil, document.NewError("ListRecentByCrawlDate", err, "")
	}
	return ids, nil
}

func (s *Metadata) setColumn(doi, column string, value interface{}) error {
	res := s.db.Model(&models.Paper{}).Where("doi = ?", doi).Update(column, value)
	if res.Error != nil {
		return document.NewError("Set", res.Error, doi)
	}
	if res.RowsAffected == 0 {
		return document.NewError("Set", document.ErrNotFound, doi)
	}
	return nil
}

func (s *Metadata) ensureAbsent(model interface{}, doi string) error {
	err := s.db.Select("doi").First(model, "doi = ?", doi).Error
	if err == nil {
		return document.ErrDuplicateKey
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

// coerce applies the lenient numeric policy: empty stays NULL quietly,
// anything non-empty that fails to parse stays NULL and is counted.
func (s *Metadata) coerce(field, value string) *int {
	if value == "" {
		return nil
	}
	o := document.ParseOptionalInt(value)
	if !o.Valid {
		s.log.Debug("numeric field failed to parse, storing null",
			"field", field, "value", value)
		s.metrics.NumericCoercionSkipped(field)
		return nil
	}
	return o.Ptr()
}

func (s *Metadata) paperFromDocument(doc *document.Document) *models.Paper {
	return &models.Paper{
		DOI:             doc.DOI,
		Version:         doc.Version,
		ClusterID:       doc.ClusterID,
		Title:           doc.Corrected.Title,
		Abstract:        doc.Corrected.Abstract,
		Year:            s.coerce("year", doc.Corrected.Year),
		Venue:           doc.Corrected.Venue,
		VenueType:       doc.Corrected.VenueType,
		Pages:           doc.Corrected.Pages,
		Volume:          s.coerce("volume", doc.Corrected.Volume),
		Number:          s.coerce("number", doc.Corrected.Number),
		Publisher:       doc.Corrected.Publisher,
		PubAddress:      doc.Corrected.PubAddress,
		Tech:            doc.Corrected.Tech,
		State:           int(doc.State),
		NCites:          doc.NCites,
		SelfCites:       doc.SelfCites,
		VersionName:     doc.VersionName,
		CrawlDate:       crawlDateOrNow(doc),
		RepositoryID:    doc.FileInfo.RepositoryID,
		ConversionTrace: doc.FileInfo.ConversionTrace,
	}
}

// crawlDateOrNow falls back to the current time when no crawl date was
// recorded, matching the ingest behavior for crawler-less imports.
func crawlDateOrNow(doc *document.Document) time.Time {
	if doc.FileInfo.CrawlDate.IsZero() {
		return time.Now().UTC()
	}
	return doc.FileInfo.CrawlDate
}

func paperToDocument(p *models.Paper) *document.Document {
	return &document.Document{
		DOI:         p.DOI,
		State:       document.State(p.State),
		ClusterID:   p.ClusterID,
		NCites:      p.NCites,
		SelfCites:   p.SelfCites,
		Version:     p.Version,
		VersionName: p.VersionName,
		VersionTime: p.VersionTime,
		Corrected: document.Fields{
			Title:      p.Title,
			Abstract:   p.Abstract,
			Year:       intToField(p.Year),
			Venue:      p.Venue,
			VenueType:  p.VenueType,
			Pages:      p.Pages,
			Volume:     intToField(p.Volume),
			Number:     intToField(p.Number),
			Publisher:  p.Publisher,
			PubAddress: p.PubAddress,
			Tech:       p.Tech,
		},
		FileInfo: document.FileInfo{
			RepositoryID:    p.RepositoryID,
			CrawlDate:       p.CrawlDate,
			ConversionTrace: p.ConversionTrace,
		},
	}
}

func sourceFromDocument(doc *document.Document) *models.PaperSource {
	src := doc.Source
	return &models.PaperSource{
		DOI:        doc.DOI,
		Title:      src.Title,
		Abstract:   src.Abstract,
		Year:       src.Year,
		Venue:      src.Venue,
		VenueType:  src.VenueType,
		Pages:      src.Pages,
		Volume:     src.Volume,
		Number:     src.Number,
		Publisher:  src.Publisher,
		PubAddress: src.PubAddress,
		Tech:       src.Tech,
		Citations:  src.Citations,
	}
}

func sourceToFields(src *models.PaperSource) *document.SourceFields {
	return &document.SourceFields{
		Fields: document.Fields{
			Title:      src.Title,
			Abstract:   src.Abstract,
			Year:       src.Year,
			Venue:      src.Venue,
			VenueType:  src.VenueType,
			Pages:      src.Pages,
			Volume:     src.Volume,
			Number:     src.Number,
			Publisher:  src.Publisher,
			PubAddress: src.PubAddress,
			Tech:       src.Tech,
		},
		Citations: src.Citations,
	}
}

func intToField(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}
