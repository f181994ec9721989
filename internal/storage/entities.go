package storage

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/paperbase/paperbase/pkg/document"
	"github.com/paperbase/paperbase/pkg/models"
)

// Authors stores the byline set of each document.
type Authors struct {
	db *gorm.DB
}

// NewAuthors returns an author store over db.
func NewAuthors(db *gorm.DB) *Authors {
	return &Authors{db: db}
}

// ForDocument returns a document's authors in byline order.
func (s *Authors) ForDocument(doi string) ([]document.Author, error) {
	var rows []models.Author
	if err := s.db.Where("doi = ?", doi).Order("ord asc").Find(&rows).Error; err != nil {
		return nil, document.NewError("Authors.ForDocument", err, doi)
	}
	authors := make([]document.Author, 0, len(rows))
	for _, r := range rows {
		authors = append(authors, document.Author{
			Name:        r.Name,
			Affiliation: r.Affiliation,
			Address:     r.Address,
			Email:       r.Email,
			Ord:         r.Ord,
			ClusterID:   r.ClusterID,
		})
	}
	return authors, nil
}

// InsertAll inserts a document's full author set.
func (s *Authors) InsertAll(doi string, authors []document.Author) error {
	for _, a := range authors {
		row := models.Author{
			DOI:         doi,
			Name:        a.Name,
			Affiliation: a.Affiliation,
			Address:     a.Address,
			Email:       a.Email,
			Ord:         a.Ord,
			ClusterID:   a.ClusterID,
		}
		if err := s.db.Create(&row).Error; err != nil {
			return document.NewError("Authors.InsertAll", err, doi)
		}
	}
	return nil
}

// DeleteAll removes a document's full author set.
func (s *Authors) DeleteAll(doi string) error {
	if err := s.db.Where("doi = ?", doi).Delete(&models.Author{}).Error; err != nil {
		return document.NewError("Authors.DeleteAll", err, doi)
	}
	return nil
}

// Keywords stores the keyword set of each document.
type Keywords struct {
	db *gorm.DB
}

// NewKeywords returns a keyword store over db.
func NewKeywords(db *gorm.DB) *Keywords {
	return &Keywords{db: db}
}

// ForDocument returns a document's keywords.
func (s *Keywords) ForDocument(doi string) ([]document.Keyword, error) {
	var rows []models.Keyword
	if err := s.db.Where("doi = ?", doi).Order("id asc").Find(&rows).Error; err != nil {
		return nil, document.NewError("Keywords.ForDocument", err, doi)
	}
	keywords := make([]document.Keyword, 0, len(rows))
	for _, r := range rows {
		keywords = append(keywords, document.Keyword{Keyword: r.Keyword})
	}
	return keywords, nil
}

// InsertAll inserts a document's full keyword set.
func (s *Keywords) InsertAll(doi string, keywords []document.Keyword) error {
	for _, k := range keywords {
		if err := s.db.Create(&models.Keyword{DOI: doi, Keyword: k.Keyword}).Error; err != nil {
			return document.NewError("Keywords.InsertAll", err, doi)
		}
	}
	return nil
}

// DeleteAll removes a document's full keyword set.
func (s *Keywords) DeleteAll(doi string) error {
	if err := s.db.Where("doi = ?", doi).Delete(&models.Keyword{}).Error; err != nil {
		return document.NewError("Keywords.DeleteAll", err, doi)
	}
	return nil
}

// Tags stores user-applied tags with per-tag counts.
type Tags struct {
	db *gorm.DB
}

// NewTags returns a tag store over db.
func NewTags(db *gorm.DB) *Tags {
	return &Tags{db: db}
}

// ForDocument returns a document's tags.
func (s *Tags) ForDocument(doi string) ([]document.Tag, error) {
	var rows []models.Tag
	if err := s.db.Where("doi = ?", doi).Order("tag asc").Find(&rows).Error; err != nil {
		return nil, document.NewError("Tags.ForDocument", err, doi)
	}
	tags := make([]document.Tag, 0, len(rows))
	for _, r := range rows {
		tags = append(tags, document.Tag{Name: r.Tag, Count: r.Count})
	}
	return tags, nil
}

// Add applies a tag to a document: a new row at count 1, or an
// increment of the existing count.
func (s *Tags) Add(doi, tag string) error {
	var row models.Tag
	err := s.db.Where("doi = ? AND tag = ?", doi, tag).First(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := s.db.Create(&models.Tag{DOI: doi, Tag: tag, Count: 1}).Error; err != nil {
			return document.NewError("Tags.Add", err, doi)
		}
		return nil
	case err != nil:
		return document.NewError("Tags.Add", err, doi)
	}
	err = s.db.Model(&models.Tag{}).Where("id = ?", row.ID).
		Update("count", gorm.Expr("count + 1")).Error
	if err != nil {
		return document.NewError("Tags.Add", err, doi)
	}
	return nil
}

// Delete removes one tag from a document regardless of count.
func (s *Tags) Delete(doi, tag string) error {
	if err := s.db.Where("doi = ? AND tag = ?", doi, tag).Delete(&models.Tag{}).Error; err != nil {
		return document.NewError("Tags.Delete", err, doi)
	}
	return nil
}

// Links stores external resource links per document.
type Links struct {
	db *gorm.DB
}

// NewLinks returns an external-link store over db.
func NewLinks(db *gorm.DB) *Links {
	return &Links{db: db}
}

// ForDocument returns a document's external links.
func (s *Links) ForDocument(doi string) ([]document.ExternalLink, error) {
	var rows []models.ExternalLink
	if err := s.db.Where("doi = ?", doi).Order("label asc").Find(&rows).Error; err != nil {
		return nil, document.NewError("Links.ForDocument", err, doi)
	}
	links := make([]document.ExternalLink, 0, len(rows))
	for _, r := range rows {
		links = append(links, document.ExternalLink{Label: r.Label, URL: r.URL})
	}
	return links, nil
}

// Add attaches an external link to a document.
func (s *Links) Add(doi string, link document.ExternalLink) error {
	row := models.ExternalLink{DOI: doi, Label: link.Label, URL: link.URL}
	if err := s.db.Create(&row).Error; err != nil {
		return document.NewError("Links.Add", err, doi)
	}
	return nil
}

// DeleteAll removes a document's external links.
func (s *Links) DeleteAll(doi string) error {
	if err := s.db.Where("doi = ?", doi).Delete(&models.ExternalLink{}).Error; err != nil {
		return document.NewError("Links.DeleteAll", err, doi)
	}
	return nil
}

// Checksums stores crawl-time content checksums per document.
type Checksums struct {
	db *gorm.DB
}

// NewChecksums returns a checksum store over db.
func NewChecksums(db *gorm.DB) *Checksums {
	return &Checksums{db: db}
}

// ForDocument returns a document's checksums.
func (s *Checksums) ForDocument(doi string) ([]document.Checksum, error) {
	var rows []models.Checksum
	if err := s.db.Where("doi = ?", doi).Order("id asc").Find(&rows).Error; err != nil {
		return nil, document.NewError("Checksums.ForDocument", err, doi)
	}
	sums := make([]document.Checksum, 0, len(rows))
	for _, r := range rows {
		sums = append(sums, document.Checksum{SHA1: r.SHA1, FileType: r.FileType})
	}
	return sums, nil
}

// DocumentsForChecksum returns every document id recorded for a
// checksum value.
func (s *Checksums) DocumentsForChecksum(sha1 string) ([]string, error) {
	var ids []string
	err := s.db.Model(&models.Checksum{}).
		Where("sha1 = ?", strings.ToLower(sha1)).
		Order("doi asc").
		Pluck("doi", &ids).Error
	if err != nil {
		return nil, document.NewError("Checksums.DocumentsForChecksum", err, sha1)
	}
	return ids, nil
}

// InsertAll records a document's checksums.
func (s *Checksums) InsertAll(doi string, sums []document.Checksum) error {
	for _, c := range sums {
		row := models.Checksum{DOI: doi, SHA1: strings.ToLower(c.SHA1), FileType: c.FileType}
		if err := s.db.Create(&row).Error; err != nil {
			return document.NewError("Checksums.InsertAll", err, doi)
		}
	}
	return nil
}

// DeleteAll removes a document's checksums.
func (s *Checksums) DeleteAll(doi string) error {
	if err := s.db.Where("doi = ?", doi).Delete(&models.Checksum{}).Error; err != nil {
		return document.NewError("Checksums.DeleteAll", err, doi)
	}
	return nil
}

// ReplaceAll swaps a document's checksum set, delete-then-reinsert.
func (s *Checksums) ReplaceAll(doi string, sums []document.Checksum) error {
	if err := s.DeleteAll(doi); err != nil {
		return err
	}
	return s.InsertAll(doi, sums)
}
