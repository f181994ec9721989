package storage

import (
	"strings"

	"gorm.io/gorm"

	"github.com/paperbase/paperbase/pkg/document"
	"github.com/paperbase/paperbase/pkg/models"
)

// citationAuthorSep joins a citation's author list into one column.
// Semicolons do not occur inside a single author name.
const citationAuthorSep = "; "

// Citations stores the reference set of each document together with
// the text contexts each reference appears in.
type Citations struct {
	db *gorm.DB
}

// NewCitations returns a citation store over db.
func NewCitations(db *gorm.DB) *Citations {
	return &Citations{db: db}
}

// ForDocument returns a document's citations, optionally with their
// contexts. Skipping contexts avoids the join when callers only need
// the reference list.
func (s *Citations) ForDocument(doi string, withContexts bool) ([]document.Citation, error) {
	q := s.db.Where("doi = ?", doi).Order("id asc")
	if withContexts {
		q = q.Preload("Contexts")
	}
	var rows []models.Citation
	if err := q.Find(&rows).Error; err != nil {
		return nil, document.NewError("Citations.ForDocument", err, doi)
	}

	citations := make([]document.Citation, 0, len(rows))
	for _, r := range rows {
		c := document.Citation{
			Raw:       r.Raw,
			Title:     r.Title,
			Venue:     r.Venue,
			Year:      r.Year,
			Self:      r.Self,
			ClusterID: r.ClusterID,
		}
		if r.Authors != "" {
			c.Authors = strings.Split(r.Authors, citationAuthorSep)
		}
		for _, ctx := range r.Contexts {
			c.Contexts = append(c.Contexts, ctx.Context)
		}
		citations = append(citations, c)
	}
	return citations, nil
}

// InsertAll inserts a document's full citation set with contexts.
func (s *Citations) InsertAll(doi string, citations []document.Citation) error {
	for _, c := range citations {
		row := models.Citation{
			DOI:       doi,
			Raw:       c.Raw,
			Title:     c.Title,
			Venue:     c.Venue,
			Year:      c.Year,
			Authors:   strings.Join(c.Authors, citationAuthorSep),
			Self:      c.Self,
			ClusterID: c.ClusterID,
		}
		for _, ctx := range c.Contexts {
			row.Contexts = append(row.Contexts, models.CitationContext{Context: ctx})
		}
		if err := s.db.Create(&row).Error; err != nil {
			return document.NewError("Citations.InsertAll", err, doi)
		}
	}
	return nil
}

// DeleteAll removes a document's citations and their contexts.
func (s *Citations) DeleteAll(doi string) error {
	var ids []uint
	err := s.db.Model(&models.Citation{}).Where("doi = ?", doi).Pluck("id", &ids).Error
	if err != nil {
		return document.NewError("Citations.DeleteAll", err, doi)
	}
	if len(ids) > 0 {
		if err := s.db.Where("citation_id IN ?", ids).Delete(&models.CitationContext{}).Error; err != nil {
			return document.NewError("Citations.DeleteAll", err, doi)
		}
	}
	if err := s.db.Where("doi = ?", doi).Delete(&models.Citation{}).Error; err != nil {
		return document.NewError("Citations.DeleteAll", err, doi)
	}
	return nil
}

// Acknowledgments stores the acknowledged entities of each document.
type Acknowledgments struct {
	db *gorm.DB
}

// NewAcknowledgments returns an acknowledgment store over db.
func NewAcknowledgments(db *gorm.DB) *Acknowledgments {
	return &Acknowledgments{db: db}
}

// ForDocument returns a document's acknowledgments, optionally with
// contexts.
func (s *Acknowledgments) ForDocument(doi string, withContexts bool) ([]document.Acknowledgment, error) {
	q := s.db.Where("doi = ?", doi).Order("id asc")
	if withContexts {
		q = q.Preload("Contexts")
	}
	var rows []models.Acknowledgment
	if err := q.Find(&rows).Error; err != nil {
		return nil, document.NewError("Acknowledgments.ForDocument", err, doi)
	}

	acks := make([]document.Acknowledgment, 0, len(rows))
	for _, r := range rows {
		a := document.Acknowledgment{
			Name:      r.Name,
			AckType:   r.AckType,
			ClusterID: r.ClusterID,
		}
		for _, ctx := range r.Contexts {
			a.Contexts = append(a.Contexts, ctx.Context)
		}
		acks = append(acks, a)
	}
	return acks, nil
}

// InsertAll inserts a document's full acknowledgment set with contexts.
func (s *Acknowledgments) InsertAll(doi string, acks []document.Acknowledgment) error {
	for _, a := range acks {
		row := models.Acknowledgment{
			DOI:       doi,
			Name:      a.Name,
			AckType:   a.AckType,
			ClusterID: a.ClusterID,
		}
		for _, ctx := range a.Contexts {
			row.Contexts = append(row.Contexts, models.AckContext{Context: ctx})
		}
		if err := s.db.Create(&row).Error; err != nil {
			return document.NewError("Acknowledgments.InsertAll", err, doi)
		}
	}
	return nil
}

// DeleteAll removes a document's acknowledgments and their contexts.
func (s *Acknowledgments) DeleteAll(doi string) error {
	var ids []uint
	err := s.db.Model(&models.Acknowledgment{}).Where("doi = ?", doi).Pluck("id", &ids).Error
	if err != nil {
		return document.NewError("Acknowledgments.DeleteAll", err, doi)
	}
	if len(ids) > 0 {
		if err := s.db.Where("acknowledgment_id IN ?", ids).Delete(&models.AckContext{}).Error; err != nil {
			return document.NewError("Acknowledgments.DeleteAll", err, doi)
		}
	}
	if err := s.db.Where("doi = ?", doi).Delete(&models.Acknowledgment{}).Error; err != nil {
		return document.NewError("Acknowledgments.DeleteAll", err, doi)
	}
	return nil
}
