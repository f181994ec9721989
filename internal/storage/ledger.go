package storage

import (
	"errors"

	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/paperbase/paperbase/pkg/document"
	"github.com/paperbase/paperbase/pkg/docpath"
	"github.com/paperbase/paperbase/pkg/models"
)

// Ledger tracks the version history of each document. Exactly one
// version per document is active (the one the paper record points at);
// deprecation and spam are flags on the snapshot rows, never deletions.
type Ledger struct {
	db  *gorm.DB
	log hclog.Logger
}

// NewLedger returns a version ledger over db.
func NewLedger(db *gorm.DB, log hclog.Logger) *Ledger {
	return &Ledger{db: db, log: log.Named("ledger")}
}

// InsertVersion appends the next version snapshot for the document and
// stamps the assigned number and archive path back onto it. Version 0
// points at the canonical body; later versions archive under the shard
// directory. Appending does not change which version is active.
func (l *Ledger) InsertVersion(doc *document.Document) (document.Version, error) {
	var next int
	var last models.PaperVersion
	err := l.db.Where("doi = ?", doc.DOI).Order("version desc").First(&last).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		next = 0
	case err != nil:
		return document.Version{}, document.NewError("InsertVersion", err, doc.DOI)
	default:
		next = last.Version + 1
	}

	path := docpath.XMLPath(doc.DOI)
	if next > 0 {
		path = docpath.VersionPath(doc.DOI, next)
	}

	row := models.PaperVersion{
		DOI:          doc.DOI,
		Version:      next,
		Name:         doc.VersionName,
		RepositoryID: doc.FileInfo.RepositoryID,
		Path:         path,
	}
	if err := l.db.Create(&row).Error; err != nil {
		return document.Version{}, document.NewError("InsertVersion", err, doc.DOI)
	}

	doc.Version = next
	l.log.Debug("appended version", "doi", doc.DOI, "version", next, "path", path)
	return versionFromRow(&row), nil
}

// GetVersion returns the snapshot descriptor for a version number.
func (l *Ledger) GetVersion(doi string, version int) (document.Version, error) {
	var row models.PaperVersion
	err := l.db.Where("doi = ? AND version = ?", doi, version).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return document.Version{}, document.NewError("GetVersion", document.ErrNotFound, doi)
		}
		return document.Version{}, document.NewError("GetVersion", err, doi)
	}
	return versionFromRow(&row), nil
}

// GetVersionByName returns the snapshot descriptor for a named
// checkpoint.
func (l *Ledger) GetVersionByName(doi, name string) (document.Version, error) {
	var row models.PaperVersion
	err := l.db.Where("doi = ? AND name = ?", doi, name).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return document.Version{}, document.NewError("GetVersionByName", document.ErrNotFound, doi+"/"+name)
		}
		return document.Version{}, document.NewError("GetVersionByName", err, doi)
	}
	return versionFromRow(&row), nil
}

// ListVersions returns every snapshot of a document, ascending.
func (l *Ledger) ListVersions(doi string) ([]document.Version, error) {
	var rows []models.PaperVersion
	err := l.db.Where("doi = ?", doi).Order("version asc").Find(&rows).Error
	if err != nil {
		return nil, document.NewError("ListVersions", err, doi)
	}
	versions := make([]document.Version, 0, len(rows))
	for i := range rows {
		versions = append(versions, versionFromRow(&rows[i]))
	}
	return versions, nil
}

// SetVersionName names a snapshot. Idempotent.
func (l *Ledger) SetVersionName(doi string, version int, name string) error {
	return l.setFlag(doi, version, "name", name)
}

// SetVersionSpam flags or unflags a snapshot as spam. Idempotent.
func (l *Ledger) SetVersionSpam(doi string, version int, spam bool) error {
	return l.setFlag(doi, version, "spam", spam)
}

// DeprecateVersion deprecates a single snapshot. Idempotent.
func (l *Ledger) DeprecateVersion(doi string, version int) error {
	return l.setFlag(doi, version, "deprecated", true)
}

// DeprecateVersionsAfter deprecates every snapshot with a number
// greater than version; version and below are untouched whatever their
// flags. This is how rolling back to an old version suppresses every
// newer correction without deleting history. Idempotent.
func (l *Ledger) DeprecateVersionsAfter(doi string, version int) error {
	err := l.db.Model(&models.PaperVersion{}).
		Where("doi = ? AND version > ?", doi, version).
		Update("deprecated", true).Error
	if err != nil {
		return document.NewError("DeprecateVersionsAfter", err, doi)
	}
	return nil
}

// InsertCorrection records which user produced a version. A second
// corrector for the same (doi, version) is rejected.
func (l *Ledger) InsertCorrection(userID, doi string, version int) error {
	var existing models.Correction
	err := l.db.Where("doi = ? AND version = ?", doi, version).First(&existing).Error
	if err == nil {
		return document.NewError("InsertCorrection", document.ErrDuplicateKey, doi)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return document.NewError("InsertCorrection", err, doi)
	}

	row := models.Correction{UserID: userID, DOI: doi, Version: version}
	if err := l.db.Create(&row).Error; err != nil {
		return document.NewError("InsertCorrection", err, doi)
	}
	return nil
}

// GetCorrector returns the user who produced a version.
func (l *Ledger) GetCorrector(doi string, version int) (string, error) {
	var row models.Correction
	err := l.db.Where("doi = ? AND version = ?", doi, version).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", document.NewError("GetCorrector", document.ErrNotFound, doi)
		}
		return "", document.NewError("GetCorrector", err, doi)
	}
	return row.UserID, nil
}

func (l *Ledger) setFlag(doi string, version int, column string, value interface{}) error {
	res := l.db.Model(&models.PaperVersion{}).
		Where("doi = ? AND version = ?", doi, version).
		Update(column, value)
	if res.Error != nil {
		return document.NewError("SetVersionFlag", res.Error, doi)
	}
	if res.RowsAffected == 0 {
		return document.NewError("SetVersionFlag", document.ErrNotFound, doi)
	}
	return nil
}

func versionFromRow(row *models.PaperVersion) document.Version {
	return document.Version{
		DOI:          row.DOI,
		Number:       row.Version,
		Name:         row.Name,
		RepositoryID: row.RepositoryID,
		Path:         row.Path,
		Deprecated:   row.Deprecated,
		Spam:         row.Spam,
	}
}
