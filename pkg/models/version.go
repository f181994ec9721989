package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaperVersion is one immutable snapshot in a document's version
// ledger. Version 0 is the original import. Deprecated and spam are
// flags, not deletions: the snapshot file stays on disk either way.
type PaperVersion struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time

	DOI     string `gorm:"size:100;not null;uniqueIndex:idx_paper_versions_doi_version,priority:1"`
	Version int    `gorm:"not null;uniqueIndex:idx_paper_versions_doi_version,priority:2"`
	Name    string `gorm:"index"`

	RepositoryID string `gorm:"size:100;not null"`
	Path         string `gorm:"size:500;not null"`

	Deprecated bool `gorm:"not null;default:false"`
	Spam       bool `gorm:"not null;default:false"`
}

// TableName specifies the table name.
func (PaperVersion) TableName() string {
	return "paper_versions"
}

// Correction attributes a version to the user whose edit produced it.
// At most one corrector exists per (doi, version).
type Correction struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time

	UserID  string `gorm:"size:100;not null;index"`
	DOI     string `gorm:"size:100;not null;uniqueIndex:idx_corrections_doi_version,priority:1"`
	Version int    `gorm:"not null;uniqueIndex:idx_corrections_doi_version,priority:2"`
}

// TableName specifies the table name.
func (Correction) TableName() string {
	return "corrections"
}

// BeforeCreate assigns the record id.
func (c *Correction) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
