// Package models holds the gorm row models behind the metadata store.
//
// Bibliographic text columns stay strings; year/volume/number are
// nullable integers filled by a lenient parse at the storage boundary,
// so a malformed value lands as NULL instead of failing the row.
package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Paper is the corrected (user-facing) metadata record of a document.
type Paper struct {
	DOI       string `gorm:"column:doi;primaryKey;size:100"`
	Version   int    `gorm:"not null;default:0"`
	ClusterID *int64 `gorm:"index"`

	Title      string `gorm:"type:text"`
	Abstract   string `gorm:"type:text"`
	Year       *int
	Venue      string
	VenueType  string
	Pages      string
	Volume     *int
	Number     *int
	Publisher  string
	PubAddress string
	Tech       string

	State     int `gorm:"not null;default:0;index"`
	NCites    int `gorm:"not null;default:0"`
	SelfCites int `gorm:"not null;default:0"`

	VersionName string
	VersionTime time.Time `gorm:"autoUpdateTime;index"`

	CrawlDate       time.Time `gorm:"index"`
	RepositoryID    string    `gorm:"size:100;not null"`
	ConversionTrace string    `gorm:"type:text"`
}

// TableName specifies the table name.
func (Paper) TableName() string {
	return "papers"
}

// Validate checks the row before insert.
func (p *Paper) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.DOI, validation.Required, validation.Length(1, 100)),
		validation.Field(&p.RepositoryID, validation.Required),
		validation.Field(&p.Version, validation.Min(0)),
	)
}

// PaperSource is the as-extracted shadow of a Paper. It is written once
// at import and never overwritten by corrections. Numeric fields stay
// raw strings here: the shadow preserves exactly what extraction
// produced.
type PaperSource struct {
	DOI string `gorm:"column:doi;primaryKey;size:100"`

	Title      string `gorm:"type:text"`
	Abstract   string `gorm:"type:text"`
	Year       string
	Venue      string
	VenueType  string
	Pages      string
	Volume     string
	Number     string
	Publisher  string
	PubAddress string
	Tech       string
	Citations  string `gorm:"type:text"`
}

// TableName specifies the table name.
func (PaperSource) TableName() string {
	return "paper_sources"
}
