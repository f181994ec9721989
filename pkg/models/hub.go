package models

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Hub is a named aggregator page that links to many documents. Hubs
// are keyed by URL: re-inserting an existing URL updates the name
// instead of creating a second row.
type Hub struct {
	ID   int64  `gorm:"primaryKey"`
	Name string
	URL  string `gorm:"size:500;not null;uniqueIndex"`
}

// TableName specifies the table name.
func (Hub) TableName() string {
	return "hubs"
}

// Validate checks the row before insert.
func (h *Hub) Validate() error {
	return validation.ValidateStruct(h,
		validation.Field(&h.URL, validation.Required, is.URL),
	)
}

// HubURL is an origin URL a document was crawled from.
type HubURL struct {
	ID  int64  `gorm:"primaryKey"`
	DOI string `gorm:"size:100;not null;uniqueIndex:idx_hub_urls_doi_url,priority:1"`
	URL string `gorm:"size:500;not null;uniqueIndex:idx_hub_urls_doi_url,priority:2"`
}

// TableName specifies the table name.
func (HubURL) TableName() string {
	return "hub_urls"
}

// HubMapping associates a hub with an origin URL.
type HubMapping struct {
	ID    int64 `gorm:"primaryKey"`
	URLID int64 `gorm:"not null;uniqueIndex:idx_hub_mappings_url_hub,priority:1"`
	HubID int64 `gorm:"not null;uniqueIndex:idx_hub_mappings_url_hub,priority:2"`
}

// TableName specifies the table name.
func (HubMapping) TableName() string {
	return "hub_mappings"
}
