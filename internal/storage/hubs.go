package storage

import (
	"errors"

	"gorm.io/gorm"

	"github.com/paperbase/paperbase/pkg/document"
	"github.com/paperbase/paperbase/pkg/models"
)

// Hubs stores origin URLs and the hub pages that aggregate them. Hubs
// are keyed by URL; inserting an existing hub URL updates its name.
type Hubs struct {
	db *gorm.DB
}

// NewHubs returns a hub store over db.
func NewHubs(db *gorm.DB) *Hubs {
	return &Hubs{db: db}
}

// InsertURL records an origin URL for a document and returns the row
// id. Recording the same (doi, url) pair again returns the existing id.
func (s *Hubs) InsertURL(doi, url string) (int64, error) {
	var existing models.HubURL
	err := s.db.Where("doi = ? AND url = ?", doi, url).First(&existing).Error
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, document.NewError("Hubs.InsertURL", err, doi)
	}

	row := models.HubURL{DOI: doi, URL: url}
	if err := s.db.Create(&row).Error; err != nil {
		return 0, document.NewError("Hubs.InsertURL", err, doi)
	}
	return row.ID, nil
}

// URLs returns the origin URLs recorded for a document.
func (s *Hubs) URLs(doi string) ([]string, error) {
	var urls []string
	err := s.db.Model(&models.HubURL{}).
		Where("doi = ?", doi).
		Order("id asc").
		Pluck("url", &urls).Error
	if err != nil {
		return nil, document.NewError("Hubs.URLs", err, doi)
	}
	return urls, nil
}

// InsertHub inserts a hub or, when its URL already exists, updates the
// stored name. Returns the hub row id.
func (s *Hubs) InsertHub(hub document.Hub) (int64, error) {
	row := models.Hub{Name: hub.Name, URL: hub.URL}
	if err := row.Validate(); err != nil {
		return 0, document.NewError("Hubs.InsertHub", err, hub.URL)
	}

	var existing models.Hub
	err := s.db.Where("url = ?", hub.URL).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := s.db.Create(&row).Error; err != nil {
			return 0, document.NewError("Hubs.InsertHub", err, hub.URL)
		}
		return row.ID, nil
	case err != nil:
		return 0, document.NewError("Hubs.InsertHub", err, hub.URL)
	}

	if existing.Name != hub.Name {
		err := s.db.Model(&models.Hub{}).Where("id = ?", existing.ID).
			Update("name", hub.Name).Error
		if err != nil {
			return 0, document.NewError("Hubs.InsertHub", err, hub.URL)
		}
	}
	return existing.ID, nil
}

// AddMapping associates a hub with one of a document's origin URLs,
// creating the hub and URL rows as needed.
func (s *Hubs) AddMapping(hub document.Hub, url, doi string) error {
	hubID, err := s.InsertHub(hub)
	if err != nil {
		return err
	}
	urlID, err := s.InsertURL(doi, url)
	if err != nil {
		return err
	}

	var existing models.HubMapping
	err = s.db.Where("url_id = ? AND hub_id = ?", urlID, hubID).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return document.NewError("Hubs.AddMapping", err, doi)
	}

	if err := s.db.Create(&models.HubMapping{URLID: urlID, HubID: hubID}).Error; err != nil {
		return document.NewError("Hubs.AddMapping", err, doi)
	}
	return nil
}

// ForDocument returns the hubs associated with a document through its
// origin URLs.
func (s *Hubs) ForDocument(doi string) ([]document.Hub, error) {
	var rows []models.Hub
	err := s.db.Model(&models.Hub{}).
		Distinct("hubs.id", "hubs.name", "hubs.url").
		Joins("JOIN hub_mappings ON hub_mappings.hub_id = hubs.id").
		Joins("JOIN hub_urls ON hub_urls.id = hub_mappings.url_id").
		Where("hub_urls.doi = ?", doi).
		Order("hubs.id asc").
		Find(&rows).Error
	if err != nil {
		return nil, document.NewError("Hubs.ForDocument", err, doi)
	}
	hubs := make([]document.Hub, 0, len(rows))
	for _, r := range rows {
		hubs = append(hubs, document.Hub{Name: r.Name, URL: r.URL})
	}
	return hubs, nil
}

// DocumentsForHubURL returns the ids of documents whose origin URLs
// are aggregated by the hub at hubURL.
func (s *Hubs) DocumentsForHubURL(hubURL string) ([]string, error) {
	var ids []string
	err := s.db.Model(&models.HubURL{}).
		Distinct("hub_urls.doi").
		Joins("JOIN hub_mappings ON hub_mappings.url_id = hub_urls.id").
		Joins("JOIN hubs ON hubs.id = hub_mappings.hub_id").
		Where("hubs.url = ?", hubURL).
		Order("hub_urls.doi asc").
		Pluck("hub_urls.doi", &ids).Error
	if err != nil {
		return nil, document.NewError("Hubs.DocumentsForHubURL", err, hubURL)
	}
	return ids, nil
}
