package storage

import (
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/paperbase/paperbase/pkg/document"
	"github.com/paperbase/paperbase/pkg/metrics"
	"github.com/paperbase/paperbase/pkg/models"
)

// newTestDB opens an in-memory database with the full schema migrated.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A second pooled connection would see a different in-memory
	// database, so pin the pool to one.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(models.ModelsToAutoMigrate()...))
	return db
}

func newTestMetadata(t *testing.T) *Metadata {
	t.Helper()
	return NewMetadata(newTestDB(t), hclog.NewNullLogger(), metrics.New())
}

// testDocument builds a minimal valid document for storage tests.
func testDocument(doi string) *document.Document {
	return &document.Document{
		DOI:   doi,
		State: document.StatePublished,
		Corrected: document.Fields{
			Title:    "A Study of Caching",
			Abstract: "We study caching.",
			Year:     "2004",
			Venue:    "SOSP",
			Volume:   "12",
			Number:   "3",
		},
		Source: &document.SourceFields{
			Fields: document.Fields{
				Title: "A Studdy of Caching",
				Year:  "2004",
			},
			Citations: "[1] Prior work.",
		},
		FileInfo: document.FileInfo{
			RepositoryID: "rep1",
			CrawlDate:    time.Date(2004, 6, 1, 12, 0, 0, 0, time.UTC),
		},
	}
}
