package database

import (
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestConfig_DSN(t *testing.T) {
	t.Run("postgres", func(t *testing.T) {
		cfg := Config{
			Driver:   "postgres",
			Host:     "db.internal",
			Port:     5432,
			User:     "paperbase",
			Password: "secret",
			DBName:   "paperbase",
		}
		assert.Equal(t,
			"host=db.internal port=5432 user=paperbase password=secret dbname=paperbase sslmode=disable",
			cfg.DSN())
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := Config{Driver: "sqlite", Path: "paperbase.db"}
		assert.Equal(t, "paperbase.db", cfg.DSN())
	})
}

func TestConnect_UnsupportedDriver(t *testing.T) {
	_, err := Connect(Config{Driver: "oracle"}, nil)
	assert.Error(t, err)
}

func TestConnect_Sqlite(t *testing.T) {
	db, err := Connect(Config{Driver: "sqlite", Path: ":memory:"}, hclog.NewNullLogger())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.NoError(t, sqlDB.Ping())
}

func TestGormLogger_LogMode(t *testing.T) {
	l := NewGormLogger(hclog.NewNullLogger())
	leveled := l.LogMode(logger.Silent)
	assert.NotSame(t, l, leveled)
}
