package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.hcl")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
log_level = "debug"

database {
  driver   = "postgres"
  host     = "db.internal"
  port     = 5432
  user     = "paperbase"
  password = "secret"
  dbname   = "paperbase"
}

repository "rep1" {
  root = "/data/rep1"
}

repository "rep2" {
  root = "/data/rep2"
}

sweep {
  batch_size     = 100
  max_retries    = 5
  retry_interval = "250ms"
}
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	require.Len(t, cfg.Repositories, 2)
	assert.Equal(t, "rep1", cfg.Repositories[0].ID)
	assert.Equal(t, "/data/rep1", cfg.Repositories[0].Root)
	assert.Equal(t, 100, cfg.Sweep.BatchSize)
	assert.Equal(t, 250*time.Millisecond, cfg.SweepRetryInterval())

	t.Run("database config conversion", func(t *testing.T) {
		db := cfg.DatabaseConfig()
		assert.Equal(t, "postgres", db.Driver)
		assert.Contains(t, db.DSN(), "host=db.internal")
	})

	t.Run("repository map registration", func(t *testing.T) {
		m, err := cfg.RepositoryMap()
		require.NoError(t, err)
		assert.Equal(t, []string{"rep1", "rep2"}, m.IDs())

		abs, err := m.Resolve("rep2", "10/1/1/1/1/10.1.1.1.1.xml")
		require.NoError(t, err)
		assert.Equal(t, filepath.FromSlash("/data/rep2/10/1/1/1/1/10.1.1.1.1.xml"), abs)
	})
}

func TestLoadRejectsBadConfigs(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{
			name: "no database block",
			contents: `
repository "rep1" {
  root = "/data/rep1"
}
`,
		},
		{
			name: "no repositories",
			contents: `
database {
  driver = "sqlite"
  path   = "/tmp/db.sqlite"
}
`,
		},
		{
			name: "duplicate repository id",
			contents: `
database {
  driver = "sqlite"
  path   = "/tmp/db.sqlite"
}

repository "rep1" {
  root = "/data/a"
}

repository "rep1" {
  root = "/data/b"
}
`,
		},
		{
			name: "bad retry interval",
			contents: `
database {
  driver = "sqlite"
  path   = "/tmp/db.sqlite"
}

repository "rep1" {
  root = "/data/rep1"
}

sweep {
  retry_interval = "soon"
}
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.contents))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.hcl"))
	assert.Error(t, err)

	_, err = Load("")
	assert.Error(t, err)
}
