// Package config loads the service configuration from HCL.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/paperbase/paperbase/pkg/database"
	"github.com/paperbase/paperbase/pkg/repository"
)

// Config is the root of the HCL configuration file.
type Config struct {
	Database     *DatabaseConfig    `hcl:"database,block"`
	Repositories []RepositoryConfig `hcl:"repository,block"`
	Sweep        *SweepConfig       `hcl:"sweep,block"`
	LogLevel     string             `hcl:"log_level,optional"`
}

// DatabaseConfig configures the relational store connection.
type DatabaseConfig struct {
	Driver   string `hcl:"driver"`
	Host     string `hcl:"host,optional"`
	Port     int    `hcl:"port,optional"`
	User     string `hcl:"user,optional"`
	Password string `hcl:"password,optional"`
	DBName   string `hcl:"dbname,optional"`
	SSLMode  string `hcl:"sslmode,optional"`
	Path     string `hcl:"path,optional"` // sqlite only

	MaxIdleConns int `hcl:"max_idle_conns,optional"`
	MaxOpenConns int `hcl:"max_open_conns,optional"`
}

// RepositoryConfig maps a repository id to its filesystem root.
type RepositoryConfig struct {
	ID   string `hcl:"id,label"`
	Root string `hcl:"root"`
}

// SweepConfig tunes the reconciliation sweeper.
type SweepConfig struct {
	BatchSize     int    `hcl:"batch_size,optional"`
	MaxRetries    int    `hcl:"max_retries,optional"`
	RetryInterval string `hcl:"retry_interval,optional"` // Go duration
}

// Load reads and validates the configuration file.
func Load(filename string) (*Config, error) {
	if filename == "" {
		return nil, fmt.Errorf("configuration file path is required")
	}
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", filename)
	}

	var cfg Config
	if err := hclsimple.DecodeFile(filename, nil, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Database == nil {
		return fmt.Errorf("a database block is required")
	}
	if len(c.Repositories) == 0 {
		return fmt.Errorf("at least one repository block is required")
	}
	seen := make(map[string]struct{}, len(c.Repositories))
	for _, r := range c.Repositories {
		if r.Root == "" {
			return fmt.Errorf("repository %q has no root", r.ID)
		}
		if _, ok := seen[r.ID]; ok {
			return fmt.Errorf("repository %q is configured twice", r.ID)
		}
		seen[r.ID] = struct{}{}
	}
	if c.Sweep != nil && c.Sweep.RetryInterval != "" {
		if _, err := time.ParseDuration(c.Sweep.RetryInterval); err != nil {
			return fmt.Errorf("invalid sweep retry_interval: %w", err)
		}
	}
	return nil
}

// DatabaseConfig converts the database block into connection settings.
func (c *Config) DatabaseConfig() database.Config {
	d := c.Database
	return database.Config{
		Driver:       d.Driver,
		Host:         d.Host,
		Port:         d.Port,
		User:         d.User,
		Password:     d.Password,
		DBName:       d.DBName,
		SSLMode:      d.SSLMode,
		Path:         d.Path,
		MaxIdleConns: d.MaxIdleConns,
		MaxOpenConns: d.MaxOpenConns,
	}
}

// RepositoryMap builds the repository registry from the config blocks.
func (c *Config) RepositoryMap() (*repository.Map, error) {
	m := repository.NewMap()
	for _, r := range c.Repositories {
		if err := m.Register(r.ID, r.Root); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// SweepRetryInterval returns the parsed sweep retry interval, or zero
// when unset. Load already validated the format.
func (c *Config) SweepRetryInterval() time.Duration {
	if c.Sweep == nil || c.Sweep.RetryInterval == "" {
		return 0
	}
	d, _ := time.ParseDuration(c.Sweep.RetryInterval)
	return d
}
