// Package config contains the configuration of an ipatlas installation.
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"

	"github.com/ipatlas/ipatlas/internal/database"
	"github.com/ipatlas/ipatlas/internal/gazetteer"
	"github.com/ipatlas/ipatlas/internal/registry"
	"github.com/ipatlas/ipatlas/internal/resolver"
	"github.com/pkg/errors"
	"github.com/tailscale/hujson"
)

// DefaultDatabasePath is the database used when none is configured.
const DefaultDatabasePath = "ipatlas.sqlite3"

// DefaultCulture is the culture used to render names.
const DefaultCulture = "en"

// ReadConfig reads the configuration from the path. Relative
// dump paths are relative to the directory containing the file.
func ReadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := ParseConfig(b)
	if err != nil {
		return nil, errors.Wrap(err, "parsing config")
	}
	c.path = path
	c.relativeTo(filepath.Dir(path))
	return c, nil
}

// ParseConfig returns config from JSON bytes. Comments and
// trailing commas are allowed.
func ParseConfig(b []byte) (*Config, error) {
	b, err := hujson.Standardize(b)
	if err != nil {
		return nil, errors.Wrap(err, "parsing hujson")
	}
	var c Config
	decoder := json.NewDecoder(bytes.NewReader(b))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&c); err != nil {
		return nil, errors.Wrap(err, "parsing json")
	}
	c.Default()
	if err := c.Validate(); err != nil {
		return nil, errors.Wrap(err, "validating")
	}
	return &c, nil
}

// Config for an ipatlas installation
type Config struct {
	// Comment is ignored.
	Comment string `json:"_,omitempty"`

	// DatabasePath is the SQLite database.
	DatabasePath string `json:"database_path"`

	// SearchRadius is the nearest populated place radius in degrees.
	SearchRadius float64 `json:"search_radius"`

	// BatchSize is the number of rows per transaction.
	BatchSize int `json:"batch_size"`

	// Parallelism is the number of providers parsed at the same time.
	Parallelism int `json:"parallelism"`

	// Culture is the default culture of rendered names.
	Culture string `json:"culture"`

	// Gazetteer contains the GeoNames dump files.
	Gazetteer gazetteer.Paths `json:"gazetteer"`

	// Providers contains the feeds to import, in order.
	Providers []Provider `json:"providers"`

	path string
}

// Provider configures a feed.
type Provider struct {
	// Type is the provider type (see registry.Names).
	Type string `json:"type"`

	// Tag is the name under which ranges are stored. When empty,
	// the canonical provider type is used.
	Tag string `json:"tag,omitempty"`

	// Files maps file roles to paths.
	Files map[string]string `json:"files"`
}

// Default returns a configuration with every field set to its default.
func Default() *Config {
	c := &Config{}
	c.Default()
	return c
}

// Path returns the path the config was read from, if any.
func (c *Config) Path() string {
	return c.path
}

// Default config settings
func (c *Config) Default() {
	if c.DatabasePath == "" {
		c.DatabasePath = DefaultDatabasePath
	}
	if c.SearchRadius == 0 {
		c.SearchRadius = resolver.DefaultSearchRadius
	}
	if c.BatchSize == 0 {
		c.BatchSize = database.DefaultBatchSize
	}
	if c.Parallelism == 0 {
		c.Parallelism = runtime.NumCPU()
	}
	if c.Culture == "" {
		c.Culture = DefaultCulture
	}
}

// Validate the config file
func (c *Config) Validate() error {
	if c.SearchRadius < 0 {
		return errors.Errorf("search_radius must not be negative: %f", c.SearchRadius)
	}
	if c.BatchSize < 0 {
		return errors.Errorf("batch_size must not be negative: %d", c.BatchSize)
	}
	if c.Parallelism < 0 {
		return errors.Errorf("parallelism must not be negative: %d", c.Parallelism)
	}
	tags := make(map[string]bool)
	for idx, p := range c.Providers {
		factory, err := registry.NewFactory(p.Type)
		if err != nil {
			return errors.Wrapf(err, "providers[%d]", idx)
		}
		if err := factory.Validate(p.Files); err != nil {
			return errors.Wrapf(err, "providers[%d]", idx)
		}
		tag := p.StorageTag()
		if tags[tag] {
			return errors.Errorf("providers[%d]: duplicate tag %q", idx, tag)
		}
		tags[tag] = true
	}
	return nil
}

// StorageTag returns the tag under which the ranges of p are stored.
func (p *Provider) StorageTag() string {
	if p.Tag != "" {
		return p.Tag
	}
	return registry.CanonicalizeProviderName(p.Type)
}

// ValidateGazetteer checks that the gazetteer files are configured.
func (c *Config) ValidateGazetteer() error {
	paths := c.Gazetteer
	for _, entry := range []struct {
		name  string
		value string
	}{
		{"countries", paths.Countries},
		{"admin1", paths.Admin1},
		{"admin2", paths.Admin2},
		{"places", paths.Places},
	} {
		if entry.value == "" {
			return errors.Errorf("gazetteer.%s is not configured", entry.name)
		}
	}
	return nil
}

// relativeTo makes the relative paths relative to dir.
func (c *Config) relativeTo(dir string) {
	join := func(path *string) {
		if *path != "" && !filepath.IsAbs(*path) {
			*path = filepath.Join(dir, *path)
		}
	}
	join(&c.DatabasePath)
	join(&c.Gazetteer.Countries)
	join(&c.Gazetteer.Admin1)
	join(&c.Gazetteer.Admin2)
	join(&c.Gazetteer.Places)
	join(&c.Gazetteer.Names)
	for idx := range c.Providers {
		for role, path := range c.Providers[idx].Files {
			join(&path)
			c.Providers[idx].Files[role] = path
		}
	}
}
