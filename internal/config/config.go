// Package config loads the opuscat configuration from an optional TOML file,
// falling back to defaults that work out of the box.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	// ArtifactDir is the root acquisition directory; each source gets one
	// subdirectory of XML artifacts plus a records file under it.
	ArtifactDir string `toml:"artifact_dir"`
	// Database overrides the store path; empty means the pkg/database default.
	Database string `toml:"database"`
	// Bind is the query API listen address.
	Bind string `toml:"bind"`

	Crawl Crawl `toml:"crawl"`
}

type Crawl struct {
	// DelayMS is the inter-item delay between downloads.
	DelayMS int `toml:"delay_ms"`
	// TimeoutSeconds bounds every single HTTP request.
	TimeoutSeconds int `toml:"timeout_seconds"`
	// Page-bound overrides per source; 0 keeps the source default.
	NielsenPages int `toml:"nielsen_pages"`
	DeliusPages  int `toml:"delius_pages"`
}

func Default() *Config {
	return &Config{
		ArtifactDir: "xml-files",
		Bind:        ":8080",
		Crawl: Crawl{
			DelayMS:        500,
			TimeoutSeconds: 30,
		},
	}
}

// Load reads the TOML file at path over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ArtifactDir == "" {
		return fmt.Errorf("artifact_dir must not be empty")
	}
	if c.Crawl.DelayMS < 0 {
		return fmt.Errorf("crawl.delay_ms must not be negative")
	}
	if c.Crawl.TimeoutSeconds <= 0 {
		return fmt.Errorf("crawl.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) Delay() time.Duration {
	return time.Duration(c.Crawl.DelayMS) * time.Millisecond
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Crawl.TimeoutSeconds) * time.Second
}

// RecordsPath is where a composer's acquisition records file lives.
func (c *Config) RecordsPath(composer string) string {
	return filepath.Join(c.ArtifactDir, composer+".jsonl")
}

// SourceDir is a source's artifact subdirectory.
func (c *Config) SourceDir(composer string) string {
	return filepath.Join(c.ArtifactDir, composer)
}
