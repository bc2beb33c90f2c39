// CLAUDE:SUMMARY Tracker YAML configuration: ordered bill list, fetch settings, data/docs directories.
// Package config loads the tracking configuration from a YAML file.
package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/legiswatch/tracker/bill"
	"github.com/hazyhaar/legiswatch/tracker/internal/fetch"
)

// Config is the top-level tracker configuration. Bills is an ordered list:
// its order drives diff and dashboard ordering. Settings is free-form and
// ignored by the core; it round-trips for other tooling.
type Config struct {
	Bills    []string       `yaml:"bills"`
	Fetch    fetch.Config   `yaml:"fetch"`
	DataDir  string         `yaml:"data_dir"`
	DocsDir  string         `yaml:"docs_dir"`
	Settings map[string]any `yaml:"settings"`
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.DocsDir == "" {
		c.DocsDir = "docs"
	}
}

// LoadFile reads and normalizes a YAML configuration file. Bill identifiers
// are canonicalized at the boundary; malformed entries are skipped with a
// warning (per-item, never fatal), duplicates are collapsed keeping the
// first position. A missing or unreadable file is fatal to the run.
func LoadFile(path string, logger *slog.Logger) (*Config, error) {
	if logger == nil {
		logger = slog.Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyDefaults()

	seen := make(map[string]bool, len(cfg.Bills))
	normalized := make([]string, 0, len(cfg.Bills))
	for _, raw := range cfg.Bills {
		id, err := bill.NormalizeID(raw)
		if err != nil {
			logger.Warn("config: skipping malformed bill identifier", "entry", raw, "error", err)
			continue
		}
		if seen[id] {
			logger.Warn("config: duplicate bill identifier", "identifier", id)
			continue
		}
		seen[id] = true
		normalized = append(normalized, id)
	}
	cfg.Bills = normalized

	return &cfg, nil
}
