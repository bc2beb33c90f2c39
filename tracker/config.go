package tracker

import (
	"log/slog"

	"github.com/hazyhaar/legiswatch/tracker/internal/config"
)

// Config is the tracker configuration loaded from YAML.
type Config = config.Config

// LoadConfig reads and normalizes a YAML configuration file. Malformed bill
// identifiers are skipped with a warning; a missing or unparseable file is
// an error.
func LoadConfig(path string, logger *slog.Logger) (*Config, error) {
	return config.LoadFile(path, logger)
}
