package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/ragdesk/internal/flagx"
	"github.com/dmitrijs2005/ragdesk/internal/timex"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// fileConfig is a DTO used exclusively for decoding config files. Zero
// values leave the corresponding Config field untouched.
type fileConfig struct {
	BaseURL        string         `json:"base_url" toml:"base_url" yaml:"base_url"`
	RequestTimeout timex.Duration `json:"request_timeout" toml:"request_timeout" yaml:"request_timeout"`
	DatabasePath   string         `json:"database_path" toml:"database_path" yaml:"database_path"`
	LogLevel       string         `json:"log_level" toml:"log_level" yaml:"log_level"`
}

// parseFile overlays Config with values from the file named by -c/-config.
// The decoder is picked from the extension: .toml, .yaml/.yml, anything else
// is treated as JSON.
func parseFile(cfg *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &fc)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if v := strings.TrimSpace(fc.BaseURL); v != "" {
		cfg.BaseURL = v
	}
	if fc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = fc.RequestTimeout.Duration
	}
	if v := strings.TrimSpace(fc.DatabasePath); v != "" {
		cfg.DatabasePath = v
	}
	if v := strings.TrimSpace(fc.LogLevel); v != "" {
		cfg.LogLevel = v
	}
	return nil
}
