package config

import (
	"os"
	"time"

	"github.com/dmitrijs2005/ragdesk/internal/common"
)

// Config holds runtime settings for the ragdesk client.
//
// Fields:
//   - BaseURL: scheme://host[:port] of the API all requests are sent to.
//   - RequestTimeout: per-request timeout of the transport; streams apply it
//     only until response headers arrive.
//   - DatabasePath: SQLite file holding the durable credential store.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	BaseURL        string
	RequestTimeout time.Duration
	DatabasePath   string
	LogLevel       string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BaseURL = common.DefaultBaseURL
	c.RequestTimeout = 30 * time.Second
	c.DatabasePath = "ragdesk.db"
	c.LogLevel = "info"
}

// LoadConfig builds a Config from the process arguments and environment.
// Sources are applied in order, later ones taking precedence: defaults,
// config file (-c), environment, flags.
func LoadConfig() (*Config, error) {
	return load(os.Args[1:], os.LookupEnv)
}

func load(args []string, lookupEnv func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseFile(cfg, args); err != nil {
		return nil, err
	}
	parseEnv(cfg, lookupEnv)
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
