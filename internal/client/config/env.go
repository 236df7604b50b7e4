package config

import (
	"strings"

	"github.com/dmitrijs2005/ragdesk/internal/common"
)

// parseEnv overlays the API base URL from RAGDESK_API_BASE_URL when set.
func parseEnv(cfg *Config, lookupEnv func(string) (string, bool)) {
	if v, ok := lookupEnv(common.BaseURLEnvName); ok && strings.TrimSpace(v) != "" {
		cfg.BaseURL = strings.TrimSpace(v)
	}
}
