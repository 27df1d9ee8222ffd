package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// TIMELINE_BASE_URL points at a running server, e.g. http://localhost:3000
	BaseURL string `envconfig:"TIMELINE_BASE_URL"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
