package e2e

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_DEBUG_JSON allows dumping posted messages as JSON
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours     bool          `envconfig:"E2E_COLOURS" default:"true"`
	LockTimeout time.Duration `envconfig:"E2E_LOCK_TIMEOUT" default:"2s"`
	TokenSecret string        `envconfig:"E2E_TOKEN_SECRET" default:"e2e-secret"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
