package bot

import (
	coreconfig "github.com/parkops/shiftbot/core/config"
	coredatabase "github.com/parkops/shiftbot/core/database"
	"github.com/parkops/shiftbot/core/telegram/state"
)

// Config is the full application configuration: the shared core
// sections plus the database and session backends.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Session  state.Config        `yaml:"session"`
}

// CoreConfig exposes the embedded core configuration for the runner.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// LoadConfig reads and validates the application configuration.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.LoadInto(path, &cfg); err != nil {
		return nil, err
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	return &cfg, nil
}
