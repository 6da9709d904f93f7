// Package app wires configuration, infrastructure and the conversation into a
// runnable bot.
package app

import (
	"fmt"
	"time"

	coreconfig "github.com/m3rciful/cnybot/core/config"
	coredatabase "github.com/m3rciful/cnybot/core/database"
	"github.com/m3rciful/cnybot/internal/rates"
)

// RatesConfig points the fetcher at the exchange rate feed.
type RatesConfig struct {
	URL            string `yaml:"url" envconfig:"RATES_URL"`
	TimeoutSeconds int    `yaml:"timeout_seconds" envconfig:"RATES_TIMEOUT_SECONDS"`
}

// Timeout returns the per-request timeout.
func (r RatesConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// Config is the full bot configuration: the core sections plus rates and the
// optional quote journal database.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Rates    RatesConfig         `yaml:"rates"`
	Database coredatabase.Config `yaml:"database"`
}

// CoreConfig exposes the embedded core section.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// Load reads path (optional) and the environment, then validates.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates every section and fills defaults.
func (c *Config) Normalize() error {
	if err := coreconfig.Normalize(&c.Config); err != nil {
		return err
	}
	if c.Rates.URL == "" {
		c.Rates.URL = rates.DefaultURL
	}
	switch {
	case c.Rates.TimeoutSeconds < 0:
		return fmt.Errorf("rates.timeout_seconds must be >= 0")
	case c.Rates.TimeoutSeconds == 0:
		c.Rates.TimeoutSeconds = int(rates.DefaultTimeout / time.Second)
	}
	if err := c.Database.Normalize(); err != nil {
		return err
	}
	return nil
}
