// config loads client configuration.
//
// Sources (in descending priority):
//  1. explicit path passed to Load;
//  2. CONFIG_PATH;
//  3. env vars only (cleanenv).
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env   string      `yaml:"env" env:"ENV" env-default:"DEV"`
	API   APIConfig   `yaml:"api"`
	Store StoreConfig `yaml:"store"`
}

// APIConfig points the client at the SINDPLAST backend.
type APIConfig struct {
	BaseURL string        `yaml:"base_url" env:"API_BASE_URL" env-default:"http://localhost:5000"`
	Timeout time.Duration `yaml:"timeout" env:"API_TIMEOUT" env-default:"10s"`
}

// StoreConfig selects the persisted session store driver.
// Driver is one of "file", "sqlite" or "memory".
type StoreConfig struct {
	Driver       string        `yaml:"driver" env:"STORE_DRIVER" env-default:"file"`
	Path         string        `yaml:"path" env:"STORE_PATH" env-default:""`
	PollInterval time.Duration `yaml:"poll_interval" env:"STORE_POLL_INTERVAL" env-default:"500ms"`
}

// MustLoad panics on load failure.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

func Load(path string) (*Config, error) {
	var cfg Config

	tryRead := func(p string) (*Config, error) {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}
		// ReadConfig overlays environment variables after parsing the file.
		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		return &cfg, nil
	}

	if path != "" {
		return tryRead(path)
	}

	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return tryRead(envPath)
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read env config: %w", err)
	}
	return &cfg, nil
}

// StorePath returns the configured session store location, defaulting to
// a file under the user config dir when unset.
func (c *Config) StorePath() (string, error) {
	if c.Store.Path != "" {
		return c.Store.Path, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	name := "session.json"
	if c.Store.Driver == "sqlite" {
		name = "session.db"
	}
	return dir + "/sindplast-admin/" + name, nil
}
