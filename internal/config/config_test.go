package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sindplast-am/go-admin-client/internal/config"
)

func TestLoad(t *testing.T) {
	t.Run("defaults from env only", func(t *testing.T) {
		cfg, err := config.Load("")
		require.NoError(t, err)
		require.Equal(t, "DEV", cfg.Env)
		require.Equal(t, "http://localhost:5000", cfg.API.BaseURL)
		require.Equal(t, 10*time.Second, cfg.API.Timeout)
		require.Equal(t, "file", cfg.Store.Driver)
		require.Equal(t, 500*time.Millisecond, cfg.Store.PollInterval)
	})

	t.Run("yaml file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
env: PROD
api:
  base_url: https://api.sindplast.example
  timeout: 3s
store:
  driver: sqlite
  path: /tmp/session.db
`), 0o644))

		cfg, err := config.Load(path)
		require.NoError(t, err)
		require.Equal(t, "PROD", cfg.Env)
		require.Equal(t, "https://api.sindplast.example", cfg.API.BaseURL)
		require.Equal(t, 3*time.Second, cfg.API.Timeout)
		require.Equal(t, "sqlite", cfg.Store.Driver)
	})

	t.Run("env beats file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("api:\n  base_url: https://file.example\n"), 0o644))
		t.Setenv("API_BASE_URL", "https://env.example")

		cfg, err := config.Load(path)
		require.NoError(t, err)
		require.Equal(t, "https://env.example", cfg.API.BaseURL)
	})

	t.Run("missing explicit file is an error", func(t *testing.T) {
		_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
	})
}

func TestStorePath(t *testing.T) {
	t.Run("explicit path wins", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Store.Path = "/data/session.json"
		path, err := cfg.StorePath()
		require.NoError(t, err)
		require.Equal(t, "/data/session.json", path)
	})

	t.Run("default depends on the driver", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Store.Driver = "sqlite"
		path, err := cfg.StorePath()
		require.NoError(t, err)
		require.Contains(t, path, "sindplast-admin")
		require.Contains(t, path, "session.db")
	})
}
