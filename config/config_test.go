package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"http://localhost:5000", "http://localhost:5001"}, cfg.Hosts)
	assert.Equal(t, 64, cfg.ObjectCount)
	assert.Equal(t, "object.bin", cfg.PayloadFile)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadTOML(t *testing.T) {
	path := writeConfig(t, "bench.toml", `
hosts = ["http://10.0.0.1:5000", "http://10.0.0.2:5000/"]
object_count = 16
vus = 8
iterations = 0
duration = "30s"
rate_limit = 100
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []string{"http://10.0.0.1:5000", "http://10.0.0.2:5000"}, cfg.Hosts)
	assert.Equal(t, 16, cfg.ObjectCount)
	assert.Equal(t, 8, cfg.VUs)
	assert.Equal(t, 0, cfg.Iterations)
	assert.Equal(t, 30*time.Second, cfg.Duration)
	assert.Equal(t, 100, cfg.RateLimit)
	// untouched keys keep their defaults
	assert.Equal(t, "object.bin", cfg.PayloadFile)
	assert.Equal(t, 8, cfg.SetupConcurrency)
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "bench.yaml", `
hosts:
  - https://store.example.com
object_count: 4
payload_file: ""
payload_size: 2048
request_timeout: 5s
bearer_token: secret
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []string{"https://store.example.com"}, cfg.Hosts)
	assert.Equal(t, 4, cfg.ObjectCount)
	assert.Empty(t, cfg.PayloadFile)
	assert.Equal(t, int64(2048), cfg.PayloadSize)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "secret", cfg.BearerToken)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "bench.json", `{}`))
	assert.ErrorContains(t, err, "unsupported config file extension")

	_, err = Load(writeConfig(t, "broken.toml", `hosts = [`))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"no hosts", func(c *Config) { c.Hosts = nil }},
		{"host without scheme", func(c *Config) { c.Hosts = []string{"localhost:5000"} }},
		{"host with path", func(c *Config) { c.Hosts = []string{"http://localhost:5000/object"} }},
		{"ftp host", func(c *Config) { c.Hosts = []string{"ftp://localhost:21"} }},
		{"zero objects", func(c *Config) { c.ObjectCount = 0 }},
		{"zero vus", func(c *Config) { c.VUs = 0 }},
		{"negative iterations", func(c *Config) { c.Iterations = -1 }},
		{"endless run", func(c *Config) { c.Iterations = 0; c.Duration = 0 }},
		{"negative rate", func(c *Config) { c.RateLimit = -5 }},
		{"zero setup concurrency", func(c *Config) { c.SetupConcurrency = 0 }},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }},
		{"no payload", func(c *Config) { c.PayloadFile = ""; c.PayloadSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
