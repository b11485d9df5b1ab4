package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config holds everything a load test run needs to know about its targets and its load shape.
type Config struct {
	Hosts            []string      `toml:"hosts" yaml:"hosts"`
	ObjectCount      int           `toml:"object_count" yaml:"object_count"`
	PayloadFile      string        `toml:"payload_file" yaml:"payload_file"`
	PayloadSize      int64         `toml:"payload_size" yaml:"payload_size"`
	VUs              int           `toml:"vus" yaml:"vus"`
	Iterations       int           `toml:"iterations" yaml:"iterations"`
	Duration         time.Duration `toml:"duration" yaml:"duration"`
	RateLimit        int           `toml:"rate_limit" yaml:"rate_limit"`
	SetupConcurrency int           `toml:"setup_concurrency" yaml:"setup_concurrency"`
	RequestTimeout   time.Duration `toml:"request_timeout" yaml:"request_timeout"`
	BearerToken      string        `toml:"bearer_token" yaml:"bearer_token"`
	MetricsAddr      string        `toml:"metrics_addr" yaml:"metrics_addr"`
}

// Default returns the configuration used when neither a config file nor flags say otherwise.
func Default() Config {
	return Config{
		Hosts:            []string{"http://localhost:5000", "http://localhost:5001"},
		ObjectCount:      64,
		PayloadFile:      "object.bin",
		PayloadSize:      1024 * 1024,
		VUs:              64,
		Iterations:       1,
		SetupConcurrency: 8,
		RequestTimeout:   120 * time.Second,
	}
}

// Load reads the config file at path on top of the defaults. The format is picked by extension
// (.toml, .yaml, .yml). An empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file %v: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(raw), &cfg); err != nil {
			return Config{}, fmt.Errorf("decode toml config %v: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode yaml config %v: %w", path, err)
		}
	default:
		return Config{}, fmt.Errorf("unsupported config file extension '%v' (use .toml, .yaml or .yml)", ext)
	}

	return cfg, nil
}

// Validate checks the configuration and normalizes the host list in place.
func (c *Config) Validate() error {
	if len(c.Hosts) == 0 {
		return errors.New("at least one host is required")
	}

	for i, host := range c.Hosts {
		normalized, err := normalizeHost(host)
		if err != nil {
			return fmt.Errorf("host %v: %w", i, err)
		}
		c.Hosts[i] = normalized
	}

	if c.ObjectCount <= 0 {
		return fmt.Errorf("object count %v must be > 0", c.ObjectCount)
	}
	if c.VUs <= 0 {
		return fmt.Errorf("vus %v must be > 0", c.VUs)
	}
	if c.Iterations < 0 {
		return fmt.Errorf("iterations %v must be >= 0", c.Iterations)
	}
	if c.Duration < 0 {
		return fmt.Errorf("duration %v must be >= 0", c.Duration)
	}
	if c.Iterations == 0 && c.Duration == 0 {
		return errors.New("either iterations or duration must be set, otherwise the run never ends")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate limit %v must be >= 0", c.RateLimit)
	}
	if c.SetupConcurrency <= 0 {
		return fmt.Errorf("setup concurrency %v must be > 0", c.SetupConcurrency)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout %v must be > 0", c.RequestTimeout)
	}
	if c.PayloadFile == "" && c.PayloadSize <= 0 {
		return fmt.Errorf("payload size %v must be > 0 when no payload file is configured", c.PayloadSize)
	}

	return nil
}

func normalizeHost(rawHost string) (string, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(rawHost), "/")

	hostURL, err := url.ParseRequestURI(trimmed)
	if err != nil {
		return "", fmt.Errorf("parse URL '%v': %w", rawHost, err)
	}

	if hostURL.Scheme != "http" && hostURL.Scheme != "https" {
		return "", fmt.Errorf("URL '%v' must use the http or https scheme", rawHost)
	}
	if hostURL.Host == "" || hostURL.Path != "" || hostURL.RawQuery != "" {
		return "", fmt.Errorf("URL '%v' must contain a scheme and a host and must not contain a path. "+
			"Example: http://localhost:5000", rawHost)
	}

	return trimmed, nil
}
