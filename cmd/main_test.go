package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitHosts(t *testing.T) {
	assert.Equal(t, []string{"http://a:5000", "http://b:5001"}, splitHosts(" http://a:5000, ,http://b:5001,"))
	assert.Nil(t, splitHosts(""))
}

func parseFlags(t *testing.T, args ...string) (*cliFlags, *flag.FlagSet) {
	t.Helper()
	fs := flag.NewFlagSet("objbench", flag.ContinueOnError)
	var flags cliFlags
	flags.register(fs)
	require.NoError(t, fs.Parse(args))
	return &flags, fs
}

func TestLoadConfigSetFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "objbench.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
hosts = ["http://store-a:5000"]
object_count = 16
vus = 8
duration = "30s"
`), 0o644))

	flags, fs := parseFlags(t, "-config", path, "-vus", "3", "-hosts", "http://x:1,http://y:2")
	cfg, err := flags.loadConfig(fs)
	require.NoError(t, err)

	// set on the command line
	assert.Equal(t, 3, cfg.VUs)
	assert.Equal(t, []string{"http://x:1", "http://y:2"}, cfg.Hosts)

	// not set, the file value stays even though the flag default differs
	assert.Equal(t, 16, cfg.ObjectCount)
	assert.Equal(t, 30*time.Second, cfg.Duration)
}

func TestLoadConfigWithoutFileUsesFlagDefaults(t *testing.T) {
	flags, fs := parseFlags(t, "-rate-limit", "5")
	cfg, err := flags.loadConfig(fs)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.RateLimit)
	assert.Equal(t, 64, cfg.ObjectCount)
	assert.Equal(t, []string{"http://localhost:5000", "http://localhost:5001"}, cfg.Hosts)
}

func TestLoadConfigMissingFile(t *testing.T) {
	flags, fs := parseFlags(t, "-config", filepath.Join(t.TempDir(), "missing.toml"))
	_, err := flags.loadConfig(fs)
	assert.Error(t, err)
}
