package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bnema/opq/internal/fuzzy"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadUsesDefaultsWithoutConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Empty(t, cfg.OP.Path)
	assert.Zero(t, cfg.OP.Timeout)
	assert.Equal(t, 29*time.Minute, cfg.Session.Lease)
	assert.Equal(t, filepath.Join(home, ".config", "opq", "session.toml"), cfg.Session.Path)
	assert.Equal(t, filepath.Join(home, ".config", "opq", "secrets"), cfg.Credentials.FileRoot)
	assert.Equal(t, "opq/{domain}/secret_key", cfg.Credentials.SecretKeyRef)
	assert.Equal(t, defaultAvatarURL, cfg.Avatar.DefaultURL)
	assert.Equal(t, fuzzy.DefaultOptions(), cfg.Search)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadReadsConfigFileAndKeepsUnsetSearchDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".config", "opq")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`
[op]
path = "/opt/op/bin/op"
timeout = "45s"

[account]
domain = "acme.example.com"
email = "a@acme.test"

[session]
path = "~/state/session.toml"

[search]
threshold = 0.4
`), 0o600))

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "/opt/op/bin/op", cfg.OP.Path)
	assert.Equal(t, 45*time.Second, cfg.OP.Timeout)
	assert.Equal(t, "acme.example.com", cfg.Account.Domain)
	assert.Equal(t, "a@acme.test", cfg.Account.Email)
	assert.Equal(t, filepath.Join(home, "state", "session.toml"), cfg.Session.Path)
	assert.InDelta(t, 0.4, cfg.Search.Threshold, 1e-9)
	assert.True(t, cfg.Search.Sort)
	assert.Equal(t, 100, cfg.Search.Distance)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("OPQ_SESSION_LEASE", "10m")
	t.Setenv("OPQ_LOG_LEVEL", "debug")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, 10*time.Minute, cfg.Session.Lease)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadExplicitFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), "custom.toml")
	require.NoError(t, os.WriteFile(path, []byte("[avatar]\ndefault_url = \"https://cdn.example.com/blank.png\"\n"), 0o600))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/blank.png", cfg.Avatar.DefaultURL)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	testCases := []struct {
		name    string
		env     string
		value   string
		wantErr string
	}{
		{name: "negative timeout", env: "OPQ_OP_TIMEOUT", value: "-1s", wantErr: "op.timeout"},
		{name: "zero lease", env: "OPQ_SESSION_LEASE", value: "0s", wantErr: "session.lease"},
		{name: "threshold above one", env: "OPQ_SEARCH_THRESHOLD", value: "1.5", wantErr: "search.threshold"},
		{name: "negative location", env: "OPQ_SEARCH_LOCATION", value: "-5", wantErr: "search.location"},
		{name: "negative distance", env: "OPQ_SEARCH_DISTANCE", value: "-1", wantErr: "search.distance"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("HOME", t.TempDir())
			t.Setenv(tc.env, tc.value)

			_, err := Load(viper.New(), "")
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestLoadFailsOnMalformedConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".config", "opq")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[op\npath = "), 0o600))

	_, err := Load(viper.New(), "")
	require.Error(t, err)
	assert.ErrorContains(t, err, "read config file")
}
