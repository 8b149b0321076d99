package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()

	cfg, err := Load(viper.New(), LoadOptions{Home: home})
	require.NoError(t, err)

	assert.Equal(t, home, cfg.Home)
	assert.Empty(t, cfg.ConfigFile)
	assert.Equal(t, ProviderGemini, cfg.Backend.Provider)
	assert.Equal(t, 2*time.Minute, cfg.Backend.Timeout)
	assert.Equal(t, MirrorTOML, cfg.Mirror.Backend)
	assert.Equal(t, filepath.Join(home, "state.toml"), cfg.Mirror.Path)
	assert.EqualValues(t, 5<<20, cfg.Mirror.QuotaBytes)
	assert.Equal(t, 200*time.Millisecond, cfg.Buttons.Debounce)
	assert.Equal(t, "127.0.0.1:8787", cfg.Server.Addr)
	assert.Equal(t, 3, cfg.Retry.Attempts)
	assert.Equal(t, 5*time.Second, cfg.Retry.Delay)
	assert.Equal(t, 3, cfg.Votes.Required)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, filepath.Join(home, "secrets"), cfg.SecretsDir())
}

func TestLoadConfigFile(t *testing.T) {
	home := t.TempDir()
	content := `
[backend]
provider = "OpenAI"
model = "gpt-image-1"
timeout = "45s"

[mirror]
backend = "badger"

[retry]
attempts = 5
delay = "250ms"

[log]
level = "debug"
format = "json"

[session]
manual_advance = true
`
	require.NoError(t, os.WriteFile(filepath.Join(home, "config.toml"), []byte(content), 0o600))

	cfg, err := Load(viper.New(), LoadOptions{Home: home})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "config.toml"), cfg.ConfigFile)
	assert.Equal(t, ProviderOpenAI, cfg.Backend.Provider)
	assert.Equal(t, "gpt-image-1", cfg.Backend.Model)
	assert.Equal(t, 45*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, filepath.Join(home, "state.badger"), cfg.Mirror.Path)
	assert.Equal(t, 5, cfg.Retry.Attempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.Delay)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Session.ManualAdvance)
}

func TestLoadEnvOverrides(t *testing.T) {
	home := t.TempDir()
	t.Setenv("EVO_VOTES_REQUIRED", "5")
	t.Setenv("EVO_BUTTONS_URL", "ws://raspberrypi.local:8765")
	t.Setenv("EVO_SERVER_ADDR", "0.0.0.0:9000")

	cfg, err := Load(viper.New(), LoadOptions{Home: home})
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Votes.Required)
	assert.Equal(t, "ws://raspberrypi.local:8765", cfg.Buttons.URL)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr)
}

func TestLoadHomeFromEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("EVO_HOME", home)

	cfg, err := Load(viper.New(), LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, home, cfg.Home)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "provider", key: "EVO_BACKEND_PROVIDER", val: "dalle"},
		{name: "mirror backend", key: "EVO_MIRROR_BACKEND", val: "redis"},
		{name: "retry attempts", key: "EVO_RETRY_ATTEMPTS", val: "0"},
		{name: "votes", key: "EVO_VOTES_REQUIRED", val: "0"},
		{name: "log level", key: "EVO_LOG_LEVEL", val: "verbose"},
		{name: "server addr", key: "EVO_SERVER_ADDR", val: "nowhere"},
		{name: "base url", key: "EVO_BACKEND_BASE_URL", val: "not a url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)

			_, err := Load(viper.New(), LoadOptions{Home: t.TempDir()})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid config")
		})
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(viper.New(), LoadOptions{
		Home:       t.TempDir(),
		ConfigFile: filepath.Join(t.TempDir(), "missing.toml"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestExpandHome(t *testing.T) {
	userHome, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(userHome, "seed.png"), expandHome("~/seed.png"))
	assert.Equal(t, "~other/seed.png", expandHome("~other/seed.png"))
	assert.Equal(t, "/tmp/seed.png", expandHome(" /tmp/seed.png "))
}
