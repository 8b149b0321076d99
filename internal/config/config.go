// Package config loads evo settings from ~/.evo/config.toml and EVO_
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	configName = "config"
	configType = "toml"
	envPrefix  = "EVO"
	homeDirEnv = "EVO_HOME"
	appDirName = ".evo"

	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	MirrorTOML   = "toml"
	MirrorBadger = "badger"
	MirrorNone   = "none"
)

type Config struct {
	Home         string             `mapstructure:"-"`
	ConfigFile   string             `mapstructure:"-"`
	Backend      BackendConfig      `mapstructure:"backend"`
	Instructions InstructionsConfig `mapstructure:"instructions"`
	Seed         SeedConfig         `mapstructure:"seed"`
	Mirror       MirrorConfig       `mapstructure:"mirror"`
	Buttons      ButtonsConfig      `mapstructure:"buttons"`
	Server       ServerConfig       `mapstructure:"server"`
	Archive      ArchiveConfig      `mapstructure:"archive"`
	Log          LogConfig          `mapstructure:"log"`
	Retry        RetryConfig        `mapstructure:"retry"`
	Votes        VotesConfig        `mapstructure:"votes"`
	Session      SessionConfig      `mapstructure:"session"`
}

type BackendConfig struct {
	Provider string        `mapstructure:"provider" validate:"oneof=gemini openai"`
	Model    string        `mapstructure:"model"`
	BaseURL  string        `mapstructure:"base_url" validate:"omitempty,url"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

type InstructionsConfig struct {
	Path string `mapstructure:"path"`
}

type SeedConfig struct {
	Path string `mapstructure:"path"`
}

type MirrorConfig struct {
	Backend    string `mapstructure:"backend" validate:"oneof=toml badger none"`
	Path       string `mapstructure:"path"`
	QuotaBytes int64  `mapstructure:"quota_bytes" validate:"gt=0"`
}

type ButtonsConfig struct {
	URL      string        `mapstructure:"url" validate:"omitempty,url"`
	Debounce time.Duration `mapstructure:"debounce" validate:"gte=0"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" validate:"required,hostname_port"`
}

type ArchiveConfig struct {
	Dir       string `mapstructure:"dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	GCSPrefix string `mapstructure:"gcs_prefix"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

type RetryConfig struct {
	Attempts int           `mapstructure:"attempts" validate:"min=1,max=10"`
	Delay    time.Duration `mapstructure:"delay" validate:"gte=0"`
}

type VotesConfig struct {
	Required int `mapstructure:"required" validate:"min=1"`
}

type SessionConfig struct {
	// ManualAdvance waits for an explicit start after each selection
	// instead of chaining into the next round.
	ManualAdvance bool `mapstructure:"manual_advance"`
}

// SecretsDir is where the file secret store keeps credentials.
func (c Config) SecretsDir() string {
	return filepath.Join(c.Home, "secrets")
}

var validate = validator.New()

type LoadOptions struct {
	// ConfigFile overrides the config file lookup.
	ConfigFile string
	// Home overrides the evo directory. Defaults to $EVO_HOME, then ~/.evo.
	Home string
}

func Load(v *viper.Viper, opts LoadOptions) (Config, error) {
	if v == nil {
		v = viper.New()
	}

	home, err := resolveHome(opts.Home)
	if err != nil {
		return Config{}, err
	}

	setDefaults(v, home)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		v.AddConfigPath(home)
	}

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &configNotFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Home = home
	cfg.ConfigFile = v.ConfigFileUsed()
	cfg.normalize()

	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, home string) {
	v.SetDefault("backend.provider", ProviderGemini)
	v.SetDefault("backend.model", "")
	v.SetDefault("backend.base_url", "")
	v.SetDefault("backend.timeout", 2*time.Minute)
	v.SetDefault("instructions.path", "")
	v.SetDefault("seed.path", "")
	v.SetDefault("mirror.backend", MirrorTOML)
	v.SetDefault("mirror.path", "")
	v.SetDefault("mirror.quota_bytes", 5<<20)
	v.SetDefault("buttons.url", "")
	v.SetDefault("buttons.debounce", 200*time.Millisecond)
	v.SetDefault("server.addr", "127.0.0.1:8787")
	v.SetDefault("archive.dir", "")
	v.SetDefault("archive.gcs_bucket", "")
	v.SetDefault("archive.gcs_prefix", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("retry.attempts", 3)
	v.SetDefault("retry.delay", 5*time.Second)
	v.SetDefault("votes.required", 3)
	v.SetDefault("session.manual_advance", false)
}

func (c *Config) normalize() {
	c.Backend.Provider = strings.ToLower(strings.TrimSpace(c.Backend.Provider))
	c.Mirror.Backend = strings.ToLower(strings.TrimSpace(c.Mirror.Backend))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))

	if c.Mirror.Path == "" {
		switch c.Mirror.Backend {
		case MirrorBadger:
			c.Mirror.Path = filepath.Join(c.Home, "state.badger")
		default:
			c.Mirror.Path = filepath.Join(c.Home, "state.toml")
		}
	}

	c.Instructions.Path = expandHome(c.Instructions.Path)
	c.Seed.Path = expandHome(c.Seed.Path)
	c.Mirror.Path = expandHome(c.Mirror.Path)
	c.Archive.Dir = expandHome(c.Archive.Dir)
}

func resolveHome(override string) (string, error) {
	if override != "" {
		return filepath.Clean(expandHome(override)), nil
	}
	if fromEnv := os.Getenv(homeDirEnv); fromEnv != "" {
		return filepath.Clean(expandHome(fromEnv)), nil
	}

	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(userHome, appDirName), nil
}

func expandHome(path string) string {
	path = strings.TrimSpace(path)
	rest, ok := strings.CutPrefix(path, "~")
	if !ok || (rest != "" && !strings.HasPrefix(rest, "/")) {
		return path
	}

	userHome, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(userHome, rest)
}
