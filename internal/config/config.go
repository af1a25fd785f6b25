package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/opq/internal/fuzzy"
	"github.com/spf13/viper"
)

const (
	configDir  = ".config/opq"
	configName = "config"
	configType = "toml"
	envPrefix  = "OPQ"

	defaultAvatarURL = "https://a.1passwordusercontent.com/default/avatar.png"
)

type Config struct {
	OP          OPConfig          `mapstructure:"op"`
	Account     AccountConfig     `mapstructure:"account"`
	Session     SessionConfig     `mapstructure:"session"`
	Avatar      AvatarConfig      `mapstructure:"avatar"`
	Credentials CredentialsConfig `mapstructure:"credentials"`
	Search      fuzzy.Options     `mapstructure:"search"`
	Log         LogConfig         `mapstructure:"log"`
}

type OPConfig struct {
	// Path to the executable; empty means look it up on PATH.
	Path    string        `mapstructure:"path"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// AccountConfig holds sign-in defaults so flags can be omitted.
type AccountConfig struct {
	Domain string `mapstructure:"domain"`
	Email  string `mapstructure:"email"`
}

type SessionConfig struct {
	Lease time.Duration `mapstructure:"lease"`
	Path  string        `mapstructure:"path"`
}

type AvatarConfig struct {
	DefaultURL string `mapstructure:"default_url"`
}

type CredentialsConfig struct {
	SecretKeyRef      string `mapstructure:"secret_key_ref"`
	MasterPasswordRef string `mapstructure:"master_password_ref"`
	// FileRoot is where secrets go when pass is unavailable.
	FileRoot string `mapstructure:"file_root"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads defaults, then the TOML config file, then OPQ_* environment
// variables. A missing config file is not an error. When file is empty the
// file is looked up in ~/.config/opq.
func Load(cfg *viper.Viper, file string) (Config, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("resolve home directory: %w", err)
	}
	dir := filepath.Join(homeDir, configDir)

	setDefaults(cfg, dir)

	cfg.SetEnvPrefix(envPrefix)
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	if file != "" {
		cfg.SetConfigFile(file)
	} else {
		cfg.SetConfigName(configName)
		cfg.SetConfigType(configType)
		cfg.AddConfigPath(dir)
	}

	if err := cfg.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var out Config
	if err := cfg.Unmarshal(&out); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	out.Session.Path = expandHome(out.Session.Path, homeDir)
	out.Credentials.FileRoot = expandHome(out.Credentials.FileRoot, homeDir)

	if err := out.validate(); err != nil {
		return Config{}, err
	}

	return out, nil
}

func setDefaults(cfg *viper.Viper, dir string) {
	search := fuzzy.DefaultOptions()

	cfg.SetDefault("op.path", "")
	cfg.SetDefault("op.timeout", "0s")
	cfg.SetDefault("account.domain", "")
	cfg.SetDefault("account.email", "")
	cfg.SetDefault("session.lease", "29m")
	cfg.SetDefault("session.path", filepath.Join(dir, "session.toml"))
	cfg.SetDefault("avatar.default_url", defaultAvatarURL)
	cfg.SetDefault("credentials.secret_key_ref", "opq/{domain}/secret_key")
	cfg.SetDefault("credentials.master_password_ref", "opq/{domain}/master_password")
	cfg.SetDefault("credentials.file_root", filepath.Join(dir, "secrets"))
	cfg.SetDefault("search.sort", search.Sort)
	cfg.SetDefault("search.threshold", search.Threshold)
	cfg.SetDefault("search.location", search.Location)
	cfg.SetDefault("search.distance", search.Distance)
	cfg.SetDefault("search.max_pattern_length", search.MaxPatternLength)
	cfg.SetDefault("search.min_match_char_length", search.MinMatchCharLength)
	cfg.SetDefault("log.level", "warn")
}

func (c Config) validate() error {
	if c.OP.Timeout < 0 {
		return fmt.Errorf("op.timeout must not be negative, got %s", c.OP.Timeout)
	}
	if c.Session.Lease <= 0 {
		return fmt.Errorf("session.lease must be positive, got %s", c.Session.Lease)
	}
	if c.Search.Threshold < 0 || c.Search.Threshold > 1 {
		return fmt.Errorf("search.threshold must be within [0, 1], got %g", c.Search.Threshold)
	}
	if c.Search.Location < 0 {
		return fmt.Errorf("search.location must not be negative, got %d", c.Search.Location)
	}
	if c.Search.Distance < 0 {
		return fmt.Errorf("search.distance must not be negative, got %d", c.Search.Distance)
	}
	if c.Search.MaxPatternLength <= 0 {
		return fmt.Errorf("search.max_pattern_length must be positive, got %d", c.Search.MaxPatternLength)
	}
	return nil
}

func expandHome(path, homeDir string) string {
	if path == "~" {
		return homeDir
	}
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		return filepath.Join(homeDir, rest)
	}
	return path
}
