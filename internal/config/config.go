// Package config loads liftoff settings from defaults, a YAML file,
// LIFTOFF_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/artpar/liftoff/internal/core"
)

// DefaultBaseURL is the public launch data service.
const DefaultBaseURL = "https://api.spacexdata.com/v3"

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "LIFTOFF"

// Common errors.
var (
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config holds every liftoff setting.
type Config struct {
	BaseURL               string        `mapstructure:"base_url" yaml:"base_url"`
	RelayURL              string        `mapstructure:"relay_url" yaml:"relay_url"`
	ListenAddr            string        `mapstructure:"listen_addr" yaml:"listen_addr"`
	DataDir               string        `mapstructure:"data_dir" yaml:"data_dir"`
	PageSize              int           `mapstructure:"page_size" yaml:"page_size"`
	SearchDelay           time.Duration `mapstructure:"search_delay" yaml:"-"`
	RequestTimeout        time.Duration `mapstructure:"request_timeout" yaml:"-"`
	RateLimit             float64       `mapstructure:"rate_limit" yaml:"rate_limit"`
	EmptyFirstPageHasMore bool          `mapstructure:"empty_first_page_has_more" yaml:"empty_first_page_has_more"`
	MaxConns              int           `mapstructure:"max_conns" yaml:"max_conns"`
	ExternalPoll          time.Duration `mapstructure:"external_poll" yaml:"-"`
	LogLevel              string        `mapstructure:"log_level" yaml:"log_level"`

	// ConfigFile is the file the settings were read from, if any.
	ConfigFile string `mapstructure:"-" yaml:"-"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		BaseURL:               DefaultBaseURL,
		ListenAddr:            ":8088",
		DataDir:               "~/.liftoff",
		PageSize:              core.DefaultPageSize,
		SearchDelay:           500 * time.Millisecond,
		RequestTimeout:        30 * time.Second,
		EmptyFirstPageHasMore: true,
		ExternalPoll:          2 * time.Second,
		LogLevel:              "info",
	}
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"base-url":  "base_url",
	"relay-url": "relay_url",
	"listen":    "listen_addr",
	"data-dir":  "data_dir",
	"page-size": "page_size",
	"log-level": "log_level",
	"max-conns": "max_conns",
}

// Load resolves the configuration. path names an explicit config file;
// when empty, config.yaml in the data directory is used if present.
// flags may be nil; only flags the user actually set override.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := newViper()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(ExpandHome(v.GetString("data_dir")))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	cfg.ConfigFile = v.ConfigFileUsed()
	cfg.DataDir = ExpandHome(cfg.DataDir)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	d := Defaults()
	v.SetDefault("base_url", d.BaseURL)
	v.SetDefault("relay_url", d.RelayURL)
	v.SetDefault("listen_addr", d.ListenAddr)
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("page_size", d.PageSize)
	v.SetDefault("search_delay", d.SearchDelay.String())
	v.SetDefault("request_timeout", d.RequestTimeout.String())
	v.SetDefault("rate_limit", d.RateLimit)
	v.SetDefault("empty_first_page_has_more", d.EmptyFirstPageHasMore)
	v.SetDefault("max_conns", d.MaxConns)
	v.SetDefault("external_poll", d.ExternalPoll.String())
	v.SetDefault("log_level", d.LogLevel)
	return v
}

// Validate checks the configuration for values that cannot work.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base_url is required", ErrInvalidConfig)
	}
	if err := validURL(c.BaseURL); err != nil {
		return fmt.Errorf("%w: base_url: %v", ErrInvalidConfig, err)
	}
	if c.RelayURL != "" {
		if err := validURL(c.RelayURL); err != nil {
			return fmt.Errorf("%w: relay_url: %v", ErrInvalidConfig, err)
		}
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("%w: page_size must be positive, got %d", ErrInvalidConfig, c.PageSize)
	}
	if c.SearchDelay < 0 {
		return fmt.Errorf("%w: search_delay must not be negative", ErrInvalidConfig)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("%w: rate_limit must not be negative", ErrInvalidConfig)
	}
	if c.MaxConns < 0 {
		return fmt.Errorf("%w: max_conns must not be negative", ErrInvalidConfig)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	return nil
}

func validURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

// HasMorePolicy returns the configured empty-page policy.
func (c Config) HasMorePolicy() core.HasMorePolicy {
	if c.EmptyFirstPageHasMore {
		return core.PolicyEmptyFirstPageHasMore
	}
	return core.PolicyEmptyPageEnds
}

// DatabasePath returns the SQLite database location.
func (c Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "liftoff.db")
}

// YAML renders the configuration as it would appear in config.yaml.
func (c Config) YAML() ([]byte, error) {
	type rendered struct {
		Config         `yaml:",inline"`
		SearchDelay    string `yaml:"search_delay"`
		RequestTimeout string `yaml:"request_timeout"`
		ExternalPoll   string `yaml:"external_poll"`
	}
	return yaml.Marshal(rendered{
		Config:         c,
		SearchDelay:    c.SearchDelay.String(),
		RequestTimeout: c.RequestTimeout.String(),
		ExternalPoll:   c.ExternalPoll.String(),
	})
}

// WriteDefault writes the default configuration to config.yaml in dir
// unless the file already exists. It returns the file path.
func WriteDefault(dir string) (string, error) {
	dir = ExpandHome(dir)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("creating config dir %s: %w", dir, err)
	}

	v := newViper()
	v.AddConfigPath(dir)
	if err := v.SafeWriteConfig(); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
