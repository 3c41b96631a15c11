package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultConfigFile = "comexdown.yaml"
	envPrefix         = "COMEXDOWN"

	// Browser-like identification; the server rejects unknown clients.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/142.0.0.0 Safari/537.36"
)

type Config struct {
	OutputDir string         `mapstructure:"output_dir" yaml:"output_dir"`
	Download  DownloadConfig `mapstructure:"download" yaml:"download"`
	Log       LogConfig      `mapstructure:"log" yaml:"log"`
	Store     StoreConfig    `mapstructure:"store" yaml:"store"`
	Lock      LockConfig     `mapstructure:"lock" yaml:"lock"`
	Server    ServerConfig   `mapstructure:"server" yaml:"server"`
}

type DownloadConfig struct {
	BaseURL           string        `mapstructure:"base_url" yaml:"base_url"`
	MaxAttempts       int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	ChunkSize         int           `mapstructure:"chunk_size" yaml:"chunk_size"`
	VerifyTLS         bool          `mapstructure:"verify_tls" yaml:"verify_tls"`
	Backoff           time.Duration `mapstructure:"backoff" yaml:"backoff"`
	ProbeTimeout      time.Duration `mapstructure:"probe_timeout" yaml:"probe_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	Workers           int           `mapstructure:"workers" yaml:"workers"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	UserAgent         string        `mapstructure:"user_agent" yaml:"user_agent"`
}

type LogConfig struct {
	Path    string `mapstructure:"path" yaml:"path"`
	Level   string `mapstructure:"level" yaml:"level"`
	Console bool   `mapstructure:"console" yaml:"console"`
}

type StoreConfig struct {
	// Driver is one of "sqlite", "postgres" or "none"
	Driver      string `mapstructure:"driver" yaml:"driver"`
	SQLitePath  string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
	PostgresDSN string `mapstructure:"postgres_dsn" yaml:"postgres_dsn"`
}

type LockConfig struct {
	RedisURL string        `mapstructure:"redis_url" yaml:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

type ServerConfig struct {
	Listen string `mapstructure:"listen" yaml:"listen"`
}

// Load reads path (or comexdown.yaml when present and path is empty), then applies
// COMEXDOWN_* environment overrides. A missing default file is not an error.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	useFile := true
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if explicit {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		useFile = false
	}

	v := viper.New()

	// Set Defaults
	v.SetDefault("output_dir", filepath.Join(".", "data", "secex-comex"))
	v.SetDefault("download.base_url", "https://balanca.economia.gov.br/balanca/bd")
	v.SetDefault("download.max_attempts", 3)
	v.SetDefault("download.chunk_size", 8192)
	v.SetDefault("download.verify_tls", false) // the server family presents invalid certificates
	v.SetDefault("download.backoff", 2*time.Second)
	v.SetDefault("download.probe_timeout", 10*time.Second)
	v.SetDefault("download.idle_timeout", 30*time.Second)
	v.SetDefault("download.workers", 1)
	v.SetDefault("download.requests_per_second", 0.0)
	v.SetDefault("download.user_agent", DefaultUserAgent)
	v.SetDefault("log.path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", true)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "")
	v.SetDefault("store.postgres_dsn", "")
	v.SetDefault("lock.redis_url", "")
	v.SetDefault("lock.ttl", 10*time.Minute)
	v.SetDefault("server.listen", ":8080")

	if useFile {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// Support Environment Variables
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.OutputDir == "" {
		c.OutputDir = filepath.Join(".", "data", "secex-comex")
	}

	if c.Download.BaseURL == "" {
		return errors.New("download.base_url is required")
	}

	if c.Download.MaxAttempts <= 0 {
		c.Download.MaxAttempts = 1
	}

	if c.Download.ChunkSize <= 0 {
		c.Download.ChunkSize = 8192
	}

	if c.Download.Workers <= 0 {
		// Sequential is the safe default for this server
		c.Download.Workers = 1
	}

	if c.Download.Backoff < 0 {
		c.Download.Backoff = 0
	}

	if c.Download.ProbeTimeout <= 0 {
		c.Download.ProbeTimeout = 10 * time.Second
	}

	if c.Download.IdleTimeout <= 0 {
		c.Download.IdleTimeout = 30 * time.Second
	}

	if c.Download.RequestsPerSecond < 0 {
		return fmt.Errorf("download.requests_per_second must not be negative, got %v", c.Download.RequestsPerSecond)
	}

	if c.Download.UserAgent == "" {
		c.Download.UserAgent = DefaultUserAgent
	}

	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	switch c.Store.Driver {
	case "", "none":
		c.Store.Driver = "none"
	case "sqlite":
	case "postgres":
		if c.Store.PostgresDSN == "" {
			return errors.New("store.postgres_dsn is required when store.driver is postgres")
		}
	default:
		return fmt.Errorf("store.driver %q is not supported (sqlite, postgres, none)", c.Store.Driver)
	}

	if c.Lock.TTL <= 0 {
		c.Lock.TTL = 10 * time.Minute
	}

	return nil
}

// HistoryPath is the SQLite file for the transfer history. It lives under the
// output root unless configured explicitly.
func (c *Config) HistoryPath() string {
	if c.Store.SQLitePath != "" {
		return c.Store.SQLitePath
	}
	return filepath.Join(c.OutputDir, ".comexdown", "history.db")
}
