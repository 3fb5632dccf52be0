package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the entire application configuration
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Library  LibraryConfig  `mapstructure:"library"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// APIConfig contains remote catalog settings
type APIConfig struct {
	BaseURL         string  `mapstructure:"base_url"`
	Token           string  `mapstructure:"token"`
	Timeout         string  `mapstructure:"timeout"`
	DownloadTimeout string  `mapstructure:"download_timeout"`
	RateLimit       float64 `mapstructure:"rate_limit"`
}

// LibraryConfig contains local library layout settings
type LibraryConfig struct {
	Root              string `mapstructure:"root"`
	OmitPublisher     bool   `mapstructure:"omit_publisher"`
	CompatibilityMode bool   `mapstructure:"compatibility_mode"`
}

// SyncConfig contains synchronization settings
type SyncConfig struct {
	Workers           int  `mapstructure:"workers"`
	UseChecksums      bool `mapstructure:"use_checksums"`
	ValidateDownloads bool `mapstructure:"validate_downloads"`
	DryRun            bool `mapstructure:"dry_run"`
}

// DatabaseConfig contains metadata cache settings
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// Load loads configuration from the specified file path. The API token may
// also come from the LIBMIRROR_API_TOKEN environment variable, which takes
// precedence over the file.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// Set defaults
	v.SetDefault("api.base_url", "")
	v.SetDefault("api.token", "")
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("api.download_timeout", "5m")
	v.SetDefault("api.rate_limit", 4.0)
	v.SetDefault("library.root", "")
	v.SetDefault("library.omit_publisher", false)
	v.SetDefault("library.compatibility_mode", false)
	v.SetDefault("sync.workers", 5)
	v.SetDefault("sync.use_checksums", false)
	v.SetDefault("sync.validate_downloads", false)
	v.SetDefault("sync.dry_run", false)
	v.SetDefault("database.path", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 20)
	v.SetDefault("logging.max_backups", 3)

	v.BindEnv("api.token", "LIBMIRROR_API_TOKEN")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.API.Token == "" {
		return fmt.Errorf("api.token is required (config file or LIBMIRROR_API_TOKEN)")
	}
	if _, err := time.ParseDuration(c.API.Timeout); err != nil {
		return fmt.Errorf("invalid api.timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.API.DownloadTimeout); err != nil {
		return fmt.Errorf("invalid api.download_timeout: %w", err)
	}
	if c.API.RateLimit <= 0 {
		return fmt.Errorf("api.rate_limit must be positive")
	}

	if c.Library.Root == "" {
		return fmt.Errorf("library.root is required")
	}

	if c.Sync.Workers < 1 {
		return fmt.Errorf("sync.workers must be positive")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level: %s", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid logging.format: %s", c.Logging.Format)
	}

	return nil
}

// GetTimeout returns the API request timeout as time.Duration
func (c *APIConfig) GetTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	if d == 0 {
		return 30 * time.Second
	}
	return d
}

// GetDownloadTimeout returns the content download timeout as time.Duration
func (c *APIConfig) GetDownloadTimeout() time.Duration {
	d, _ := time.ParseDuration(c.DownloadTimeout)
	if d == 0 {
		return 5 * time.Minute
	}
	return d
}

// DatabasePath returns the configured cache database path, defaulting to a
// file inside the library root.
func (c *Config) DatabasePath() string {
	if c.Database.Path != "" {
		return c.Database.Path
	}
	return filepath.Join(c.Library.Root, "libmirror.db")
}
