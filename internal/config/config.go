package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete hostfacts configuration
type Config struct {
	Collector CollectorConfig `mapstructure:"collector"`
	Paths     PathsConfig     `mapstructure:"paths"`
	Drives    DrivesConfig    `mapstructure:"drives"`
	Output    OutputConfig    `mapstructure:"output"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// CollectorConfig selects the facts backend
type CollectorConfig struct {
	Source      string        `mapstructure:"source"`       // "native", "gopsutil" or "exporter"
	ExporterURL string        `mapstructure:"exporter_url"` // Required for the exporter source
	Timeout     time.Duration `mapstructure:"timeout"`      // Overall collection deadline
}

// PathsConfig points the Linux backend at alternate proc and etc roots,
// e.g. a host filesystem mounted into a container
type PathsConfig struct {
	Proc string `mapstructure:"proc"`
	Etc  string `mapstructure:"etc"`
}

// DrivesConfig controls which mounted filesystems are reported
type DrivesConfig struct {
	AllowedFilesystems []string `mapstructure:"allowed_filesystems"`
}

// OutputConfig selects the report format
type OutputConfig struct {
	Format string `mapstructure:"format"` // "text" or "prometheus"
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"` // Empty logs to stderr only
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// Load reads configuration from path, the platform default path when path
// is empty, and HOSTFACTS_* environment variables. A missing default file is
// not an error; a missing explicit file is.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("HOSTFACTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		path = GetDefaultConfigPath()
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("collector.source", "native")
	v.SetDefault("collector.timeout", 30*time.Second)

	v.SetDefault("output.format", "text")

	// Every key needs a default so HOSTFACTS_* overrides are seen by Unmarshal
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 3)

	UpdateConfigDefaults(v)
}

// validate checks the configuration for errors
func validate(cfg *Config) error {
	// Validate collector source
	cfg.Collector.Source = strings.ToLower(cfg.Collector.Source)
	switch cfg.Collector.Source {
	case "native", "gopsutil":
	case "exporter":
		if cfg.Collector.ExporterURL == "" {
			return fmt.Errorf("collector.exporter_url is required when collector.source is exporter")
		}
		u, err := url.Parse(cfg.Collector.ExporterURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("collector.exporter_url must be an http(s) URL: %s", cfg.Collector.ExporterURL)
		}
	default:
		return fmt.Errorf("collector.source must be one of: native, gopsutil, exporter (got %q)", cfg.Collector.Source)
	}

	if cfg.Collector.Timeout < 1*time.Second {
		return fmt.Errorf("collector.timeout must be at least 1 second")
	}
	if cfg.Collector.Timeout > 5*time.Minute {
		return fmt.Errorf("collector.timeout must not exceed 5 minutes")
	}

	// Validate filesystem allow-list
	if len(cfg.Drives.AllowedFilesystems) == 0 {
		return fmt.Errorf("drives.allowed_filesystems must not be empty")
	}
	for _, fstype := range cfg.Drives.AllowedFilesystems {
		if fstype == "" || strings.ContainsAny(fstype, " \t,") {
			return fmt.Errorf("drives.allowed_filesystems contains an invalid entry: %q", fstype)
		}
	}

	// Validate output format
	cfg.Output.Format = strings.ToLower(cfg.Output.Format)
	if cfg.Output.Format != "text" && cfg.Output.Format != "prometheus" {
		return fmt.Errorf("output.format must be text or prometheus (got %q)", cfg.Output.Format)
	}

	// Validate logging
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error (got %q)", cfg.Logging.Level)
	}
	if cfg.Logging.File != "" {
		if cfg.Logging.MaxSizeMB < 1 {
			return fmt.Errorf("logging.max_size_mb must be at least 1")
		}
		if cfg.Logging.MaxBackups < 0 {
			return fmt.Errorf("logging.max_backups must not be negative")
		}
	}

	return nil
}
