// Package config loads and validates stepframe configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// DefaultLogLevel is the default logging level.
	DefaultLogLevel = "info"

	// DefaultTake is the default query page size.
	DefaultTake = 1000

	// DefaultTimeout is the default per-request HTTP timeout.
	DefaultTimeout = "30s"

	// DefaultExportFormat is the default table rendering format.
	DefaultExportFormat = "csv"

	// DefaultExportDir is the default directory for local exports.
	DefaultExportDir = "./exports"

	// envPrefix namespaces environment variable overrides, e.g.
	// STEPFRAME_SERVER_API_KEY.
	envPrefix = "STEPFRAME"
)

// Config is the root configuration for stepframe.
type Config struct {
	Global GlobalConfig `yaml:"global" mapstructure:"global"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Query  QueryConfig  `yaml:"query" mapstructure:"query"`
	Export ExportConfig `yaml:"export,omitempty" mapstructure:"export"`
}

// GlobalConfig contains global application settings.
type GlobalConfig struct {
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
}

// ServerConfig describes the test monitor service to query.
type ServerConfig struct {
	URL     string `yaml:"url" mapstructure:"url"`
	APIKey  string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	Timeout string `yaml:"timeout,omitempty" mapstructure:"timeout"`
}

// QueryConfig contains step query settings.
type QueryConfig struct {
	Take int `yaml:"take,omitempty" mapstructure:"take"`
}

// ExportConfig contains table export settings. At most one backend
// (local or S3) may be enabled at a time.
type ExportConfig struct {
	Format string             `yaml:"format,omitempty" mapstructure:"format"`
	Local  *LocalExportConfig `yaml:"local,omitempty" mapstructure:"local"`
	S3     *S3ExportConfig    `yaml:"s3,omitempty" mapstructure:"s3"`
}

// LocalExportConfig writes rendered tables to a local directory.
type LocalExportConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir     string `yaml:"dir,omitempty" mapstructure:"dir"`
}

// S3ExportConfig writes rendered tables to S3-compatible storage.
type S3ExportConfig struct {
	Enabled         bool   `yaml:"enabled" mapstructure:"enabled"`
	EndpointURL     string `yaml:"endpoint_url,omitempty" mapstructure:"endpoint_url"`
	Region          string `yaml:"region,omitempty" mapstructure:"region"`
	Bucket          string `yaml:"bucket" mapstructure:"bucket"`
	AccessKeyID     string `yaml:"access_key_id,omitempty" mapstructure:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty" mapstructure:"secret_access_key"`
	ForcePathStyle  bool   `yaml:"force_path_style" mapstructure:"force_path_style"`
	Prefix          string `yaml:"prefix,omitempty" mapstructure:"prefix"`
}

// validExportFormats is the set of supported table rendering formats.
var validExportFormats = map[string]struct{}{
	"csv":      {},
	"markdown": {},
	"json":     {},
	"yaml":     {},
}

// IsValidExportFormat checks if the given format is supported.
func IsValidExportFormat(format string) bool {
	_, ok := validExportFormats[format]

	return ok
}

// settingKeys lists every configuration key so that environment
// overrides apply even when the key is absent from the config file;
// AutomaticEnv alone only covers keys viper has already seen.
var settingKeys = []string{
	"global.log_level",
	"server.url",
	"server.api_key",
	"server.timeout",
	"query.take",
	"export.format",
	"export.local.enabled",
	"export.local.dir",
	"export.s3.enabled",
	"export.s3.endpoint_url",
	"export.s3.region",
	"export.s3.bucket",
	"export.s3.access_key_id",
	"export.s3.secret_access_key",
	"export.s3.force_path_style",
	"export.s3.prefix",
}

// Load reads a configuration file from the given path, applying
// STEPFRAME_* environment variable overrides and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range settingKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("binding environment key %q: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// applyDefaults sets default values for unspecified configuration options.
func (c *Config) applyDefaults() {
	if c.Global.LogLevel == "" {
		c.Global.LogLevel = DefaultLogLevel
	}

	if c.Server.Timeout == "" {
		c.Server.Timeout = DefaultTimeout
	}

	if c.Query.Take == 0 {
		c.Query.Take = DefaultTake
	}

	if c.Export.Format == "" {
		c.Export.Format = DefaultExportFormat
	}

	if c.Export.Local != nil && c.Export.Local.Dir == "" {
		c.Export.Local.Dir = DefaultExportDir
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.URL == "" {
		return fmt.Errorf("server url is required")
	}

	if _, err := time.ParseDuration(c.Server.Timeout); err != nil {
		return fmt.Errorf("invalid server timeout %q: %w", c.Server.Timeout, err)
	}

	if c.Query.Take < 0 {
		return fmt.Errorf("query take must not be negative")
	}

	if !IsValidExportFormat(c.Export.Format) {
		return fmt.Errorf("unknown export format %q", c.Export.Format)
	}

	localEnabled := c.Export.Local != nil && c.Export.Local.Enabled
	s3Enabled := c.Export.S3 != nil && c.Export.S3.Enabled

	if localEnabled && s3Enabled {
		return fmt.Errorf("only one export backend may be enabled")
	}

	if s3Enabled && c.Export.S3.Bucket == "" {
		return fmt.Errorf("s3 export requires a bucket")
	}

	return nil
}

// RequestTimeout returns the parsed per-request timeout. Validate must
// have accepted the configuration first.
func (c *Config) RequestTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Server.Timeout)

	return d
}
