package config

// Package config handles configuration loading for ratiolens.
// It supports YAML config files with environment variable overrides.

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "RATIOLENS"

// Config represents the complete application configuration.
type Config struct {
	Data     DataConfig     `mapstructure:"data"     yaml:"data"`
	Verify   VerifyConfig   `mapstructure:"verify"   yaml:"verify"`
	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis"`
	Export   ExportConfig   `mapstructure:"export"   yaml:"export"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
}

// DataConfig selects where statements come from and how labels are mapped.
type DataConfig struct {
	Source          string   `mapstructure:"source"           yaml:"source"`   // "yfinance", "screener", "dir"
	Fallback        []string `mapstructure:"fallback"         yaml:"fallback"` // tried in order after Source
	DataDir         string   `mapstructure:"data_dir"         yaml:"data_dir"`
	MappingFile     string   `mapstructure:"mapping_file"     yaml:"mapping_file"`
	SectorMapFile   string   `mapstructure:"sector_map_file"  yaml:"sector_map_file"`
	Frequency       string   `mapstructure:"frequency"        yaml:"frequency"` // "annual" or "quarterly"
	TimeoutSec      int      `mapstructure:"timeout_sec"      yaml:"timeout_sec"`
	RequestsPerSec  float64  `mapstructure:"requests_per_sec" yaml:"requests_per_sec"`
	ScreenerSession string   `mapstructure:"screener_session" yaml:"screener_session"`
	YahooSuffix     string   `mapstructure:"yahoo_suffix"     yaml:"yahoo_suffix"` // e.g. ".NS" for NSE listings
}

// VerifyConfig holds consistency check tolerances.
type VerifyConfig struct {
	Tolerance            float64            `mapstructure:"tolerance"               yaml:"tolerance"`               // relative, 0.01 = 1%
	CashFlowAbsTolerance float64            `mapstructure:"cash_flow_abs_tolerance" yaml:"cash_flow_abs_tolerance"` // currency units
	Overrides            map[string]float64 `mapstructure:"overrides"               yaml:"overrides"`               // check name -> tolerance
}

// AnalysisConfig holds analysis engine settings.
type AnalysisConfig struct {
	Years             int `mapstructure:"years"              yaml:"years"`     // periods kept per series, 0 = all
	CacheTTL          int `mapstructure:"cache_ttl"          yaml:"cache_ttl"` // seconds
	ConcurrentFetches int `mapstructure:"concurrent_fetches" yaml:"concurrent_fetches"`
}

// ExportConfig holds report output settings.
type ExportConfig struct {
	Format    string `mapstructure:"format"     yaml:"format"` // "table", "csv", "xlsx", "pdf", "json", "html"
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
	Chart     bool   `mapstructure:"chart"      yaml:"chart"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.ratiolens/config.yaml (home directory)
//  3. /etc/ratiolens/config.yaml (system)
//
// Environment variables override config file values.
// Format: RATIOLENS_<SECTION>_<KEY>, e.g., RATIOLENS_DATA_SOURCE
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".ratiolens"))
	v.AddConfigPath("/etc/ratiolens")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return unmarshal(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	overrideFromEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Data defaults
	v.SetDefault("data.source", "yfinance")
	v.SetDefault("data.fallback", []string{})
	v.SetDefault("data.data_dir", "./data")
	v.SetDefault("data.mapping_file", "")
	v.SetDefault("data.sector_map_file", "")
	v.SetDefault("data.frequency", "annual")
	v.SetDefault("data.timeout_sec", 15)
	v.SetDefault("data.requests_per_sec", 2.0)
	v.SetDefault("data.yahoo_suffix", "")

	// Verify defaults
	v.SetDefault("verify.tolerance", 0.01)
	v.SetDefault("verify.cash_flow_abs_tolerance", 1000.0)

	// Analysis defaults
	v.SetDefault("analysis.years", 5)
	v.SetDefault("analysis.cache_ttl", 300) // 5 minutes
	v.SetDefault("analysis.concurrent_fetches", 5)

	// Export defaults
	v.SetDefault("export.format", "table")
	v.SetDefault("export.output_dir", ".")
	v.SetDefault("export.chart", false)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv(ScreenerSessionEnv); key != "" {
		cfg.Data.ScreenerSession = key
	}
}

// Validate rejects settings no command could run with.
func (c *Config) Validate() error {
	switch c.Data.Source {
	case "yfinance", "screener", "dir":
	default:
		return fmt.Errorf("config: unknown data.source %q", c.Data.Source)
	}
	for _, s := range c.Data.Fallback {
		switch s {
		case "yfinance", "screener", "dir":
		default:
			return fmt.Errorf("config: unknown data.fallback source %q", s)
		}
	}
	switch c.Data.Frequency {
	case "annual", "quarterly":
	default:
		return fmt.Errorf("config: data.frequency must be annual or quarterly, got %q", c.Data.Frequency)
	}
	if c.Verify.Tolerance < 0 {
		return fmt.Errorf("config: verify.tolerance must not be negative")
	}
	for name, tol := range c.Verify.Overrides {
		if tol < 0 {
			return fmt.Errorf("config: verify.overrides.%s must not be negative", name)
		}
	}
	if c.Analysis.Years < 0 {
		return fmt.Errorf("config: analysis.years must not be negative")
	}
	if c.Analysis.ConcurrentFetches < 1 {
		return fmt.Errorf("config: analysis.concurrent_fetches must be at least 1")
	}
	return nil
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
