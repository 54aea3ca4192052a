// Package config handles global configuration loading using viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level static configuration.
// Maps to the `pcaplens:` root key in YAML.
type Config struct {
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Cache    CacheConfig    `mapstructure:"cache"`
}

// AnalysisConfig bounds the engine's pass.
type AnalysisConfig struct {
	MaxPackets      int    `mapstructure:"max_packets"`
	DetectionSample int    `mapstructure:"detection_sample"`
	Profile         string `mapstructure:"profile"` // optional profile YAML path
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string           `mapstructure:"level"`  // debug / info / warn / error
	Format string           `mapstructure:"format"` // json / text
	File   FileOutputConfig `mapstructure:"file"`
}

// FileOutputConfig configures rotated file log output.
type FileOutputConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Path     string         `mapstructure:"path"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	MaxBackups int  `mapstructure:"max_backups"`
	Compress   bool `mapstructure:"compress"`
}

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
	Path    string `mapstructure:"path"`
}

// KafkaConfig configures the optional summary publisher.
type KafkaConfig struct {
	Enabled      bool     `mapstructure:"enabled"`
	Brokers      []string `mapstructure:"brokers"`
	Topic        string   `mapstructure:"topic"`
	Compression  string   `mapstructure:"compression"`   // none|gzip|snappy|lz4|zstd
	BatchTimeout string   `mapstructure:"batch_timeout"` // e.g. "100ms"
	MaxAttempts  int      `mapstructure:"max_attempts"`
}

// CacheConfig configures the analyzer result cache.
type CacheConfig struct {
	TTL             string `mapstructure:"ttl"`
	CleanupInterval string `mapstructure:"cleanup_interval"`
}

// TTLDuration returns the parsed cache TTL. Validation guarantees it parses.
func (c CacheConfig) TTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.TTL)
	return d
}

// CleanupDuration returns the parsed cleanup interval.
func (c CacheConfig) CleanupDuration() time.Duration {
	d, _ := time.ParseDuration(c.CleanupInterval)
	return d
}

// configRoot is the wrapper matching the YAML structure `pcaplens: ...`.
type configRoot struct {
	Pcaplens Config `mapstructure:"pcaplens"`
}

// Load loads configuration from file with environment overrides.
// Env vars map from the key path (e.g. key "pcaplens.log.level" → env
// "PCAPLENS_LOG_LEVEL").
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg := root.Pcaplens

	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Default returns the built-in configuration used when no config file is
// given on the command line.
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{MaxPackets: 100000, DetectionSample: 20},
		Log:      LogConfig{Level: "info", Format: "text"},
		Metrics:  MetricsConfig{Listen: ":9092", Path: "/metrics"},
		Kafka:    KafkaConfig{Compression: "snappy", BatchTimeout: "100ms", MaxAttempts: 3},
		Cache:    CacheConfig{TTL: "10m", CleanupInterval: "5m"},
	}
}

// setDefaults sets default values. All keys use the "pcaplens." prefix to
// match the YAML root wrapper.
func setDefaults(v *viper.Viper) {
	v.SetDefault("pcaplens.analysis.max_packets", 100000)
	v.SetDefault("pcaplens.analysis.detection_sample", 20)

	v.SetDefault("pcaplens.log.level", "info")
	v.SetDefault("pcaplens.log.format", "text")
	v.SetDefault("pcaplens.log.file.enabled", false)
	v.SetDefault("pcaplens.log.file.path", "/var/log/pcaplens/pcaplens.log")
	v.SetDefault("pcaplens.log.file.rotation.max_size_mb", 100)
	v.SetDefault("pcaplens.log.file.rotation.max_age_days", 30)
	v.SetDefault("pcaplens.log.file.rotation.max_backups", 5)
	v.SetDefault("pcaplens.log.file.rotation.compress", true)

	v.SetDefault("pcaplens.metrics.enabled", false)
	v.SetDefault("pcaplens.metrics.listen", ":9092")
	v.SetDefault("pcaplens.metrics.path", "/metrics")

	v.SetDefault("pcaplens.kafka.enabled", false)
	v.SetDefault("pcaplens.kafka.compression", "snappy")
	v.SetDefault("pcaplens.kafka.batch_timeout", "100ms")
	v.SetDefault("pcaplens.kafka.max_attempts", 3)

	v.SetDefault("pcaplens.cache.ttl", "10m")
	v.SetDefault("pcaplens.cache.cleanup_interval", "5m")
}

// ValidateAndApplyDefaults validates configuration. Violations fail fast:
// no partial analysis is meaningful on a bad config.
func (cfg *Config) ValidateAndApplyDefaults() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Log.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug/info/warn/error)", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" && cfg.Log.Format != "text" {
		return fmt.Errorf("invalid log format: %s (must be json/text)", cfg.Log.Format)
	}

	if cfg.Analysis.MaxPackets <= 0 {
		return fmt.Errorf("analysis.max_packets must be > 0, got %d", cfg.Analysis.MaxPackets)
	}
	if cfg.Analysis.DetectionSample <= 0 {
		cfg.Analysis.DetectionSample = 20
	}

	if cfg.Kafka.Enabled {
		if len(cfg.Kafka.Brokers) == 0 {
			return fmt.Errorf("kafka.brokers is required when kafka.enabled=true")
		}
		if cfg.Kafka.Topic == "" {
			return fmt.Errorf("kafka.topic is required when kafka.enabled=true")
		}
	}

	if _, err := time.ParseDuration(cfg.Cache.TTL); err != nil {
		return fmt.Errorf("invalid cache.ttl: %w", err)
	}
	if _, err := time.ParseDuration(cfg.Cache.CleanupInterval); err != nil {
		return fmt.Errorf("invalid cache.cleanup_interval: %w", err)
	}

	return nil
}
