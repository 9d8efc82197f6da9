package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Detector   DetectorConfig   `mapstructure:"detector"`
	Snapshot   SnapshotConfig   `mapstructure:"snapshot"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Storefront StorefrontConfig `mapstructure:"storefront"`
	Judge      JudgeConfig      `mapstructure:"judge"`
	Telegram   TelegramConfig   `mapstructure:"telegram"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// DetectorConfig holds the comparison thresholds
type DetectorConfig struct {
	PriceChangeThreshold           float64 `mapstructure:"price_change_threshold"`
	DescriptionSimilarityThreshold float64 `mapstructure:"description_similarity_threshold"`
	UseSemanticJudge               bool    `mapstructure:"use_semantic_judge"`
	DeceptionThreshold             float64 `mapstructure:"deception_threshold"`
}

// SnapshotConfig holds snapshot store configuration
type SnapshotConfig struct {
	MaxAge            time.Duration `mapstructure:"max_age"`
	PreserveFirstView bool          `mapstructure:"preserve_first_view"`
	DBPath            string        `mapstructure:"db_path"` // empty = in-memory map store
}

// SchedulerConfig holds periodic verification configuration
type SchedulerConfig struct {
	AutoVerifyInterval time.Duration `mapstructure:"auto_verify_interval"`
	AutoVerifyEnabled  bool          `mapstructure:"auto_verify_enabled"`
}

// StorefrontConfig holds shop API configuration
type StorefrontConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	ListenAddr     string        `mapstructure:"listen_addr"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// JudgeConfig holds semantic judge endpoint configuration
type JudgeConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// TelegramConfig holds Telegram notification configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)

	setDefaults(v)

	// Enable environment variable override
	v.SetEnvPrefix("BAITWATCH")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Detector defaults
	v.SetDefault("detector.price_change_threshold", 0.05)
	v.SetDefault("detector.description_similarity_threshold", 0.8)
	v.SetDefault("detector.use_semantic_judge", true)
	v.SetDefault("detector.deception_threshold", 5.0)

	// Snapshot defaults
	v.SetDefault("snapshot.max_age", "24h")
	v.SetDefault("snapshot.preserve_first_view", false)
	v.SetDefault("snapshot.db_path", "")

	// Scheduler defaults
	v.SetDefault("scheduler.auto_verify_interval", "5m")
	v.SetDefault("scheduler.auto_verify_enabled", true)

	// Storefront defaults
	v.SetDefault("storefront.base_url", "http://localhost:8080")
	v.SetDefault("storefront.listen_addr", ":8080")
	v.SetDefault("storefront.timeout", "10s")
	v.SetDefault("storefront.max_retries", 3)
	v.SetDefault("storefront.retry_delay_base", "1s")

	// Judge defaults
	v.SetDefault("judge.endpoint", "")
	v.SetDefault("judge.timeout", "30s")

	// Telegram defaults
	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Detector config
	if c.Detector.PriceChangeThreshold < 0.0 || c.Detector.PriceChangeThreshold > 1.0 {
		return fmt.Errorf("detector.price_change_threshold must be between 0.0 and 1.0")
	}
	if c.Detector.DescriptionSimilarityThreshold < 0.0 || c.Detector.DescriptionSimilarityThreshold > 1.0 {
		return fmt.Errorf("detector.description_similarity_threshold must be between 0.0 and 1.0")
	}
	if c.Detector.DeceptionThreshold < 0.0 || c.Detector.DeceptionThreshold > 10.0 {
		return fmt.Errorf("detector.deception_threshold must be between 0.0 and 10.0")
	}

	// Validate Snapshot config
	if c.Snapshot.MaxAge < 1*time.Minute {
		return fmt.Errorf("snapshot.max_age must be at least 1 minute")
	}

	// Validate Scheduler config
	if c.Scheduler.AutoVerifyEnabled && c.Scheduler.AutoVerifyInterval < 1*time.Second {
		return fmt.Errorf("scheduler.auto_verify_interval must be at least 1 second")
	}

	// Validate Storefront config
	if c.Storefront.BaseURL == "" {
		return fmt.Errorf("storefront.base_url is required")
	}
	if c.Storefront.Timeout < 1*time.Second {
		return fmt.Errorf("storefront.timeout must be at least 1 second")
	}
	if c.Storefront.MaxRetries < 1 || c.Storefront.MaxRetries > 10 {
		return fmt.Errorf("storefront.max_retries must be between 1 and 10")
	}

	// Validate Judge config
	if c.Detector.UseSemanticJudge && c.Judge.Endpoint != "" && c.Judge.Timeout < 1*time.Second {
		return fmt.Errorf("judge.timeout must be at least 1 second")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
