package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete bootstrap configuration: everything the
// process needs before the mutable runtime configuration takes over.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Source   SourceConfig   `mapstructure:"source"`
	Runtime  RuntimeConfig  `mapstructure:"runtime"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds the listen addresses for both subscriber pools.
type ServerConfig struct {
	Host          string `mapstructure:"host"`
	AlertPort     int    `mapstructure:"alert_port"`
	TelemetryPort int    `mapstructure:"telemetry_port"`
	AlertFormat   string `mapstructure:"alert_format"` // "message" or "chat"
}

// SourceConfig selects and configures the tick source.
type SourceConfig struct {
	Driver    string        `mapstructure:"driver"` // "mt5" or "sim"
	BridgeURL string        `mapstructure:"bridge_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	SimSeed   int64         `mapstructure:"sim_seed"`
}

// RuntimeConfig holds the location of the persisted runtime configuration.
type RuntimeConfig struct {
	FilePath string `mapstructure:"file_path"`
}

// TelegramConfig holds the optional large-move notification mirror.
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	setDefaults(v)

	v.SetEnvPrefix("PIPWATCH")
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

// setDefaults configures default values for all configuration options.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.alert_port", 8000)
	v.SetDefault("server.telemetry_port", 8001)
	v.SetDefault("server.alert_format", "message")

	v.SetDefault("source.driver", "mt5")
	v.SetDefault("source.bridge_url", "http://127.0.0.1:8787")
	v.SetDefault("source.timeout", "5s")
	v.SetDefault("source.sim_seed", 0)

	v.SetDefault("runtime.file_path", "./data/pipwatch.json")

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid.
func (c *Config) Validate() error {
	if c.Server.AlertPort < 1 || c.Server.AlertPort > 65535 {
		return fmt.Errorf("server.alert_port must be between 1 and 65535")
	}
	if c.Server.TelemetryPort < 1 || c.Server.TelemetryPort > 65535 {
		return fmt.Errorf("server.telemetry_port must be between 1 and 65535")
	}
	if c.Server.AlertPort == c.Server.TelemetryPort {
		return fmt.Errorf("server.alert_port and server.telemetry_port must differ")
	}
	if c.Server.AlertFormat != "message" && c.Server.AlertFormat != "chat" {
		return fmt.Errorf("server.alert_format must be one of: message, chat")
	}

	switch c.Source.Driver {
	case "mt5":
		if c.Source.BridgeURL == "" {
			return fmt.Errorf("source.bridge_url is required when source.driver is mt5")
		}
	case "sim":
	default:
		return fmt.Errorf("source.driver must be one of: mt5, sim")
	}
	if c.Source.Timeout <= 0 {
		return fmt.Errorf("source.timeout must be positive")
	}

	if c.Runtime.FilePath == "" {
		return fmt.Errorf("runtime.file_path is required")
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

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
