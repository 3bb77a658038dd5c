package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadAndValidate(t *testing.T) {
	// Create temp config file
	content := `
server:
  host: "127.0.0.1"
  alert_port: 9000
  telemetry_port: 9001
  alert_format: chat

source:
  driver: sim
  sim_seed: 42

runtime:
  file_path: "./data/test.json"

telegram:
  bot_token: "test_token"
  chat_id: "test_chat_id"
  enabled: true

logging:
  level: "debug"
  format: "json"
`
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Remove(tmpfile.Name()) }()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	// Test Load
	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Verify values
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Unexpected host: %s", cfg.Server.Host)
	}

	if cfg.Server.AlertPort != 9000 || cfg.Server.TelemetryPort != 9001 {
		t.Errorf("Unexpected ports: %d / %d", cfg.Server.AlertPort, cfg.Server.TelemetryPort)
	}

	if cfg.Server.AlertFormat != "chat" {
		t.Errorf("Unexpected alert format: %s", cfg.Server.AlertFormat)
	}

	if cfg.Source.Driver != "sim" {
		t.Errorf("Unexpected source driver: %s", cfg.Source.Driver)
	}

	if cfg.Source.SimSeed != 42 {
		t.Errorf("Unexpected sim seed: %d", cfg.Source.SimSeed)
	}

	// Defaults fill in what the file omits
	if cfg.Source.Timeout != 5*time.Second {
		t.Errorf("Unexpected default timeout: %v", cfg.Source.Timeout)
	}

	if cfg.Telegram.MaxRetries != 3 {
		t.Errorf("Unexpected default max retries: %d", cfg.Telegram.MaxRetries)
	}

	// Test Validate
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestValidateErrors(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server: ServerConfig{
				Host:          "0.0.0.0",
				AlertPort:     8000,
				TelemetryPort: 8001,
				AlertFormat:   "message",
			},
			Source: SourceConfig{
				Driver:    "mt5",
				BridgeURL: "http://127.0.0.1:8787",
				Timeout:   5 * time.Second,
			},
			Runtime: RuntimeConfig{
				FilePath: "./data/pipwatch.json",
			},
			Logging: LoggingConfig{
				Level:  "info",
				Format: "text",
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid baseline",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "alert port out of range",
			mutate:  func(c *Config) { c.Server.AlertPort = 0 },
			wantErr: true,
		},
		{
			name:    "ports collide",
			mutate:  func(c *Config) { c.Server.TelemetryPort = 8000 },
			wantErr: true,
		},
		{
			name:    "unknown alert format",
			mutate:  func(c *Config) { c.Server.AlertFormat = "xml" },
			wantErr: true,
		},
		{
			name:    "unknown source driver",
			mutate:  func(c *Config) { c.Source.Driver = "csv" },
			wantErr: true,
		},
		{
			name:    "mt5 without bridge url",
			mutate:  func(c *Config) { c.Source.BridgeURL = "" },
			wantErr: true,
		},
		{
			name:    "missing runtime file path",
			mutate:  func(c *Config) { c.Runtime.FilePath = "" },
			wantErr: true,
		},
		{
			name:    "telegram enabled without token",
			mutate:  func(c *Config) { c.Telegram.Enabled = true; c.Telegram.ChatID = "x" },
			wantErr: true,
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
