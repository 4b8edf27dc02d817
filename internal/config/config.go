// Package config provides configuration management for the trading client.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Gateway    GatewayConfig    `mapstructure:"gateway"`
	Session    SessionConfig    `mapstructure:"session"`
	MarketData MarketDataConfig `mapstructure:"marketdata"`
	Chain      ChainConfig      `mapstructure:"chain"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Audit      AuditConfig      `mapstructure:"audit"`
}

// GatewayConfig holds the gateway connection parameters.
type GatewayConfig struct {
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	ClientID int           `mapstructure:"client_id"`
	Account  string        `mapstructure:"account"` // empty = first managed account
	Paper    bool          `mapstructure:"paper"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// SessionConfig holds the reconnect policy.
type SessionConfig struct {
	ReconnectAttempts int           `mapstructure:"reconnect_attempts"`
	ReconnectBackoff  time.Duration `mapstructure:"reconnect_backoff"`
}

// MarketDataConfig holds snapshot polling parameters.
type MarketDataConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	MaxWait      time.Duration `mapstructure:"max_wait"`
}

// ChainConfig holds option chain build parameters.
type ChainConfig struct {
	Workers      int `mapstructure:"workers"`
	StrikeWindow int `mapstructure:"strike_window"`
}

// LoggingConfig holds logging parameters.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
}

// AuditConfig holds the operational journal parameters.
type AuditConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"` // empty = <config dir>/audit.db
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/ibkr-trader"
	}
	return filepath.Join(home, ".config", "ibkr-trader")
}

// Default returns the baseline configuration: paper gateway on localhost.
func Default() *Config {
	return &Config{
		Gateway: GatewayConfig{
			Host:     "127.0.0.1",
			Port:     7497,
			ClientID: 1,
			Paper:    true,
			Timeout:  10 * time.Second,
		},
		Session: SessionConfig{
			ReconnectAttempts: 3,
			ReconnectBackoff:  2 * time.Second,
		},
		MarketData: MarketDataConfig{
			PollInterval: 250 * time.Millisecond,
			MaxWait:      5 * time.Second,
		},
		Chain: ChainConfig{
			Workers:      2,
			StrikeWindow: 10,
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
			File:    true,
		},
		Audit: AuditConfig{
			Enabled: true,
		},
	}
}

// PaperDefaults returns the paper trading gateway parameters.
func PaperDefaults() GatewayConfig {
	return GatewayConfig{Host: "127.0.0.1", Port: 7497, ClientID: 1, Paper: true, Timeout: 10 * time.Second}
}

// LiveDefaults returns the live trading gateway parameters.
func LiveDefaults() GatewayConfig {
	return GatewayConfig{Host: "127.0.0.1", Port: 7496, ClientID: 1, Paper: false, Timeout: 10 * time.Second}
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	v.SetDefault("gateway.host", cfg.Gateway.Host)
	v.SetDefault("gateway.port", cfg.Gateway.Port)
	v.SetDefault("gateway.client_id", cfg.Gateway.ClientID)
	v.SetDefault("gateway.paper", cfg.Gateway.Paper)
	v.SetDefault("gateway.timeout", cfg.Gateway.Timeout)
	v.SetDefault("session.reconnect_attempts", cfg.Session.ReconnectAttempts)
	v.SetDefault("session.reconnect_backoff", cfg.Session.ReconnectBackoff)
	v.SetDefault("marketdata.poll_interval", cfg.MarketData.PollInterval)
	v.SetDefault("marketdata.max_wait", cfg.MarketData.MaxWait)
	v.SetDefault("chain.workers", cfg.Chain.Workers)
	v.SetDefault("chain.strike_window", cfg.Chain.StrikeWindow)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.console", cfg.Logging.Console)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("audit.enabled", cfg.Audit.Enabled)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		// Missing config file is fine; defaults plus env apply.
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if cfg.Audit.Path == "" {
		cfg.Audit.Path = filepath.Join(configDir, "audit.db")
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("IBKR_HOST"); v != "" {
		cfg.Gateway.Host = v
	}
	if v := os.Getenv("IBKR_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Gateway.Port = port
		}
	}
	if v := os.Getenv("IBKR_CLIENT_ID"); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			cfg.Gateway.ClientID = id
		}
	}
	if v := os.Getenv("IBKR_ACCOUNT"); v != "" {
		cfg.Gateway.Account = v
	}
	if v := os.Getenv("IBKR_IS_PAPER"); v != "" {
		if paper, err := strconv.ParseBool(v); err == nil {
			cfg.Gateway.Paper = paper
			if cfg.Gateway.Port == 7497 || cfg.Gateway.Port == 7496 {
				if paper {
					cfg.Gateway.Port = 7497
				} else {
					cfg.Gateway.Port = 7496
				}
			}
		}
	}
	if v := os.Getenv("IBKR_TIMEOUT"); v != "" {
		if secs, err := strconv.ParseFloat(v, 64); err == nil && secs > 0 {
			cfg.Gateway.Timeout = time.Duration(secs * float64(time.Second))
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Gateway.Host == "" {
		return fmt.Errorf("gateway host must not be empty")
	}
	if c.Gateway.Port <= 0 || c.Gateway.Port > 65535 {
		return fmt.Errorf("invalid gateway port: %d", c.Gateway.Port)
	}
	if c.Gateway.Timeout <= 0 {
		return fmt.Errorf("gateway timeout must be positive")
	}
	if c.Session.ReconnectAttempts < 1 {
		return fmt.Errorf("reconnect_attempts must be at least 1")
	}
	if c.Session.ReconnectBackoff < 0 {
		return fmt.Errorf("reconnect_backoff must be non-negative")
	}
	if c.MarketData.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}
	if c.MarketData.MaxWait < c.MarketData.PollInterval {
		return fmt.Errorf("max_wait must be at least the poll interval")
	}
	if c.Chain.Workers < 1 {
		return fmt.Errorf("chain workers must be at least 1")
	}
	if c.Chain.StrikeWindow < 1 {
		return fmt.Errorf("strike_window must be at least 1")
	}
	return nil
}
