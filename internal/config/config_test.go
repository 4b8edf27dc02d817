package config

import (
	"testing"
	"time"
)

func TestLoadDefaultsWithoutConfigFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Gateway.Host != "127.0.0.1" || cfg.Gateway.Port != 7497 {
		t.Errorf("gateway defaults = %s:%d", cfg.Gateway.Host, cfg.Gateway.Port)
	}
	if !cfg.Gateway.Paper {
		t.Error("default mode should be paper")
	}
	if cfg.Session.ReconnectAttempts != 3 {
		t.Errorf("ReconnectAttempts = %d, want 3", cfg.Session.ReconnectAttempts)
	}
	if cfg.Session.ReconnectBackoff != 2*time.Second {
		t.Errorf("ReconnectBackoff = %v, want 2s", cfg.Session.ReconnectBackoff)
	}
	if cfg.MarketData.MaxWait != 5*time.Second {
		t.Errorf("MaxWait = %v, want 5s", cfg.MarketData.MaxWait)
	}
	if cfg.Chain.Workers != 2 || cfg.Chain.StrikeWindow != 10 {
		t.Errorf("chain defaults = %+v", cfg.Chain)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("IBKR_HOST", "10.0.0.5")
	t.Setenv("IBKR_PORT", "4002")
	t.Setenv("IBKR_CLIENT_ID", "9")
	t.Setenv("IBKR_ACCOUNT", "DU999")
	t.Setenv("IBKR_TIMEOUT", "2.5")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Gateway.Host != "10.0.0.5" {
		t.Errorf("Host = %q", cfg.Gateway.Host)
	}
	if cfg.Gateway.Port != 4002 {
		t.Errorf("Port = %d", cfg.Gateway.Port)
	}
	if cfg.Gateway.ClientID != 9 {
		t.Errorf("ClientID = %d", cfg.Gateway.ClientID)
	}
	if cfg.Gateway.Account != "DU999" {
		t.Errorf("Account = %q", cfg.Gateway.Account)
	}
	if cfg.Gateway.Timeout != 2500*time.Millisecond {
		t.Errorf("Timeout = %v, want 2.5s", cfg.Gateway.Timeout)
	}
}

func TestPaperFlagSwitchesWellKnownPorts(t *testing.T) {
	t.Setenv("IBKR_IS_PAPER", "false")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Gateway.Paper {
		t.Error("Paper = true, want false")
	}
	if cfg.Gateway.Port != 7496 {
		t.Errorf("Port = %d, want live 7496", cfg.Gateway.Port)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []func(*Config){
		func(c *Config) { c.Gateway.Host = "" },
		func(c *Config) { c.Gateway.Port = 0 },
		func(c *Config) { c.Session.ReconnectAttempts = 0 },
		func(c *Config) { c.MarketData.PollInterval = 0 },
		func(c *Config) { c.MarketData.MaxWait = c.MarketData.PollInterval / 2 },
		func(c *Config) { c.Chain.Workers = 0 },
		func(c *Config) { c.Chain.StrikeWindow = 0 },
	}
	for i, mutate := range cases {
		cfg := Default()
		mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}
